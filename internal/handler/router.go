package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	annotationHandler *AnnotationHandler,
	documentHandler *DocumentHandler,
	renderHandler *RenderHandler,
	authMiddleware func(http.Handler) http.Handler,
	allowedOrigins []string,
) http.Handler {
	router := mux.NewRouter()

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"doc-annotator"}`))
	}).Methods("GET")

	// Protected routes (require authentication)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(authMiddleware)

	// Annotation routes (protected)
	protected.HandleFunc("/annotations", annotationHandler.CreateAnnotation).Methods("POST")
	protected.HandleFunc("/annotations/document/{documentId}", annotationHandler.ListAnnotations).Methods("GET")
	protected.HandleFunc("/annotations/{id}", annotationHandler.DeleteAnnotation).Methods("DELETE")

	// Document routes (protected)
	protected.HandleFunc("/documents/{id}", documentHandler.GetDocument).Methods("GET")
	protected.HandleFunc("/documents/{id}/file", documentHandler.GetDocumentFile).Methods("GET")
	protected.HandleFunc("/documents/{id}/rendered", renderHandler.GetRendered).Methods("GET")
	protected.HandleFunc("/documents/{id}/overlay", renderHandler.GetOverlay).Methods("GET")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-CSRF-Token",
		},
		ExposedHeaders: []string{
			"Link",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
