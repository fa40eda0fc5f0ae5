package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"doc-annotator/internal/config"
	"doc-annotator/internal/handler"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	// Wiring
	container := config.NewContainer()

	if err := container.SupabaseClient.Initialize(); err != nil {
		container.Logger.Error("Failed to initialize Supabase client", err)
		os.Exit(1)
	}

	// Router
	annotationHandler := handler.NewAnnotationHandler(container.AnnotationService, container.Logger)
	documentHandler := handler.NewDocumentHandler(container.DocumentService, container.Logger)
	renderHandler := handler.NewRenderHandler(container.DocumentService, container.AnnotationService, container.Logger)
	authMiddleware := handler.NewAuthMiddleware(container.SupabaseClient, container.Logger).Middleware

	router := handler.NewRouter(
		annotationHandler,
		documentHandler,
		renderHandler,
		authMiddleware,
		container.Config.GetAllowedOrigins(),
	)

	// start server
	server := &http.Server{
		Addr:    ":" + container.Config.GetServerPort(),
		Handler: router,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()
	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	_ = server.Close()

	container.Logger.Info("Server exited")
}
