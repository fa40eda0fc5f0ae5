package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestRouter() http.Handler {
	logger := NewMockHandlerLogger()
	annotationHandler := NewAnnotationHandler(&mockAnnotationService{}, logger)
	documentHandler := NewDocumentHandler(&mockDocumentService{}, logger)
	renderHandler := NewRenderHandler(&mockDocumentService{}, &mockAnnotationService{}, logger)

	passthrough := func(next http.Handler) http.Handler { return next }
	return NewRouter(annotationHandler, documentHandler, renderHandler, passthrough, []string{"http://localhost:5173"})
}

func TestNewRouter_Health(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestNewRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/annotations", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected CORS origin echo, got %q", got)
	}
}
