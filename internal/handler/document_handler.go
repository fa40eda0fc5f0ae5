package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"doc-annotator/internal/domain"

	"github.com/gorilla/mux"
)

// DocumentHandler serves document metadata and binary streams to the viewer.
type DocumentHandler struct {
	logger          domain.Logger
	documentService domain.DocumentService
}

func NewDocumentHandler(documentService domain.DocumentService, logger domain.Logger) *DocumentHandler {
	return &DocumentHandler{
		logger:          logger,
		documentService: documentService,
	}
}

// GetDocument handles GET /documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return
	}

	documentID := mux.Vars(r)["id"]
	if documentID == "" {
		writeError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	doc, err := h.documentService.GetDocument(documentID, token)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		h.logger.Error("Failed to get document", err, "document_id", documentID)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve document")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(doc)
}

// GetDocumentFile handles GET /documents/{id}/file, streaming the raw binary
// of a fixed-layout document for client-side rendering.
func (h *DocumentHandler) GetDocumentFile(w http.ResponseWriter, r *http.Request) {
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return
	}

	documentID := mux.Vars(r)["id"]
	if documentID == "" {
		writeError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	data, err := h.documentService.GetDocumentFile(documentID, token)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		h.logger.Error("Failed to stream document file", err, "document_id", documentID)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve document file")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
