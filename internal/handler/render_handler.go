package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"doc-annotator/internal/domain"
	"doc-annotator/internal/reconcile"
	"doc-annotator/internal/surface"

	"github.com/gorilla/mux"
)

/// RenderHandler runs the highlight engine server-side: it reconciles a
// document's stored annotations against its content and returns the resulting
// markup (flowed text) or overlay boxes (fixed layout).
type RenderHandler struct {
	logger            domain.Logger
	documentService   domain.DocumentService
	annotationService domain.AnnotationService
}

func NewRenderHandler(
	documentService domain.DocumentService,
	annotationService domain.AnnotationService,
	logger domain.Logger,
) *RenderHandler {
	return &RenderHandler{
		logger:            logger,
		documentService:   documentService,
		annotationService: annotationService,
	}
}

type renderedResponse struct {
	DocumentID string              `json:"document_id"`
	HTML       string              `json:"html"`
	Outcomes   []reconcile.Outcome `json:"outcomes"`
}

// GetRendered handles GET /documents/{id}/rendered for flowed-text documents.
func (h *RenderHandler) GetRendered(w http.ResponseWriter, r *http.Request) {
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return
	}
	documentID := mux.Vars(r)["id"]

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
	if doc.DocumentType.Kind() != domain.KindFlowedText {
		writeError(w, http.StatusBadRequest, "Document is not flowed text")
		return
	}

	annotations, err := h.annotationService.ListAnnotations(documentID, nil, token)
	if err != nil {
		h.logger.Error("Failed to list annotations", err, "document_id", documentID)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve annotations")
		return
	}

	surf, err := surface.Parse(doc.Content)
	if err != nil {
		h.logger.Error("Failed to parse document content", err, "document_id", documentID)
		writeError(w, http.StatusInternalServerError, "Failed to parse document content")
		return
	}

	outcomes := reconcile.NewFlowedReconciler(surf, h.logger).Apply(annotations)
	html, err := surf.Render()
	if err != nil {
		h.logger.Error("Failed to render content", err, "document_id", documentID)
		writeError(w, http.StatusInternalServerError, "Failed to render content")
		return
	}

	h.writeJSON(w, http.StatusOK, renderedResponse{
		DocumentID: documentID,
		HTML:       html,
		Outcomes:   outcomes,
	})
}

type overlayResponse struct {
	DocumentID string                 `json:"document_id"`
	PageNumber int                    `json:"page_number"`
	Boxes      []reconcile.OverlayBox `json:"boxes"`
	Outcomes   []reconcile.Outcome    `json:"outcomes"`
}

// GetOverlay handles GET /documents/{id}/overlay?page=&width=&height=&scale=
// for fixed-layout documents.
func (h *RenderHandler) GetOverlay(w http.ResponseWriter, r *http.Request) {
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return
	}
	documentID := mux.Vars(r)["id"]

	vp, err := viewportFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
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
	if doc.DocumentType.Kind() != domain.KindFixedLayout {
		writeError(w, http.StatusBadRequest, "Document is not fixed layout")
		return
	}

	annotations, err := h.annotationService.ListAnnotations(documentID, nil, token)
	if err != nil {
		h.logger.Error("Failed to list annotations", err, "document_id", documentID)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve annotations")
		return
	}

	rec := reconcile.NewFixedReconciler(h.logger)
	rec.SetViewport(vp)
	outcomes := rec.Apply(annotations)

	h.writeJSON(w, http.StatusOK, overlayResponse{
		DocumentID: documentID,
		PageNumber: vp.PageNumber,
		Boxes:      rec.Overlay(),
		Outcomes:   outcomes,
	})
}

func viewportFromQuery(r *http.Request) (reconcile.Viewport, error) {
	q := r.URL.Query()
	vp := reconcile.Viewport{PageNumber: 1, Scale: 1}
	var err error
	if raw := q.Get("page"); raw != "" {
		if vp.PageNumber, err = strconv.Atoi(raw); err != nil || vp.PageNumber < 1 {
			return vp, errInvalidQuery("page")
		}
	}
	if vp.PageWidth, err = strconv.ParseFloat(q.Get("width"), 64); err != nil || vp.PageWidth <= 0 {
		return vp, errInvalidQuery("width")
	}
	if vp.PageHeight, err = strconv.ParseFloat(q.Get("height"), 64); err != nil || vp.PageHeight <= 0 {
		return vp, errInvalidQuery("height")
	}
	if raw := q.Get("scale"); raw != "" {
		if vp.Scale, err = strconv.ParseFloat(raw, 64); err != nil || vp.Scale <= 0 {
			return vp, errInvalidQuery("scale")
		}
	}
	return vp, nil
}

type errInvalidQuery string

func (e errInvalidQuery) Error() string {
	return string(e) + " must be a positive number"
}

func (h *RenderHandler) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
