package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"doc-annotator/internal/domain"

	"github.com/gorilla/mux"
)

// AnnotationHandler handles annotation-related HTTP requests.
type AnnotationHandler struct {
	logger            domain.Logger
	annotationService domain.AnnotationService
}

func NewAnnotationHandler(annotationService domain.AnnotationService, logger domain.Logger) *AnnotationHandler {
	return &AnnotationHandler{
		logger:            logger,
		annotationService: annotationService,
	}
}

// Wire shapes: annotation records travel as target.selector + body.value.
type wireSelector struct {
	Type   string        `json:"type"`
	Start  *int          `json:"start,omitempty"`
	End    *int          `json:"end,omitempty"`
	Exact  string        `json:"exact,omitempty"`
	Page   *int          `json:"page,omitempty"`
	X      float64       `json:"x,omitempty"`
	Y      float64       `json:"y,omitempty"`
	Width  float64       `json:"width,omitempty"`
	Height float64       `json:"height,omitempty"`
	Rects  []domain.Rect `json:"rects,omitempty"`
}

type wireTarget struct {
	Selector wireSelector `json:"selector"`
}

type wireBody struct {
	Type    string `json:"type"`
	Value   string `json:"value"`
	Purpose string `json:"purpose,omitempty"`
}

type createAnnotationRequest struct {
	DocumentID string     `json:"document_id"`
	Target     wireTarget `json:"target"`
	Body       wireBody   `json:"body"`
	PageNumber *int       `json:"page_number,omitempty"`
}

// CreateAnnotation handles POST /annotations
func (h *AnnotationHandler) CreateAnnotation(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return
	}

	var req createAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.DocumentID == "" {
		writeError(w, http.StatusBadRequest, "document_id is required")
		return
	}
	if req.Body.Value == "" {
		writeError(w, http.StatusBadRequest, "body.value is required")
		return
	}

	ann := annotationFromWire(req)
	created, err := h.annotationService.CreateAnnotation(user.DisplayName(), ann, token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAnchor) {
			writeError(w, http.StatusBadRequest, "Invalid annotation anchor")
			return
		}
		h.logger.Error("Failed to create annotation", err, "document_id", req.DocumentID)
		writeError(w, http.StatusInternalServerError, "Failed to create annotation")
		return
	}

	h.writeJSON(w, http.StatusCreated, created)
}

// ListAnnotations handles GET /annotations/document/{documentId}?page_number=...
func (h *AnnotationHandler) ListAnnotations(w http.ResponseWriter, r *http.Request) {
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return
	}

	documentID := mux.Vars(r)["documentId"]
	if documentID == "" {
		writeError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	var pagePtr *int
	if raw := r.URL.Query().Get("page_number"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "page_number must be an integer")
			return
		}
		pagePtr = &page
	}

	annotations, err := h.annotationService.ListAnnotations(documentID, pagePtr, token)
	if err != nil {
		h.logger.Error("Failed to list annotations", err, "document_id", documentID)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve annotations")
		return
	}
	if annotations == nil {
		annotations = make([]*domain.Annotation, 0)
	}
	h.writeJSON(w, http.StatusOK, annotations)
}

// DeleteAnnotation handles DELETE /annotations/{id}
func (h *AnnotationHandler) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return
	}

	annotationID := mux.Vars(r)["id"]
	if annotationID == "" {
		writeError(w, http.StatusBadRequest, "Annotation ID is required")
		return
	}

	if err := h.annotationService.DeleteAnnotation(annotationID, token); err != nil {
		if errors.Is(err, domain.ErrAnnotationNotFound) {
			writeError(w, http.StatusNotFound, "Annotation not found")
			return
		}
		h.logger.Error("Failed to delete annotation", err, "annotation_id", annotationID)
		writeError(w, http.StatusInternalServerError, "Failed to delete annotation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func annotationFromWire(req createAnnotationRequest) *domain.Annotation {
	ann := &domain.Annotation{
		DocumentID: req.DocumentID,
		Text:       req.Target.Selector.Exact,
		Comment:    req.Body.Value,
	}
	sel := req.Target.Selector
	switch {
	case sel.Start != nil && sel.End != nil:
		ann.TextAnchor = &domain.TextAnchor{StartOffset: *sel.Start, EndOffset: *sel.End}
	case sel.Page != nil:
		ann.RegionAnchor = &domain.RegionAnchor{
			PageNumber: *sel.Page,
			Bounds:     domain.Rect{X: sel.X, Y: sel.Y, Width: sel.Width, Height: sel.Height},
			Rects:      sel.Rects,
		}
	}
	return ann
}

func (h *AnnotationHandler) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
