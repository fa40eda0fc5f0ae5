package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"doc-annotator/internal/domain"

	"github.com/gorilla/mux"
)

type mockDocumentService struct {
	doc     *domain.Document
	docErr  error
	file    []byte
	fileErr error
}

func (m *mockDocumentService) GetDocument(documentID, token string) (*domain.Document, error) {
	if m.docErr != nil {
		return nil, m.docErr
	}
	return m.doc, nil
}

func (m *mockDocumentService) GetDocumentFile(documentID, token string) ([]byte, error) {
	if m.fileErr != nil {
		return nil, m.fileErr
	}
	return m.file, nil
}

func renderedRequest(t *testing.T, h *RenderHandler, docID string) *httptest.ResponseRecorder {
	t.Helper()
	req := authedRequest(http.MethodGet, "/api/v1/documents/"+docID+"/rendered", "")
	req = mux.SetURLVars(req, map[string]string{"id": docID})
	rr := httptest.NewRecorder()
	h.GetRendered(rr, req)
	return rr
}

func TestGetRenderedPaintsHighlights(t *testing.T) {
	docs := &mockDocumentService{doc: &domain.Document{
		ID:           "doc-1",
		DocumentType: domain.DocumentTypeHTML,
		Content:      "<p>The quick brown fox</p>",
	}}
	anns := &mockAnnotationService{list: []*domain.Annotation{
		{ID: "a1", Text: "quick", Comment: "nice", TextAnchor: &domain.TextAnchor{StartOffset: 4, EndOffset: 9}},
	}}
	h := NewRenderHandler(docs, anns, NewMockHandlerLogger())

	rr := renderedRequest(t, h, "doc-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		DocumentID string `json:"document_id"`
		HTML       string `json:"html"`
		Outcomes   []struct {
			AnnotationID string `json:"annotation_id"`
			Highlighted  bool   `json:"highlighted"`
		} `json:"outcomes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !strings.Contains(resp.HTML, `data-annotation-id="a1"`) {
		t.Fatalf("highlight markup missing: %s", resp.HTML)
	}
	if len(resp.Outcomes) != 1 || !resp.Outcomes[0].Highlighted {
		t.Fatalf("unexpected outcomes: %+v", resp.Outcomes)
	}
}

func TestGetRenderedRejectsFixedLayout(t *testing.T) {
	docs := &mockDocumentService{doc: &domain.Document{
		ID:           "doc-1",
		DocumentType: domain.DocumentTypePDF,
		StoragePath:  "user/paper.pdf",
	}}
	h := NewRenderHandler(docs, &mockAnnotationService{}, NewMockHandlerLogger())

	rr := renderedRequest(t, h, "doc-1")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGetRenderedDocumentNotFound(t *testing.T) {
	docs := &mockDocumentService{docErr: domain.ErrDocumentNotFound}
	h := NewRenderHandler(docs, &mockAnnotationService{}, NewMockHandlerLogger())

	rr := renderedRequest(t, h, "missing")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func overlayRequest(t *testing.T, h *RenderHandler, docID, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := authedRequest(http.MethodGet, "/api/v1/documents/"+docID+"/overlay?"+query, "")
	req = mux.SetURLVars(req, map[string]string{"id": docID})
	rr := httptest.NewRecorder()
	h.GetOverlay(rr, req)
	return rr
}

func TestGetOverlayBuildsBoxes(t *testing.T) {
	docs := &mockDocumentService{doc: &domain.Document{
		ID:           "doc-1",
		DocumentType: domain.DocumentTypePDF,
		StoragePath:  "user/paper.pdf",
	}}
	anns := &mockAnnotationService{list: []*domain.Annotation{
		{
			ID:   "a1",
			Text: "page text",
			RegionAnchor: &domain.RegionAnchor{
				PageNumber: 2,
				Bounds:     domain.Rect{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.05},
			},
		},
	}}
	h := NewRenderHandler(docs, anns, NewMockHandlerLogger())

	rr := overlayRequest(t, h, "doc-1", "page=2&width=612&height=792&scale=1.5")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		PageNumber int `json:"page_number"`
		Boxes      []struct {
			Left float64 `json:"left"`
			Top  float64 `json:"top"`
		} `json:"boxes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.PageNumber != 2 || len(resp.Boxes) != 1 {
		t.Fatalf("unexpected overlay: %+v", resp)
	}
	if want := 0.15 * 612; resp.Boxes[0].Left != want {
		t.Fatalf("expected left %v, got %v", want, resp.Boxes[0].Left)
	}
}

func TestGetOverlayQueryValidation(t *testing.T) {
	docs := &mockDocumentService{doc: &domain.Document{
		ID:           "doc-1",
		DocumentType: domain.DocumentTypePDF,
	}}
	h := NewRenderHandler(docs, &mockAnnotationService{}, NewMockHandlerLogger())

	tests := []struct {
		name  string
		query string
	}{
		{"missing dimensions", "page=1"},
		{"negative width", "page=1&width=-10&height=792"},
		{"zero page", "page=0&width=612&height=792"},
		{"bad scale", "page=1&width=612&height=792&scale=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := overlayRequest(t, h, "doc-1", tt.query)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestGetOverlayRejectsFlowedText(t *testing.T) {
	docs := &mockDocumentService{doc: &domain.Document{
		ID:           "doc-1",
		DocumentType: domain.DocumentTypeMarkdown,
		Content:      "# Notes",
	}}
	h := NewRenderHandler(docs, &mockAnnotationService{}, NewMockHandlerLogger())

	rr := overlayRequest(t, h, "doc-1", "page=1&width=612&height=792")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
