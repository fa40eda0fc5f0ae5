package repository

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"doc-annotator/internal/domain"

	"github.com/supabase-community/postgrest-go"
)

// Selector types used in the annotation wire format. Annotation records
// travel as a W3C-style target.selector plus a body.value comment.
const (
	selectorTextPosition = "TextPositionSelector"
	selectorPdfRect      = "PdfRectSelector"
	selectorTextQuote    = "TextQuoteSelector"
)

// AnnotationRepository implements domain.AnnotationRepository using Supabase.
type AnnotationRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewAnnotationRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.AnnotationRepository {
	return &AnnotationRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

func (r *AnnotationRepository) Create(annotation *domain.Annotation, token string) (*domain.Annotation, error) {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to get client with token: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	row := map[string]interface{}{
		"document_id": annotation.DocumentID,
		"user_name":   annotation.Author,
		"target": map[string]interface{}{
			"selector": selectorFor(annotation),
		},
		"body": map[string]interface{}{
			"type":    "TextualBody",
			"value":   sanitizeText(annotation.Comment),
			"purpose": "commenting",
		},
	}
	if annotation.RegionAnchor != nil {
		row["page_number"] = annotation.RegionAnchor.PageNumber
	}

	// Request "representation" so PostgREST returns the inserted row.
	data, _, err := client.From("annotations").
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to create annotation: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to create annotation: empty response")
	}

	return mapToAnnotation(rows[0]), nil
}

func (r *AnnotationRepository) ListByDocument(documentID string, pageNumber *int, token string) ([]*domain.Annotation, error) {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to get client with token: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	q := client.From("annotations").
		Select("*", "", false).
		Eq("document_id", documentID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true})

	if pageNumber != nil {
		q = q.Eq("page_number", strconv.Itoa(*pageNumber))
	}

	data, _, err := q.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	out := make([]*domain.Annotation, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapToAnnotation(row))
	}
	return out, nil
}

func (r *AnnotationRepository) Delete(annotationID string, token string) error {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return fmt.Errorf("failed to get client with token: %w", err)
	}
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	_, _, err = client.From("annotations").
		Delete("", "").
		Eq("id", annotationID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete annotation: %w", err)
	}
	return nil
}

// selectorFor builds the wire selector for an annotation's anchor shape.
func selectorFor(a *domain.Annotation) map[string]interface{} {
	exact := sanitizeText(a.Text)
	switch {
	case a.TextAnchor != nil:
		return map[string]interface{}{
			"type":  selectorTextPosition,
			"start": a.TextAnchor.StartOffset,
			"end":   a.TextAnchor.EndOffset,
			"exact": exact,
		}
	case a.RegionAnchor != nil:
		rects := make([]map[string]interface{}, 0, len(a.RegionAnchor.Rects))
		for _, rc := range a.RegionAnchor.Rects {
			rects = append(rects, rectToMap(rc))
		}
		sel := rectToMap(a.RegionAnchor.Bounds)
		sel["type"] = selectorPdfRect
		sel["page"] = a.RegionAnchor.PageNumber
		sel["rects"] = rects
		sel["exact"] = exact
		return sel
	default:
		// Document-level comment: no anchored text.
		return map[string]interface{}{
			"type":  selectorTextQuote,
			"exact": exact,
		}
	}
}

func rectToMap(rc domain.Rect) map[string]interface{} {
	return map[string]interface{}{
		"x":      rc.X,
		"y":      rc.Y,
		"width":  rc.Width,
		"height": rc.Height,
	}
}

func mapToAnnotation(data map[string]interface{}) *domain.Annotation {
	a := &domain.Annotation{
		ID:         getString(data, "id"),
		DocumentID: getString(data, "document_id"),
		Author:     getString(data, "user_name"),
	}

	if body, ok := data["body"].(map[string]interface{}); ok {
		a.Comment = getString(body, "value")
	}

	if target, ok := data["target"].(map[string]interface{}); ok {
		if sel, ok := target["selector"].(map[string]interface{}); ok {
			a.Text = getString(sel, "exact")
			switch getString(sel, "type") {
			case selectorTextPosition:
				a.TextAnchor = &domain.TextAnchor{
					StartOffset: getInt(sel, "start"),
					EndOffset:   getInt(sel, "end"),
				}
			case selectorPdfRect:
				anchor := &domain.RegionAnchor{
					PageNumber: getInt(sel, "page"),
					Bounds:     mapToRect(sel),
				}
				if raw, ok := sel["rects"].([]interface{}); ok {
					for _, rr := range raw {
						if rm, ok := rr.(map[string]interface{}); ok {
							anchor.Rects = append(anchor.Rects, mapToRect(rm))
						}
					}
				}
				a.RegionAnchor = anchor
			}
		}
	}

	if createdAt := getString(data, "created_at"); createdAt != "" {
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			a.CreatedAt = t
		} else if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			a.CreatedAt = t
		}
	}

	return a
}

func mapToRect(sel map[string]interface{}) domain.Rect {
	return domain.Rect{
		X:      getFloat(sel, "x"),
		Y:      getFloat(sel, "y"),
		Width:  getFloat(sel, "width"),
		Height: getFloat(sel, "height"),
	}
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func getInt(data map[string]interface{}, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return 0
}

func getFloat(data map[string]interface{}, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return 0
}

var reControl = regexp.MustCompile(`[\x00]`)

// sanitizeText removes characters that PostgreSQL rejects in text fields (notably NUL bytes).
func sanitizeText(s string) string {
	if s == "" {
		return s
	}
	// Remove any NUL bytes.
	s = reControl.ReplaceAllString(s, "")
	// Also remove escaped unicode NUL sequences that can appear in some extracted content.
	s = strings.ReplaceAll(s, "\\u0000", "")
	s = strings.ReplaceAll(s, "\u0000", "")
	return s
}
