package domain

import "time"

// DocumentLevelComment is the sentinel stored in Annotation.Text when the user
// comments on the document as a whole instead of a quoted passage. Annotations
// carrying it are never rendered as highlights.
const DocumentLevelComment = "Document-level comment"

// Rect is a normalized rectangle in the unit square of a page (0..1 on each
// axis, origin top-left).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextAnchor positions an annotation inside flowed-text content as character
// offsets into the linearized text of the content container.
type TextAnchor struct {
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`
}

// Degenerate reports whether the anchor covers no text.
func (a *TextAnchor) Degenerate() bool {
	return a == nil || a.EndOffset <= a.StartOffset
}

// RegionAnchor positions an annotation on a fixed-layout (PDF) page.
// Bounds is the union of the per-line Rects; Rects may be empty for
// single-line selections.
type RegionAnchor struct {
	PageNumber int    `json:"page_number"`
	Bounds     Rect   `json:"coordinates"`
	Rects      []Rect `json:"rects,omitempty"`
}

// Annotation is one persisted user comment, anchored either to a character
// range (flowed text) or to a page region (fixed layout). Exactly one of
// TextAnchor / RegionAnchor is set, determined by the owning document's kind.
type Annotation struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Text       string    `json:"text"`
	Comment    string    `json:"comment"`
	Author     string    `json:"author"`
	CreatedAt  time.Time `json:"created_at"`

	TextAnchor   *TextAnchor   `json:"text_anchor,omitempty"`
	RegionAnchor *RegionAnchor `json:"region_anchor,omitempty"`
}

// Validate checks the one-anchor invariant and the anchor bounds.
func (a *Annotation) Validate() error {
	if a.DocumentID == "" {
		return ErrInvalidAnchor
	}
	switch {
	case a.TextAnchor != nil && a.RegionAnchor != nil:
		return ErrInvalidAnchor
	case a.TextAnchor != nil:
		if a.TextAnchor.StartOffset < 0 || a.TextAnchor.EndOffset < a.TextAnchor.StartOffset {
			return ErrInvalidAnchor
		}
	case a.RegionAnchor != nil:
		if a.RegionAnchor.PageNumber < 1 {
			return ErrInvalidAnchor
		}
	default:
		return ErrInvalidAnchor
	}
	return nil
}

// DocumentLevel reports whether this annotation targets the whole document
// rather than a quoted passage.
func (a *Annotation) DocumentLevel() bool {
	return a.Text == DocumentLevelComment
}

// AnnotationRepository defines persistence operations for annotations.
type AnnotationRepository interface {
	Create(annotation *Annotation, token string) (*Annotation, error)
	ListByDocument(documentID string, pageNumber *int, token string) ([]*Annotation, error)
	Delete(annotationID string, token string) error
}

// AnnotationService defines the use-case operations for annotations.
type AnnotationService interface {
	CreateAnnotation(userName string, annotation *Annotation, token string) (*Annotation, error)
	ListAnnotations(documentID string, pageNumber *int, token string) ([]*Annotation, error)
	DeleteAnnotation(annotationID string, token string) error
}
