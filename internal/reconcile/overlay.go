package reconcile

import (
	"sync"

	"doc-annotator/internal/domain"
)

// OverlayBox is one absolutely-positioned, pointer-active highlight box over
// a rendered page, in pixels at the page's current render scale.
type OverlayBox struct {
	AnnotationID string  `json:"annotation_id"`
	Comment      string  `json:"comment"`
	PageNumber   int     `json:"page_number"`
	Left         float64 `json:"left"`
	Top          float64 `json:"top"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
}

// Viewport describes the currently visible page and its render geometry.
// PageWidth/PageHeight are the page's base (scale 1) dimensions in pixels.
type Viewport struct {
	PageNumber int
	PageWidth  float64
	PageHeight float64
	Scale      float64
}

// FixedReconciler rebuilds the declarative highlight overlay for the visible
// page of a fixed-layout document. The boxes are entirely disposable: every
// pass replaces the previous set.
type FixedReconciler struct {
	logger domain.Logger

	mu       sync.Mutex
	viewport Viewport
	boxes    []OverlayBox
}

func NewFixedReconciler(logger domain.Logger) *FixedReconciler {
	return &FixedReconciler{logger: logger, viewport: Viewport{PageNumber: 1, Scale: 1}}
}

// SetViewport records the visible page and render geometry. The next Apply
// builds boxes for that page.
func (r *FixedReconciler) SetViewport(v Viewport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.Scale <= 0 {
		v.Scale = 1
	}
	r.viewport = v
}

// Apply rebuilds the overlay for the visible page: one box per annotation on
// that page, or one box per stored line rect for multi-line selections.
func (r *FixedReconciler) Apply(annotations []*domain.Annotation) []Outcome {
	r.mu.Lock()
	vp := r.viewport
	r.mu.Unlock()

	outcomes := make([]Outcome, 0, len(annotations))
	boxes := []OverlayBox{}
	for _, a := range annotations {
		switch {
		case a.DocumentLevel():
			outcomes = append(outcomes, Outcome{AnnotationID: a.ID, Skip: SkipDocumentLevel})
			continue
		case a.RegionAnchor == nil:
			outcomes = append(outcomes, Outcome{AnnotationID: a.ID, Skip: SkipNoTextAnchor})
			continue
		case a.RegionAnchor.PageNumber != vp.PageNumber:
			outcomes = append(outcomes, Outcome{AnnotationID: a.ID, Skip: SkipOtherPage})
			continue
		}

		rects := a.RegionAnchor.Rects
		if len(rects) == 0 {
			rects = []domain.Rect{a.RegionAnchor.Bounds}
		}
		for _, rect := range rects {
			boxes = append(boxes, OverlayBox{
				AnnotationID: a.ID,
				Comment:      a.Comment,
				PageNumber:   vp.PageNumber,
				Left:         rect.X * vp.Scale * vp.PageWidth,
				Top:          rect.Y * vp.Scale * vp.PageHeight,
				Width:        rect.Width * vp.Scale * vp.PageWidth,
				Height:       rect.Height * vp.Scale * vp.PageHeight,
			})
		}
		outcomes = append(outcomes, Outcome{AnnotationID: a.ID, Highlighted: true})
	}

	r.mu.Lock()
	r.boxes = boxes
	r.mu.Unlock()
	return outcomes
}

// Overlay returns the boxes built by the last Apply.
func (r *FixedReconciler) Overlay() []OverlayBox {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.boxes
}
