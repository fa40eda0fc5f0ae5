package reconcile

import (
	"testing"

	"doc-annotator/internal/domain"
)

func regionAnnotation(id string, page int, bounds domain.Rect, rects ...domain.Rect) *domain.Annotation {
	return &domain.Annotation{
		ID:         id,
		DocumentID: "doc-1",
		Text:       "selected page text",
		Comment:    "a comment",
		RegionAnchor: &domain.RegionAnchor{
			PageNumber: page,
			Bounds:     bounds,
			Rects:      rects,
		},
	}
}

func floatClose(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func TestOverlayScalesNormalizedRects(t *testing.T) {
	rec := NewFixedReconciler(testLogger{})
	rec.SetViewport(Viewport{PageNumber: 2, PageWidth: 612, PageHeight: 792, Scale: 1.5})

	ann := regionAnnotation("a1", 2, domain.Rect{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.05})
	outcomes := rec.Apply([]*domain.Annotation{ann})

	o, _ := outcomeFor(outcomes, "a1")
	if !o.Highlighted {
		t.Fatalf("expected overlay box, got %+v", o)
	}
	boxes := rec.Overlay()
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(boxes))
	}
	b := boxes[0]
	if !floatClose(b.Left, 0.15*612) || !floatClose(b.Top, 0.3*792) {
		t.Fatalf("wrong box origin: left=%v top=%v", b.Left, b.Top)
	}
	if !floatClose(b.Width, 0.45*612) || !floatClose(b.Height, 0.075*792) {
		t.Fatalf("wrong box size: width=%v height=%v", b.Width, b.Height)
	}
}

func TestOverlayOneBoxPerLineRect(t *testing.T) {
	rec := NewFixedReconciler(testLogger{})
	rec.SetViewport(Viewport{PageNumber: 1, PageWidth: 600, PageHeight: 800, Scale: 1})

	ann := regionAnnotation("a1", 1,
		domain.Rect{X: 0.1, Y: 0.2, Width: 0.5, Height: 0.11},
		domain.Rect{X: 0.1, Y: 0.2, Width: 0.5, Height: 0.05},
		domain.Rect{X: 0.1, Y: 0.26, Width: 0.3, Height: 0.05},
	)
	rec.Apply([]*domain.Annotation{ann})

	boxes := rec.Overlay()
	if len(boxes) != 2 {
		t.Fatalf("expected one box per line rect, got %d", len(boxes))
	}
	for _, b := range boxes {
		if b.AnnotationID != "a1" || b.PageNumber != 1 {
			t.Fatalf("unexpected box: %+v", b)
		}
	}
}

func TestOverlaySkipsOtherPages(t *testing.T) {
	rec := NewFixedReconciler(testLogger{})
	rec.SetViewport(Viewport{PageNumber: 3, PageWidth: 600, PageHeight: 800, Scale: 1})

	outcomes := rec.Apply([]*domain.Annotation{
		regionAnnotation("visible", 3, domain.Rect{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.05}),
		regionAnnotation("hidden", 5, domain.Rect{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.05}),
	})

	if o, _ := outcomeFor(outcomes, "visible"); !o.Highlighted {
		t.Fatalf("expected visible-page annotation highlighted, got %+v", o)
	}
	if o, _ := outcomeFor(outcomes, "hidden"); o.Highlighted || o.Skip != SkipOtherPage {
		t.Fatalf("expected other_page skip, got %+v", o)
	}
	if len(rec.Overlay()) != 1 {
		t.Fatalf("expected 1 box, got %d", len(rec.Overlay()))
	}
}

func TestOverlaySkipsDocumentLevelAndUnanchored(t *testing.T) {
	rec := NewFixedReconciler(testLogger{})
	rec.SetViewport(Viewport{PageNumber: 1, PageWidth: 600, PageHeight: 800, Scale: 1})

	docLevel := &domain.Annotation{ID: "doc", Text: domain.DocumentLevelComment, Comment: "overall"}
	noAnchor := &domain.Annotation{ID: "none", Text: "orphan", Comment: "lost"}

	outcomes := rec.Apply([]*domain.Annotation{docLevel, noAnchor})

	if o, _ := outcomeFor(outcomes, "doc"); o.Skip != SkipDocumentLevel {
		t.Fatalf("expected document_level skip, got %+v", o)
	}
	if o, _ := outcomeFor(outcomes, "none"); o.Skip != SkipNoTextAnchor {
		t.Fatalf("expected no_text_anchor skip, got %+v", o)
	}
	if len(rec.Overlay()) != 0 {
		t.Fatal("no boxes expected")
	}
}

func TestOverlayRebuiltOnEveryApply(t *testing.T) {
	rec := NewFixedReconciler(testLogger{})
	rec.SetViewport(Viewport{PageNumber: 1, PageWidth: 600, PageHeight: 800, Scale: 1})

	ann := regionAnnotation("a1", 1, domain.Rect{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.05})
	rec.Apply([]*domain.Annotation{ann})
	if len(rec.Overlay()) != 1 {
		t.Fatal("setup: box missing")
	}

	rec.Apply([]*domain.Annotation{})
	if len(rec.Overlay()) != 0 {
		t.Fatal("stale box survived empty pass")
	}
}

func TestOverlayZeroScaleDefaultsToOne(t *testing.T) {
	rec := NewFixedReconciler(testLogger{})
	rec.SetViewport(Viewport{PageNumber: 1, PageWidth: 100, PageHeight: 100, Scale: 0})

	ann := regionAnnotation("a1", 1, domain.Rect{X: 0.5, Y: 0.5, Width: 0.1, Height: 0.1})
	rec.Apply([]*domain.Annotation{ann})

	boxes := rec.Overlay()
	if len(boxes) != 1 || !floatClose(boxes[0].Left, 50) {
		t.Fatalf("expected scale to default to 1, got %+v", boxes)
	}
}
