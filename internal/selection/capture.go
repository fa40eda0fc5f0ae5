// Package selection turns user selection gestures into normalized
// TextSelections, one capture strategy per document kind.
package selection

import (
	"sync"

	"doc-annotator/internal/anchor"
	"doc-annotator/internal/domain"
	"doc-annotator/internal/surface"

	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// Capturer is the kind-specific capture strategy, chosen once at
// document-load time.
type Capturer interface {
	// CaptureActive reads whatever the rendering surface currently reports as
	// selected and normalizes it. A nil selection with a nil error means the
	// user selected nothing anchorable; callers treat that as a document-level
	// comment anchor.
	CaptureActive() (*domain.TextSelection, error)
}

// FlowedCapture reads the surface's active selection and resolves both
// boundaries to character offsets.
type FlowedCapture struct {
	surf   *surface.Surface
	logger domain.Logger
}

func NewFlowedCapture(surf *surface.Surface, logger domain.Logger) *FlowedCapture {
	return &FlowedCapture{surf: surf, logger: logger}
}

func (c *FlowedCapture) CaptureActive() (*domain.TextSelection, error) {
	r := c.surf.ActiveSelection()
	if r == nil {
		return nil, nil
	}
	text, err := c.surf.RangeText(r)
	if err != nil || text == "" {
		return nil, nil
	}

	start, err := anchor.OffsetAt(c.surf, r.Start.Node, r.Start.Offset)
	if err != nil {
		return nil, err
	}
	end, err := anchor.OffsetAt(c.surf, r.End.Node, r.End.Offset)
	if err != nil {
		return nil, err
	}

	sel := &domain.TextSelection{
		Text:       text,
		TextAnchor: &domain.TextAnchor{StartOffset: start, EndOffset: end},
	}

	// Paint the temporary pending highlight. Best-effort: a range that cannot
	// be cleanly wrapped still captures offsets, it just stays unpainted.
	markID := uuid.NewString()
	marker := surface.NewMarker(
		html.Attribute{Key: surface.AttrPendingID, Val: markID},
		html.Attribute{Key: "class", Val: "pending-highlight"},
	)
	if _, err := c.surf.WrapRange(r, marker); err != nil {
		c.logger.Debug("Pending highlight not painted", "reason", err.Error())
	} else {
		sel.PendingMarkID = markID
	}
	return sel, nil
}

// FixedCapture receives already-normalized page selections from the PDF
// rendering surface and converts them into region anchors.
type FixedCapture struct {
	mu   sync.Mutex
	last *domain.PageSelection
}

func NewFixedCapture() *FixedCapture {
	return &FixedCapture{}
}

// Report records the selection the rendering surface produced on the user's
// last gesture.
func (c *FixedCapture) Report(sel domain.PageSelection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = &sel
}

func (c *FixedCapture) CaptureActive() (*domain.TextSelection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil || len(c.last.LineRects) == 0 {
		return nil, nil
	}
	sel := &domain.TextSelection{
		Text: c.last.Text,
		RegionAnchor: &domain.RegionAnchor{
			PageNumber: c.last.PageNumber,
			Bounds:     UnionRects(c.last.LineRects),
			Rects:      c.last.LineRects,
		},
	}
	c.last = nil
	return sel, nil
}

// UnionRects computes the bounding box of a set of per-line rects.
func UnionRects(rects []domain.Rect) domain.Rect {
	if len(rects) == 0 {
		return domain.Rect{}
	}
	minX, minY := rects[0].X, rects[0].Y
	maxX, maxY := rects[0].X+rects[0].Width, rects[0].Y+rects[0].Height
	for _, r := range rects[1:] {
		if r.X < minX {
			minX = r.X
		}
		if r.Y < minY {
			minY = r.Y
		}
		if r.X+r.Width > maxX {
			maxX = r.X + r.Width
		}
		if r.Y+r.Height > maxY {
			maxY = r.Y + r.Height
		}
	}
	return domain.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
