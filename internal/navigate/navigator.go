// Package navigate links rendered highlights and the sidebar annotation list
// in both directions. It never mutates annotation data; its output is scroll
// targets plus a purely presentational flash that clears itself.
package navigate

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"doc-annotator/internal/domain"
	"doc-annotator/internal/surface"
)

// DefaultFlashDuration is how long the emphasis animation stays on a target.
const DefaultFlashDuration = 2 * time.Second

var ErrTargetNotFound = errors.New("navigation target not found")

// ScrollCommand tells the rendering host what to scroll into the viewport.
type ScrollCommand struct {
	Target string `json:"target"`
	Flash  bool   `json:"flash"`
}

// PageLocator resolves rendered page containers of a fixed-layout document.
type PageLocator interface {
	// ElementByID reports whether an element with the given id is rendered.
	ElementByID(id string) bool
	// PageAtIndex returns a target reference for the i-th rendered page
	// container, the positional fallback when no id strategy matches.
	PageAtIndex(i int) (string, bool)
}

// Navigator holds the lookups for one open document. For flowed text it
// resolves highlights through the content surface; for fixed layout through a
// page locator.
type Navigator struct {
	surf     *surface.Surface
	pages    PageLocator
	flashFor time.Duration

	mu      sync.Mutex
	flashed map[string]*time.Timer
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithFlashDuration overrides the emphasis duration.
func WithFlashDuration(d time.Duration) Option {
	return func(n *Navigator) {
		if d > 0 {
			n.flashFor = d
		}
	}
}

// NewFlowed builds a navigator for a flowed-text document.
func NewFlowed(surf *surface.Surface, opts ...Option) *Navigator {
	n := &Navigator{surf: surf, flashFor: DefaultFlashDuration, flashed: make(map[string]*time.Timer)}
	for _, o := range opts {
		o(n)
	}
	return n
}

// NewFixed builds a navigator for a fixed-layout document.
func NewFixed(pages PageLocator, opts ...Option) *Navigator {
	n := &Navigator{pages: pages, flashFor: DefaultFlashDuration, flashed: make(map[string]*time.Timer)}
	for _, o := range opts {
		o(n)
	}
	return n
}

// HighlightClicked handles a click on a rendered highlight or overlay box:
// scroll the matching sidebar card into view and flash it.
func (n *Navigator) HighlightClicked(annotationID string) ScrollCommand {
	target := SidebarCardID(annotationID)
	n.flash(target)
	return ScrollCommand{Target: target, Flash: true}
}

// EntryClicked handles a click on a sidebar entry: scroll to the matching
// highlight (flowed text) or to the annotation's page (fixed layout).
func (n *Navigator) EntryClicked(a *domain.Annotation) (ScrollCommand, error) {
	if a.RegionAnchor != nil && n.pages != nil {
		return n.scrollToPage(a.RegionAnchor.PageNumber)
	}
	if n.surf == nil {
		return ScrollCommand{}, ErrTargetNotFound
	}
	if n.surf.QueryByAnnotationID(a.ID) == nil {
		// Annotation is listed but its highlight could not be painted.
		return ScrollCommand{}, ErrTargetNotFound
	}
	target := HighlightSelector(a.ID)
	n.flash(target)
	return ScrollCommand{Target: target, Flash: true}, nil
}

// scrollToPage tries the id naming conventions rendered page containers use,
// then falls back to positional indexing among them.
func (n *Navigator) scrollToPage(pageNumber int) (ScrollCommand, error) {
	for _, id := range []string{
		fmt.Sprintf("page-%d", pageNumber),
		fmt.Sprintf("pdf-page-%d", pageNumber),
		fmt.Sprintf("page-container-%d", pageNumber),
	} {
		if n.pages.ElementByID(id) {
			return ScrollCommand{Target: "#" + id}, nil
		}
	}
	if target, ok := n.pages.PageAtIndex(pageNumber - 1); ok {
		return ScrollCommand{Target: target}, nil
	}
	return ScrollCommand{}, ErrTargetNotFound
}

// FlashActive reports whether a target's emphasis is currently showing.
func (n *Navigator) FlashActive(target string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.flashed[target]
	return ok
}

// StopFlashes cancels all pending emphasis timers (on unmount).
func (n *Navigator) StopFlashes() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for target, t := range n.flashed {
		t.Stop()
		delete(n.flashed, target)
	}
}

func (n *Navigator) flash(target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t, ok := n.flashed[target]; ok {
		t.Stop()
	}
	n.flashed[target] = time.AfterFunc(n.flashFor, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.flashed, target)
	})
}

// SidebarCardID names the sidebar card element for an annotation.
func SidebarCardID(annotationID string) string {
	return "#annotation-card-" + annotationID
}

// HighlightSelector names the rendered highlight element for an annotation.
func HighlightSelector(annotationID string) string {
	return fmt.Sprintf("[%s=%q]", surface.AttrAnnotationID, annotationID)
}
