// Package reconcile rebuilds highlight markup from the annotation list on
// every pass. The pass is idempotent: it removes everything it previously
// inserted before re-applying, and a failure on one annotation never aborts
// the batch.
package reconcile

import (
	"sort"
	"strings"

	"doc-annotator/internal/anchor"
	"doc-annotator/internal/domain"
	"doc-annotator/internal/surface"

	"golang.org/x/net/html"
)

// SkipReason says why one annotation was not highlighted in a pass.
type SkipReason string

const (
	SkipDocumentLevel    SkipReason = "document_level"
	SkipNoTextAnchor     SkipReason = "no_text_anchor"
	SkipDegenerateAnchor SkipReason = "degenerate_anchor"
	SkipOffsetUnresolved SkipReason = "offset_unresolved"
	SkipTextNotFound     SkipReason = "text_not_found"
	SkipWrapFailed       SkipReason = "wrap_failed"
	SkipOtherPage        SkipReason = "other_page"
)

// Outcome is the per-annotation result of a pass.
type Outcome struct {
	AnnotationID string     `json:"annotation_id"`
	Highlighted  bool       `json:"highlighted"`
	Skip         SkipReason `json:"skip,omitempty"`
}

// Reconciler is the kind-specific highlight strategy.
type Reconciler interface {
	Apply(annotations []*domain.Annotation) []Outcome
}

// FlowedReconciler re-applies highlight markers over a flowed-text surface.
type FlowedReconciler struct {
	surf   *surface.Surface
	logger domain.Logger
}

func NewFlowedReconciler(surf *surface.Surface, logger domain.Logger) *FlowedReconciler {
	return &FlowedReconciler{surf: surf, logger: logger}
}

// Apply runs one full reconciliation pass: strip previous markers, then
// rebuild a marker for every annotation whose anchor still resolves. Markers
// only wrap text; the pass never adds or removes characters.
func (r *FlowedReconciler) Apply(annotations []*domain.Annotation) []Outcome {
	r.surf.RemoveMarked(surface.AttrAnnotationID)

	if len(annotations) == 0 {
		// Doubles as the clean-up path after the last annotation is deleted.
		return nil
	}

	outcomes := make([]Outcome, 0, len(annotations))
	var anchored []*domain.Annotation
	for _, a := range annotations {
		switch {
		case a.DocumentLevel():
			outcomes = append(outcomes, Outcome{AnnotationID: a.ID, Skip: SkipDocumentLevel})
		case a.TextAnchor == nil:
			outcomes = append(outcomes, Outcome{AnnotationID: a.ID, Skip: SkipNoTextAnchor})
		case a.TextAnchor.Degenerate():
			outcomes = append(outcomes, Outcome{AnnotationID: a.ID, Skip: SkipDegenerateAnchor})
		default:
			anchored = append(anchored, a)
		}
	}
	if len(anchored) == 0 {
		return outcomes
	}

	sort.Slice(anchored, func(i, j int) bool {
		return anchored[i].TextAnchor.StartOffset < anchored[j].TextAnchor.StartOffset
	})

	fullText := r.surf.Text()
	if len(fullText) == 0 || len(fullText) < anchored[0].TextAnchor.StartOffset {
		// Container text is implausibly short; the content likely has not
		// finished rendering. Skip the whole pass rather than mis-anchor.
		r.logger.Warn("Skipping highlight pass, container text too short",
			"text_length", len(fullText), "annotations", len(anchored))
		for _, a := range anchored {
			outcomes = append(outcomes, Outcome{AnnotationID: a.ID, Skip: SkipOffsetUnresolved})
		}
		return outcomes
	}

	// Descending start offset: inserting a marker for a later annotation
	// never shifts the offsets still needed for earlier ones.
	for i := len(anchored) - 1; i >= 0; i-- {
		outcomes = append(outcomes, r.applyOne(anchored[i], fullText))
	}
	return outcomes
}

// applyOne resolves, verifies and wraps a single annotation. All failures
// degrade to a skip; nothing escapes the pass.
func (r *FlowedReconciler) applyOne(a *domain.Annotation, fullText string) Outcome {
	rng, err := anchor.LocateRange(r.surf, a.TextAnchor)
	if err != nil {
		rng = nil
	}

	// Verify the stored quote still lives at the stored offsets; content may
	// have drifted since the annotation was created.
	matched := false
	if rng != nil {
		if got, err := r.surf.RangeText(rng); err == nil && got == a.Text {
			matched = true
		}
	}
	if !matched {
		idx := strings.Index(fullText, a.Text)
		if idx < 0 {
			r.logger.Debug("Annotation text not found in content", "annotation_id", a.ID)
			return Outcome{AnnotationID: a.ID, Skip: SkipTextNotFound}
		}
		relocated := &domain.TextAnchor{StartOffset: idx, EndOffset: idx + len(a.Text)}
		rng, err = anchor.LocateRange(r.surf, relocated)
		if err != nil {
			return Outcome{AnnotationID: a.ID, Skip: SkipOffsetUnresolved}
		}
	}

	marker := surface.NewMarker(
		html.Attribute{Key: surface.AttrAnnotationID, Val: a.ID},
		html.Attribute{Key: surface.AttrComment, Val: a.Comment},
		html.Attribute{Key: "class", Val: "annotation-highlight"},
	)
	if _, err := r.surf.WrapRange(rng, marker); err != nil {
		r.logger.Debug("Failed to wrap annotation range", "annotation_id", a.ID, "reason", err.Error())
		return Outcome{AnnotationID: a.ID, Skip: SkipWrapFailed}
	}
	return Outcome{AnnotationID: a.ID, Highlighted: true}
}
