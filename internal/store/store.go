// Package store owns the authoritative in-memory annotation list for the
// currently open document, the pending-selection state machine, and the calls
// to the remote annotation API.
package store

import (
	"sync"

	"doc-annotator/internal/domain"
)

// Phase is the create-flow state. Loading runs on an independent axis.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseSelectionPending Phase = "selection_pending"
	PhaseSubmitting       Phase = "submitting"
)

// PendingSurface is the slice of the rendering surface the store needs to
// clean up selection state after a commit or cancel.
type PendingSurface interface {
	ClearActiveSelection()
	RemovePendingMark(id string)
}

// NopSurface satisfies PendingSurface for document kinds with no temporary
// highlight markup (fixed layout).
type NopSurface struct{}

func (NopSurface) ClearActiveSelection()    {}
func (NopSurface) RemovePendingMark(string) {}

// Store is the annotation store for one open document. The list it holds is
// immutable per update: every mutation installs a fresh slice, so "did the
// list change" is a reference comparison for the reconciler.
type Store struct {
	repo   domain.AnnotationRepository
	surf   PendingSurface
	logger domain.Logger

	mu          sync.Mutex
	documentID  string
	annotations []*domain.Annotation
	pending     *domain.TextSelection
	phase       Phase
	loading     bool
	loadGen     uint64
}

func New(repo domain.AnnotationRepository, surf PendingSurface, logger domain.Logger) *Store {
	if surf == nil {
		surf = NopSurface{}
	}
	return &Store{
		repo:        repo,
		surf:        surf,
		logger:      logger,
		annotations: []*domain.Annotation{},
		phase:       PhaseIdle,
	}
}

// List returns the current annotation list. Callers must treat it as
// read-only; the store never mutates a slice it has handed out.
func (s *Store) List() []*domain.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.annotations
}

// Phase returns the create-flow state.
func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Loading reports whether a bulk load is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Pending returns the current pending selection, or nil.
func (s *Store) Pending() *domain.TextSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Load replaces the annotation list with the given document's annotations.
// The current list is cleared before the fetch so a fast document switch
// never shows a mix of two documents. A load superseded by a newer one (or by
// Close) discards its result on arrival instead of applying it.
func (s *Store) Load(documentID, token string) error {
	s.mu.Lock()
	s.loadGen++
	gen := s.loadGen
	s.documentID = documentID
	s.annotations = []*domain.Annotation{}
	s.loading = true
	s.mu.Unlock()

	list, err := s.repo.ListByDocument(documentID, nil, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		// A newer load (or a document switch) won; this result is stale.
		s.logger.Debug("Discarding stale annotation load", "document_id", documentID)
		return nil
	}
	s.loading = false
	if err != nil {
		s.annotations = []*domain.Annotation{}
		s.logger.Error("Failed to load annotations", err, "document_id", documentID)
		return err
	}
	if list == nil {
		list = []*domain.Annotation{}
	}
	s.annotations = list
	return nil
}

// Invalidate supersedes any in-flight load, so its result is dropped on
// arrival. Called when the document is navigated away from.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadGen++
	s.loading = false
}

// BeginSelection installs a captured selection as the pending one, replacing
// (and unpainting) any previous pending selection.
func (s *Store) BeginSelection(sel *domain.TextSelection) {
	s.mu.Lock()
	prev := s.pending
	s.pending = sel
	if sel != nil {
		s.phase = PhaseSelectionPending
	} else if s.phase == PhaseSelectionPending {
		s.phase = PhaseIdle
	}
	s.mu.Unlock()

	if prev != nil && prev.PendingMarkID != "" {
		s.surf.RemovePendingMark(prev.PendingMarkID)
	}
}

// BeginDocumentComment opens the pending state for a comment on the document
// as a whole, with the no-op anchor.
func (s *Store) BeginDocumentComment() {
	s.BeginSelection(&domain.TextSelection{Text: domain.DocumentLevelComment})
}

// Create persists the pending selection plus the user's comment as a new
// annotation. On success the server's record (assigned id, echoed anchor) is
// appended, and both the pending selection and the native selection are
// cleared. On failure the pending selection stays so the user can retry.
func (s *Store) Create(comment, token string) (*domain.Annotation, error) {
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return nil, domain.ErrNoPendingSelection
	}
	if s.phase == PhaseSubmitting {
		s.mu.Unlock()
		return nil, domain.ErrSubmitInFlight
	}
	pending := s.pending
	documentID := s.documentID
	s.phase = PhaseSubmitting
	s.mu.Unlock()

	text := pending.Text
	if text == "" || pending.DocumentLevel() {
		text = domain.DocumentLevelComment
	}
	ann := &domain.Annotation{
		DocumentID:   documentID,
		Text:         text,
		Comment:      comment,
		TextAnchor:   pending.TextAnchor,
		RegionAnchor: pending.RegionAnchor,
	}
	if text == domain.DocumentLevelComment {
		ann.TextAnchor = nil
		ann.RegionAnchor = nil
	}

	created, err := s.repo.Create(ann, token)

	s.mu.Lock()
	if err != nil {
		// Back to SelectionPending: the form stays open for a retry.
		s.phase = PhaseSelectionPending
		s.mu.Unlock()
		return nil, err
	}
	next := make([]*domain.Annotation, 0, len(s.annotations)+1)
	next = append(next, s.annotations...)
	next = append(next, created)
	s.annotations = next
	s.pending = nil
	s.phase = PhaseIdle
	s.mu.Unlock()

	if pending.PendingMarkID != "" {
		s.surf.RemovePendingMark(pending.PendingMarkID)
	}
	s.surf.ClearActiveSelection()
	return created, nil
}

// Delete removes an annotation, locally only after the server confirms. A
// failed delete keeps the annotation in the list and surfaces the error.
func (s *Store) Delete(id, token string) error {
	s.mu.Lock()
	found := false
	for _, a := range s.annotations {
		if a.ID == id {
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return domain.ErrAnnotationNotFound
	}

	if err := s.repo.Delete(id, token); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]*domain.Annotation, 0, len(s.annotations))
	for _, a := range s.annotations {
		if a.ID != id {
			next = append(next, a)
		}
	}
	s.annotations = next
	return nil
}

// Cancel discards the pending selection and its temporary highlight without
// touching the server.
func (s *Store) Cancel() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	if s.phase != PhaseSubmitting {
		s.phase = PhaseIdle
	}
	s.mu.Unlock()

	if pending != nil && pending.PendingMarkID != "" {
		s.surf.RemovePendingMark(pending.PendingMarkID)
	}
	s.surf.ClearActiveSelection()
}
