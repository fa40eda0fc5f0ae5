// Package viewer owns one open document: it picks the capture and highlight
// strategies for the document's kind, wires the annotation store to the
// rendering surface, and drives reconciliation when the annotation list
// changes.
package viewer

import (
	"sync"
	"time"

	"doc-annotator/internal/domain"
	"doc-annotator/internal/navigate"
	"doc-annotator/internal/reconcile"
	"doc-annotator/internal/selection"
	"doc-annotator/internal/store"
	"doc-annotator/internal/surface"
)

// DefaultSettleDelay is the pause before the first highlight pass, so the
// pass does not race the initial content paint.
const DefaultSettleDelay = 150 * time.Millisecond

// Manager builds viewer sessions from the document and annotation backends.
type Manager struct {
	documents   domain.DocumentService
	annotations domain.AnnotationRepository
	logger      domain.Logger
	settle      time.Duration
	flash       time.Duration
}

func NewManager(
	documents domain.DocumentService,
	annotations domain.AnnotationRepository,
	logger domain.Logger,
	settle, flash time.Duration,
) *Manager {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	if flash <= 0 {
		flash = navigate.DefaultFlashDuration
	}
	return &Manager{
		documents:   documents,
		annotations: annotations,
		logger:      logger,
		settle:      settle,
		flash:       flash,
	}
}

// Session is one open document plus all engine state for it.
type Session struct {
	logger domain.Logger

	doc  *domain.Document
	kind domain.DocumentKind

	surf    *surface.Surface // flowed text only
	capture selection.Capturer
	fixed   *selection.FixedCapture     // fixed layout only
	flowRec *reconcile.FlowedReconciler // flowed text only
	pageRec *reconcile.FixedReconciler  // fixed layout only
	nav     *navigate.Navigator
	store   *store.Store

	mu          sync.Mutex
	binary      []byte // fixed-layout document bytes, released on Close
	lastApplied []*domain.Annotation
	applied     bool
	settleTimer *time.Timer
	closed      bool
}

// Open loads a document, selects the strategies for its kind, and starts the
// annotation load. A failed annotation load still returns a usable session
// (empty list) together with the error, so the UI can show a message.
func (m *Manager) Open(documentID, token string, pages navigate.PageLocator) (*Session, error) {
	doc, err := m.documents.GetDocument(documentID, token)
	if err != nil {
		return nil, err
	}

	s := &Session{
		logger: m.logger,
		doc:    doc,
		kind:   doc.DocumentType.Kind(),
	}

	switch s.kind {
	case domain.KindFixedLayout:
		binary, err := m.documents.GetDocumentFile(documentID, token)
		if err != nil {
			return nil, err
		}
		s.binary = binary
		s.fixed = selection.NewFixedCapture()
		s.capture = s.fixed
		s.pageRec = reconcile.NewFixedReconciler(m.logger)
		s.nav = navigate.NewFixed(pages, navigate.WithFlashDuration(m.flash))
		s.store = store.New(m.annotations, store.NopSurface{}, m.logger)
	default:
		surf, err := surface.Parse(doc.Content)
		if err != nil {
			return nil, err
		}
		s.surf = surf
		s.capture = selection.NewFlowedCapture(surf, m.logger)
		s.flowRec = reconcile.NewFlowedReconciler(surf, m.logger)
		s.nav = navigate.NewFlowed(surf, navigate.WithFlashDuration(m.flash))
		s.store = store.New(m.annotations, surf, m.logger)
	}

	loadErr := s.store.Load(documentID, token)

	// Settle delay before the first pass, to avoid racing the initial paint.
	s.settleTimer = time.AfterFunc(m.settle, func() {
		s.Reconcile()
	})
	return s, loadErr
}

// Document returns the open document (read-only to the engine).
func (s *Session) Document() *domain.Document { return s.doc }

// Kind returns the rendering strategy chosen at load time.
func (s *Session) Kind() domain.DocumentKind { return s.kind }

// Store exposes the annotation store to the surrounding UI.
func (s *Session) Store() *store.Store { return s.store }

// Navigator exposes the cross-view navigation callbacks.
func (s *Session) Navigator() *navigate.Navigator { return s.nav }

// Surface exposes the content surface of a flowed-text session, nil otherwise.
func (s *Session) Surface() *surface.Surface { return s.surf }

// Binary returns the fixed-layout document bytes for client-side rendering.
func (s *Session) Binary() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.binary
}

// CaptureSelection reads the active selection and, when it is anchorable,
// installs it as the store's pending selection. Called from pointer-up and
// key-up on the content container. An empty selection is a no-op.
func (s *Session) CaptureSelection() error {
	sel, err := s.capture.CaptureActive()
	if err != nil {
		return err
	}
	if sel == nil {
		return nil
	}
	s.store.BeginSelection(sel)
	return nil
}

// ReportPageSelection feeds a normalized page selection from the PDF
// rendering surface into the fixed-layout capture strategy.
func (s *Session) ReportPageSelection(sel domain.PageSelection) {
	if s.fixed != nil {
		s.fixed.Report(sel)
	}
}

// SetViewport updates the visible page geometry of a fixed-layout session and
// rebuilds its overlay.
func (s *Session) SetViewport(vp reconcile.Viewport) []reconcile.Outcome {
	if s.pageRec == nil {
		return nil
	}
	s.pageRec.SetViewport(vp)
	return s.Reconcile()
}

// Overlay returns the current overlay boxes of a fixed-layout session.
func (s *Session) Overlay() []reconcile.OverlayBox {
	if s.pageRec == nil {
		return nil
	}
	return s.pageRec.Overlay()
}

// Reconcile runs a full highlight pass against the store's current list.
func (s *Session) Reconcile() []reconcile.Outcome {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	list := s.store.List()
	s.lastApplied = list
	s.applied = true
	s.mu.Unlock()

	if s.pageRec != nil {
		return s.pageRec.Apply(list)
	}
	return s.flowRec.Apply(list)
}

// ReconcileIfChanged runs a pass only when the annotation list reference has
// changed since the last pass. The store installs a fresh slice on every
// mutation, so this is the cheap change check.
func (s *Session) ReconcileIfChanged() ([]reconcile.Outcome, bool) {
	s.mu.Lock()
	list := s.store.List()
	unchanged := s.applied && sameList(list, s.lastApplied)
	s.mu.Unlock()
	if unchanged {
		return nil, false
	}
	return s.Reconcile(), true
}

// Rendered serializes the flowed-text content with its current highlight
// markup. Fixed-layout sessions have no markup form.
func (s *Session) Rendered() (string, error) {
	if s.surf == nil {
		return "", domain.ErrNoRenderedForm
	}
	return s.surf.Render()
}

// Close tears the session down: in-flight loads are invalidated so stale
// results are discarded, emphasis timers stop, and the binary buffer is
// released.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.settleTimer != nil {
		s.settleTimer.Stop()
	}
	s.binary = nil
	s.mu.Unlock()

	s.store.Invalidate()
	s.nav.StopFlashes()
}

func sameList(a, b []*domain.Annotation) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}
