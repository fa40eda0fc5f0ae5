package store

import (
	"errors"
	"fmt"
	"testing"

	"doc-annotator/internal/domain"
)

type testLogger struct{}

func (testLogger) Info(msg string, fields ...interface{})             {}
func (testLogger) Error(msg string, err error, fields ...interface{}) {}
func (testLogger) Debug(msg string, fields ...interface{})            {}
func (testLogger) Warn(msg string, fields ...interface{})             {}

// mockRepo is a scriptable AnnotationRepository. onList runs inside
// ListByDocument, before the result is returned, so tests can interleave
// store calls with an in-flight load.
type mockRepo struct {
	listResult []*domain.Annotation
	listErr    error
	createErr  error
	deleteErr  error
	onList     func()

	created []*domain.Annotation
	deleted []string
	nextID  int
}

func (m *mockRepo) Create(a *domain.Annotation, token string) (*domain.Annotation, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	created := *a
	created.ID = fmt.Sprintf("srv-%d", m.nextID)
	m.created = append(m.created, &created)
	return &created, nil
}

func (m *mockRepo) ListByDocument(documentID string, pageNumber *int, token string) ([]*domain.Annotation, error) {
	if m.onList != nil {
		m.onList()
	}
	return m.listResult, m.listErr
}

func (m *mockRepo) Delete(id, token string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockSurface struct {
	cleared      int
	removedMarks []string
}

func (m *mockSurface) ClearActiveSelection() { m.cleared++ }
func (m *mockSurface) RemovePendingMark(id string) {
	m.removedMarks = append(m.removedMarks, id)
}

func textSelection(text string, start, end int) *domain.TextSelection {
	return &domain.TextSelection{
		Text:       text,
		TextAnchor: &domain.TextAnchor{StartOffset: start, EndOffset: end},
	}
}

func TestLoadReplacesList(t *testing.T) {
	repo := &mockRepo{listResult: []*domain.Annotation{{ID: "a1"}, {ID: "a2"}}}
	s := New(repo, nil, testLogger{})

	if err := s.Load("doc-1", "token"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(s.List()) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(s.List()))
	}
	if s.Loading() {
		t.Fatal("loading flag stuck")
	}
}

func TestLoadFailureYieldsEmptyListAndError(t *testing.T) {
	repo := &mockRepo{listErr: errors.New("network down")}
	s := New(repo, nil, testLogger{})

	if err := s.Load("doc-1", "token"); err == nil {
		t.Fatal("expected load error")
	}
	if len(s.List()) != 0 {
		t.Fatal("failed load must leave an empty list")
	}
	if s.Loading() {
		t.Fatal("loading flag stuck after failure")
	}
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	repo := &mockRepo{listResult: []*domain.Annotation{{ID: "stale"}}}
	s := New(repo, nil, testLogger{})

	// The document is switched away while the fetch is in flight.
	repo.onList = func() { s.Invalidate() }

	if err := s.Load("doc-1", "token"); err != nil {
		t.Fatalf("Load returned error for discarded result: %v", err)
	}
	if len(s.List()) != 0 {
		t.Fatal("stale load result was applied")
	}
}

func TestCreateRequiresPendingSelection(t *testing.T) {
	s := New(&mockRepo{}, nil, testLogger{})

	_, err := s.Create("a comment", "token")
	if !errors.Is(err, domain.ErrNoPendingSelection) {
		t.Fatalf("expected ErrNoPendingSelection, got %v", err)
	}
}

func TestCreateAppendsServerRecordAndClearsSelection(t *testing.T) {
	repo := &mockRepo{}
	surf := &mockSurface{}
	s := New(repo, surf, testLogger{})
	if err := s.Load("doc-1", "token"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	sel := textSelection("quick", 4, 9)
	sel.PendingMarkID = "tmp-1"
	s.BeginSelection(sel)
	if s.Phase() != PhaseSelectionPending {
		t.Fatalf("expected selection_pending, got %s", s.Phase())
	}

	created, err := s.Create("a comment", "token")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("server-assigned id missing")
	}
	if created.DocumentID != "doc-1" {
		t.Fatalf("wrong document id: %s", created.DocumentID)
	}

	list := s.List()
	if len(list) != 1 || list[0] != created {
		t.Fatalf("server record not appended: %+v", list)
	}
	if s.Phase() != PhaseIdle || s.Pending() != nil {
		t.Fatal("pending state not cleared after commit")
	}
	if surf.cleared != 1 {
		t.Fatal("native selection not cleared")
	}
	if len(surf.removedMarks) != 1 || surf.removedMarks[0] != "tmp-1" {
		t.Fatalf("pending mark not unpainted: %v", surf.removedMarks)
	}
}

func TestCreateFailureKeepsPendingForRetry(t *testing.T) {
	repo := &mockRepo{createErr: errors.New("server rejected")}
	surf := &mockSurface{}
	s := New(repo, surf, testLogger{})

	s.BeginSelection(textSelection("quick", 4, 9))
	_, err := s.Create("a comment", "token")
	if err == nil {
		t.Fatal("expected create error")
	}
	if s.Phase() != PhaseSelectionPending || s.Pending() == nil {
		t.Fatal("failed create must keep the pending selection")
	}
	if len(s.List()) != 0 {
		t.Fatal("nothing should be appended on failure")
	}
	if surf.cleared != 0 {
		t.Fatal("selection must stay painted for retry")
	}
}

func TestCreateRejectsConcurrentSubmit(t *testing.T) {
	blocking := &blockingRepo{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := New(blocking, nil, testLogger{})
	s.BeginSelection(textSelection("quick", 4, 9))

	// A second submit arriving while the first is at the server must bounce.
	done := make(chan struct{})
	go func() {
		_, _ = s.Create("first", "token")
		close(done)
	}()
	<-blocking.entered
	_, second := s.Create("second", "token")
	close(blocking.release)
	<-done

	if !errors.Is(second, domain.ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", second)
	}
}

type blockingRepo struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingRepo) Create(a *domain.Annotation, token string) (*domain.Annotation, error) {
	close(b.entered)
	<-b.release
	created := *a
	created.ID = "srv-1"
	return &created, nil
}

func (b *blockingRepo) ListByDocument(string, *int, string) ([]*domain.Annotation, error) {
	return nil, nil
}

func (b *blockingRepo) Delete(string, string) error { return nil }

func TestDocumentCommentUsesSentinelWithoutAnchor(t *testing.T) {
	repo := &mockRepo{}
	s := New(repo, nil, testLogger{})
	if err := s.Load("doc-1", "token"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	s.BeginDocumentComment()
	created, err := s.Create("overall impression", "token")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Text != domain.DocumentLevelComment {
		t.Fatalf("expected sentinel text, got %q", created.Text)
	}
	if created.TextAnchor != nil || created.RegionAnchor != nil {
		t.Fatal("document comment must carry no anchor")
	}
}

func TestBeginSelectionReplacesPreviousPendingMark(t *testing.T) {
	surf := &mockSurface{}
	s := New(&mockRepo{}, surf, testLogger{})

	first := textSelection("quick", 4, 9)
	first.PendingMarkID = "tmp-1"
	s.BeginSelection(first)

	second := textSelection("brown", 10, 15)
	second.PendingMarkID = "tmp-2"
	s.BeginSelection(second)

	if len(surf.removedMarks) != 1 || surf.removedMarks[0] != "tmp-1" {
		t.Fatalf("previous pending mark not unpainted: %v", surf.removedMarks)
	}
	if s.Pending() != second {
		t.Fatal("new selection not installed")
	}
}

func TestDeleteRemovesOnlyAfterServerConfirms(t *testing.T) {
	repo := &mockRepo{listResult: []*domain.Annotation{{ID: "a1"}, {ID: "a2"}}}
	s := New(repo, nil, testLogger{})
	if err := s.Load("doc-1", "token"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := s.Delete("a1", "token"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	list := s.List()
	if len(list) != 1 || list[0].ID != "a2" {
		t.Fatalf("unexpected list after delete: %+v", list)
	}
}

func TestDeleteFailureKeepsRecord(t *testing.T) {
	repo := &mockRepo{
		listResult: []*domain.Annotation{{ID: "a1"}},
		deleteErr:  errors.New("forbidden"),
	}
	s := New(repo, nil, testLogger{})
	if err := s.Load("doc-1", "token"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := s.Delete("a1", "token"); err == nil {
		t.Fatal("expected delete error")
	}
	if len(s.List()) != 1 {
		t.Fatal("failed delete must keep the annotation")
	}
}

func TestDeleteUnknownAnnotation(t *testing.T) {
	s := New(&mockRepo{}, nil, testLogger{})
	if err := s.Delete("ghost", "token"); !errors.Is(err, domain.ErrAnnotationNotFound) {
		t.Fatalf("expected ErrAnnotationNotFound, got %v", err)
	}
}

func TestEveryMutationInstallsFreshSlice(t *testing.T) {
	repo := &mockRepo{listResult: []*domain.Annotation{{ID: "a1"}}}
	s := New(repo, nil, testLogger{})
	if err := s.Load("doc-1", "token"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	before := s.List()
	s.BeginSelection(textSelection("quick", 4, 9))
	if _, err := s.Create("a comment", "token"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	after := s.List()

	if len(before) != 1 || len(after) != 2 {
		t.Fatalf("unexpected lengths: %d then %d", len(before), len(after))
	}
	if &before[0] == &after[0] {
		t.Fatal("mutation reused the previous backing array")
	}
}

func TestCancelDiscardsPendingState(t *testing.T) {
	surf := &mockSurface{}
	s := New(&mockRepo{}, surf, testLogger{})

	sel := textSelection("quick", 4, 9)
	sel.PendingMarkID = "tmp-1"
	s.BeginSelection(sel)
	s.Cancel()

	if s.Pending() != nil || s.Phase() != PhaseIdle {
		t.Fatal("cancel did not reset pending state")
	}
	if len(surf.removedMarks) != 1 || surf.removedMarks[0] != "tmp-1" {
		t.Fatal("cancel did not unpaint the pending mark")
	}
	if surf.cleared != 1 {
		t.Fatal("cancel did not clear the native selection")
	}
}
