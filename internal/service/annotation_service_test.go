package service

import (
	"errors"
	"testing"

	"doc-annotator/internal/domain"
)

type testLogger struct{}

func (testLogger) Info(msg string, fields ...interface{})             {}
func (testLogger) Error(msg string, err error, fields ...interface{}) {}
func (testLogger) Debug(msg string, fields ...interface{})            {}
func (testLogger) Warn(msg string, fields ...interface{})             {}

type mockAnnotationRepo struct {
	created   *domain.Annotation
	createErr error
	list      []*domain.Annotation
	listErr   error
	deleted   []string
	deleteErr error

	lastPageNumber *int
}

func (m *mockAnnotationRepo) Create(a *domain.Annotation, token string) (*domain.Annotation, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	created := *a
	created.ID = "srv-1"
	m.created = &created
	return &created, nil
}

func (m *mockAnnotationRepo) ListByDocument(documentID string, pageNumber *int, token string) ([]*domain.Annotation, error) {
	m.lastPageNumber = pageNumber
	return m.list, m.listErr
}

func (m *mockAnnotationRepo) Delete(id, token string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func TestCreateAnnotationStampsAuthor(t *testing.T) {
	repo := &mockAnnotationRepo{}
	svc := NewAnnotationService(repo, testLogger{})

	created, err := svc.CreateAnnotation("Ada", &domain.Annotation{
		DocumentID: "doc-1",
		Text:       "quick",
		Comment:    "a comment",
		TextAnchor: &domain.TextAnchor{StartOffset: 4, EndOffset: 9},
	}, "token")
	if err != nil {
		t.Fatalf("CreateAnnotation failed: %v", err)
	}
	if created.ID != "srv-1" {
		t.Fatal("server record not returned")
	}
	if created.Author != "Ada" {
		t.Fatalf("author not stamped: %q", created.Author)
	}
}

func TestCreateAnnotationEmptyTextBecomesDocumentComment(t *testing.T) {
	repo := &mockAnnotationRepo{}
	svc := NewAnnotationService(repo, testLogger{})

	created, err := svc.CreateAnnotation("Ada", &domain.Annotation{
		DocumentID: "doc-1",
		Comment:    "overall impression",
		TextAnchor: &domain.TextAnchor{StartOffset: 4, EndOffset: 9},
	}, "token")
	if err != nil {
		t.Fatalf("CreateAnnotation failed: %v", err)
	}
	if created.Text != domain.DocumentLevelComment {
		t.Fatalf("expected sentinel text, got %q", created.Text)
	}
	if created.TextAnchor != nil || created.RegionAnchor != nil {
		t.Fatal("document comment must drop its anchor")
	}
}

func TestCreateAnnotationRejectsBothAnchors(t *testing.T) {
	svc := NewAnnotationService(&mockAnnotationRepo{}, testLogger{})

	_, err := svc.CreateAnnotation("Ada", &domain.Annotation{
		DocumentID:   "doc-1",
		Text:         "quick",
		TextAnchor:   &domain.TextAnchor{StartOffset: 4, EndOffset: 9},
		RegionAnchor: &domain.RegionAnchor{PageNumber: 1},
	}, "token")
	if !errors.Is(err, domain.ErrInvalidAnchor) {
		t.Fatalf("expected ErrInvalidAnchor, got %v", err)
	}
}

func TestCreateAnnotationRejectsMissingDocument(t *testing.T) {
	svc := NewAnnotationService(&mockAnnotationRepo{}, testLogger{})

	_, err := svc.CreateAnnotation("Ada", &domain.Annotation{
		Text:       "quick",
		TextAnchor: &domain.TextAnchor{StartOffset: 4, EndOffset: 9},
	}, "token")
	if !errors.Is(err, domain.ErrInvalidAnchor) {
		t.Fatalf("expected ErrInvalidAnchor, got %v", err)
	}
}

func TestCreateAnnotationRejectsInvertedOffsets(t *testing.T) {
	svc := NewAnnotationService(&mockAnnotationRepo{}, testLogger{})

	_, err := svc.CreateAnnotation("Ada", &domain.Annotation{
		DocumentID: "doc-1",
		Text:       "quick",
		TextAnchor: &domain.TextAnchor{StartOffset: 9, EndOffset: 4},
	}, "token")
	if !errors.Is(err, domain.ErrInvalidAnchor) {
		t.Fatalf("expected ErrInvalidAnchor, got %v", err)
	}
}

func TestListAnnotationsForwardsPageFilter(t *testing.T) {
	repo := &mockAnnotationRepo{list: []*domain.Annotation{{ID: "a1"}}}
	svc := NewAnnotationService(repo, testLogger{})

	page := 3
	list, err := svc.ListAnnotations("doc-1", &page, "token")
	if err != nil {
		t.Fatalf("ListAnnotations failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 annotation, got %d", len(list))
	}
	if repo.lastPageNumber == nil || *repo.lastPageNumber != 3 {
		t.Fatal("page filter not forwarded to repository")
	}
}

func TestDeleteAnnotation(t *testing.T) {
	repo := &mockAnnotationRepo{}
	svc := NewAnnotationService(repo, testLogger{})

	if err := svc.DeleteAnnotation("a1", "token"); err != nil {
		t.Fatalf("DeleteAnnotation failed: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "a1" {
		t.Fatalf("delete not forwarded: %v", repo.deleted)
	}

	if err := svc.DeleteAnnotation("", "token"); !errors.Is(err, domain.ErrAnnotationNotFound) {
		t.Fatalf("expected ErrAnnotationNotFound for empty id, got %v", err)
	}
}
