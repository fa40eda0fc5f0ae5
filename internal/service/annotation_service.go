package service

import (
	"doc-annotator/internal/domain"
)

type AnnotationService struct {
	repo   domain.AnnotationRepository
	logger domain.Logger
}

func NewAnnotationService(repo domain.AnnotationRepository, logger domain.Logger) domain.AnnotationService {
	return &AnnotationService{
		repo:   repo,
		logger: logger,
	}
}

func (s *AnnotationService) CreateAnnotation(userName string, annotation *domain.Annotation, token string) (*domain.Annotation, error) {
	if annotation == nil {
		return nil, domain.ErrInvalidAnchor
	}
	annotation.Author = userName
	if annotation.Text == "" {
		// An empty selection is a comment on the document as a whole.
		annotation.Text = domain.DocumentLevelComment
		annotation.TextAnchor = nil
		annotation.RegionAnchor = nil
	}
	if !annotation.DocumentLevel() {
		if err := annotation.Validate(); err != nil {
			return nil, err
		}
	} else if annotation.DocumentID == "" {
		return nil, domain.ErrInvalidAnchor
	}

	created, err := s.repo.Create(annotation, token)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Annotation created",
		"document_id", annotation.DocumentID, "annotation_id", created.ID, "author", userName)
	return created, nil
}

func (s *AnnotationService) ListAnnotations(documentID string, pageNumber *int, token string) ([]*domain.Annotation, error) {
	return s.repo.ListByDocument(documentID, pageNumber, token)
}

func (s *AnnotationService) DeleteAnnotation(annotationID string, token string) error {
	if annotationID == "" {
		return domain.ErrAnnotationNotFound
	}
	return s.repo.Delete(annotationID, token)
}
