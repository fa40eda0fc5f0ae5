package service

import (
	"doc-annotator/internal/domain"
)

type DocumentService struct {
	repo     domain.DocumentRepository
	streamer domain.DocumentStreamer
	logger   domain.Logger
}

func NewDocumentService(
	repo domain.DocumentRepository,
	streamer domain.DocumentStreamer,
	logger domain.Logger,
) domain.DocumentService {
	return &DocumentService{
		repo:     repo,
		streamer: streamer,
		logger:   logger,
	}
}

func (s *DocumentService) GetDocument(documentID string, token string) (*domain.Document, error) {
	if documentID == "" {
		return nil, domain.ErrDocumentNotFound
	}
	return s.repo.GetByID(documentID, token)
}

// GetDocumentFile returns the raw binary of a fixed-layout document.
func (s *DocumentService) GetDocumentFile(documentID string, token string) ([]byte, error) {
	doc, err := s.repo.GetByID(documentID, token)
	if err != nil {
		return nil, err
	}
	if doc.DocumentType.Kind() != domain.KindFixedLayout || doc.StoragePath == "" {
		return nil, domain.ErrDocumentNotFound
	}
	data, err := s.streamer.Fetch(doc.StoragePath, token)
	if err != nil {
		s.logger.Error("Failed to fetch document binary", err, "document_id", documentID)
		return nil, err
	}
	return data, nil
}
