package repository

import (
	"encoding/json"
	"fmt"

	"doc-annotator/internal/domain"
)

// SupabaseDocumentRepository implements the domain.DocumentRepository interface
type SupabaseDocumentRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseDocumentRepository creates a new Supabase document repository
func NewSupabaseDocumentRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.DocumentRepository {
	return &SupabaseDocumentRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// GetByID retrieves one document, under the caller's row-level security.
func (r *SupabaseDocumentRepository) GetByID(id string, token string) (*domain.Document, error) {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to get client with token: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From("documents").
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	var documents []map[string]interface{}
	if err := json.Unmarshal(data, &documents); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(documents) == 0 {
		return nil, domain.ErrDocumentNotFound
	}

	return mapToDocument(documents[0]), nil
}

func mapToDocument(data map[string]interface{}) *domain.Document {
	return &domain.Document{
		ID:           getString(data, "id"),
		UserID:       getString(data, "user_id"),
		Title:        getString(data, "title"),
		DocumentType: domain.DocumentType(getString(data, "document_type")),
		Content:      getString(data, "content"),
		StoragePath:  getString(data, "storage_path"),
	}
}
