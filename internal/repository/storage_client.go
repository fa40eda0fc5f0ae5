package repository

import (
	"fmt"
	"io"
	"net/http"

	"doc-annotator/internal/domain"
	apperrors "doc-annotator/pkg/errors"
)

// StorageClient fetches document binaries from Supabase Storage over
// authenticated HTTP, for client-side rendering of fixed-layout documents.
type StorageClient struct {
	baseURL string
	logger  domain.Logger
}

func NewStorageClient(config domain.Config, logger domain.Logger) domain.DocumentStreamer {
	return &StorageClient{
		baseURL: config.GetSupabaseURL(),
		logger:  logger,
	}
}

// Fetch downloads the binary at the given storage path using the caller's
// token, so storage policies apply.
func (s *StorageClient) Fetch(storagePath string, token string) ([]byte, error) {
	req, err := http.NewRequest(
		http.MethodGet,
		s.baseURL+"/storage/v1/object/"+storagePath,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build storage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("storage fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrDocumentNotFound
	}
	if resp.StatusCode >= 300 {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("storage fetch failed: status %d", resp.StatusCode), nil)
	}
	return io.ReadAll(resp.Body)
}
