package domain

import "time"

// DocumentType is the closed set of document formats the viewer renders.
type DocumentType string

const (
	DocumentTypePDF      DocumentType = "pdf"
	DocumentTypeMarkdown DocumentType = "markdown"
	DocumentTypeHTML     DocumentType = "html"
	DocumentTypeText     DocumentType = "text"
)

// DocumentKind is the rendering strategy axis: fixed-layout documents anchor
// annotations by page region, flowed-text documents by character offset.
type DocumentKind string

const (
	KindFlowedText  DocumentKind = "flowed_text"
	KindFixedLayout DocumentKind = "fixed_layout"
)

// Kind maps a document type onto its rendering strategy. The mapping is
// decided once at document-load time; all kind-specific branching hangs off it.
func (t DocumentType) Kind() DocumentKind {
	if t == DocumentTypePDF {
		return KindFixedLayout
	}
	return KindFlowedText
}

// Document is a readable document as this subsystem sees it: metadata plus
// serialized markup content (flowed kinds) or a storage path to the binary
// stream (fixed-layout kinds). Read-only here; the engine never mutates it.
type Document struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Title        string       `json:"title"`
	DocumentType DocumentType `json:"document_type"`

	Content     string `json:"content,omitempty"`
	StoragePath string `json:"storage_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// DocumentRepository defines read operations for documents.
type DocumentRepository interface {
	GetByID(id string, token string) (*Document, error)
}

// DocumentStreamer fetches the raw binary of a fixed-layout document for
// client-side rendering.
type DocumentStreamer interface {
	Fetch(storagePath string, token string) ([]byte, error)
}

// DocumentService defines the use-case operations for documents.
type DocumentService interface {
	GetDocument(documentID string, token string) (*Document, error)
	GetDocumentFile(documentID string, token string) ([]byte, error)
}
