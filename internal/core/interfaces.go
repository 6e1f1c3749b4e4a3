package core

import (
	"context"
	"io"

	"github.com/markdave123-py/intellidoc/internal/models"
)

// RecordStore defines all document persistence operations the core needs.
// It abstracts Postgres so higher layers never depend on a specific DB.
// Implementations must serialize update/delete pairs for the same document id
// (row locks in Postgres, a per-document mutex in the memory store) so that a
// delete's index cleanup cannot interleave with an in-flight processed-write.
type RecordStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id, ownerID string) (*models.Document, error)
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, ownerID string, skip, limit int) ([]models.Document, error)
	UpdateDocumentStatus(ctx context.Context, id, status string) error
	UpdateDocumentProcessed(ctx context.Context, id string, upd *models.DocumentUpdate) error
	DeleteDocument(ctx context.Context, id, ownerID string) (bool, error)
	CountDocuments(ctx context.Context, ownerID string) (total, processed int, err error)
	CategoryCounts(ctx context.Context, ownerID string) (map[string]int, error)

	CreateAnalysis(ctx context.Context, a *models.DocumentAnalysis) error
	ListAnalyses(ctx context.Context, documentID string) ([]models.DocumentAnalysis, error)

	Close() error
}

// Extraction is the outcome of pulling text out of an uploaded file.
type Extraction struct {
	Text string
	Meta map[string]string
}

// DocumentExtractor turns raw file bytes into plain text. The mime type hint
// selects the parsing strategy; types outside the allow-list return
// ErrUnsupportedType.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, data []byte, mimeType string) (*Extraction, error)
}

// ObjectStore holds the uploaded originals (S3 in production, local disk in
// dev). Keys are owner-scoped paths chosen by the caller.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	GetReader(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
