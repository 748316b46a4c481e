package interfaces

import (
	"context"
	"errors"

	"github.com/lexhold/lexhold/internal/models"
)

// Sentinel storage errors. ErrDuplicateDocument is the uniqueness backstop
// for concurrent ingestion of identical content: the caller resolves it by
// re-querying for the now-existing document, not by failing the request.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateDocument = errors.New("current document with identical hash already exists in matter")
)

// DocumentStorage persists live document rows
type DocumentStorage interface {
	// GetDocument returns a document by id, ErrNotFound when absent
	GetDocument(ctx context.Context, id string) (*models.Document, error)

	// InsertCurrentUnique inserts a new current-version document. The
	// existence check for another current document with the same
	// (matter, sha256) pair and the insert happen in one transaction;
	// a conflict returns ErrDuplicateDocument and writes nothing.
	InsertCurrentUnique(ctx context.Context, doc *models.Document) error

	// UpdateDocument overwrites an existing document row
	UpdateDocument(ctx context.Context, doc *models.Document) error

	// CurrentByHash returns the current-version document with the given
	// sha256 within a matter, ErrNotFound when absent
	CurrentByHash(ctx context.Context, matterID, sha256 string) (*models.Document, error)

	// CurrentWithText returns every current-version document in the matter
	// with non-empty extracted text, for similarity scans
	CurrentWithText(ctx context.Context, matterID string) ([]*models.Document, error)

	// ChildOf returns the document whose parent pointer is parentID and
	// whose version number is exactly versionNumber, ErrNotFound when absent
	ChildOf(ctx context.Context, parentID string, versionNumber int) (*models.Document, error)

	// ByMatter lists all documents in a matter
	ByMatter(ctx context.Context, matterID string) ([]*models.Document, error)

	// Supersede atomically flips the old current document to non-current and
	// inserts its successor, enforcing the same uniqueness backstop as
	// InsertCurrentUnique for the successor's hash.
	Supersede(ctx context.Context, old *models.Document, successor *models.Document, record *models.DocumentVersion) error

	// UpdateGroupMetadata writes the given documents' metadata in a single
	// transaction; a failure leaves every member untouched
	UpdateGroupMetadata(ctx context.Context, docs []*models.Document) error

	// DeleteByMatter removes every document in a matter (cascade delete)
	DeleteByMatter(ctx context.Context, matterID string) error

	// CountDocuments returns the total number of document rows
	CountDocuments(ctx context.Context) (int, error)
}

// VersionStorage persists immutable version history records
type VersionStorage interface {
	// Append writes one history record; records are never mutated
	Append(ctx context.Context, record *models.DocumentVersion) error

	// ListByDocument returns history records for a document row ordered by
	// version number ascending
	ListByDocument(ctx context.Context, documentID string) ([]*models.DocumentVersion, error)

	// DeleteByDocuments removes history for the given document ids
	// (matter cascade only)
	DeleteByDocuments(ctx context.Context, documentIDs []string) error
}

// MatterStorage persists matters
type MatterStorage interface {
	SaveMatter(ctx context.Context, matter *models.Matter) error
	GetMatter(ctx context.Context, id string) (*models.Matter, error)
	ListMatters(ctx context.Context) ([]*models.Matter, error)
	DeleteMatter(ctx context.Context, id string) error
}

// AuditStorage is the audit log sink. Failures must not abort ingestion.
type AuditStorage interface {
	Record(ctx context.Context, entry *models.AuditEntry) error
	ListByResource(ctx context.Context, resourceID string) ([]*models.AuditEntry, error)
	ListByMatter(ctx context.Context, matterID string) ([]*models.AuditEntry, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	DocumentStorage() DocumentStorage
	VersionStorage() VersionStorage
	MatterStorage() MatterStorage
	AuditStorage() AuditStorage
	Close() error
}
