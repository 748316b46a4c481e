package interfaces

import (
	"context"

	"github.com/lexhold/lexhold/internal/models"
)

// VersionInput carries the new file's content fields for a version transition
type VersionInput struct {
	FilePath          string
	FileSize          int64
	Text              string
	RawText           string
	SHA256            string
	MD5               string
	ChangeDescription string
	DocumentID        string // Pre-generated id for the successor row; empty generates one
	RunID             string // Ingestion-run correlation id
}

// VersionService builds and walks version chains and creates new versions
type VersionService interface {
	// CreateNewVersion supersedes existing with a new current version built
	// from input. The flip of the old row, the insert of the successor and
	// the history record are committed atomically; any failure leaves the
	// chain untouched.
	CreateNewVersion(ctx context.Context, existing *models.Document, input VersionInput) (*models.Document, error)

	// ChainFor returns the full version chain containing documentID, ordered
	// by version number ascending. Walks are bounded; a cycle or over-long
	// chain is a fatal chain-corruption error.
	ChainFor(ctx context.Context, documentID string) ([]*models.Document, error)

	// CurrentVersion resolves the live member of the chain containing documentID
	CurrentVersion(ctx context.Context, documentID string) (*models.Document, error)

	// CanonicalVersion resolves the canonical-flagged member recorded on the
	// document's group, falling back to the current version when no canonical
	// selection has run
	CanonicalVersion(ctx context.Context, documentID string) (*models.Document, error)

	// History returns the immutable version records for a document row
	History(ctx context.Context, documentID string) ([]*models.DocumentVersion, error)
}
