package interfaces

import (
	"context"

	"github.com/lexhold/lexhold/internal/models"
)

// Indexer is the downstream indexing hook invoked after a document commits.
// Indexing failures are non-fatal to ingestion.
type Indexer interface {
	IndexDocument(ctx context.Context, doc *models.Document) error
}

// IngestionService is the top-level orchestrator. For each incoming file it
// computes hashes, short-circuits exact duplicates, extracts text, checks
// version-parent candidacy and routes to reuse-existing, create-new-version
// or create-new-document. It never returns an error for per-file failures;
// everything is reported through the IngestResult.
type IngestionService interface {
	// IngestFile processes a single file into a matter
	IngestFile(ctx context.Context, req *models.IngestRequest) *models.IngestResult

	// IngestBatch processes several files under one ingestion-run id
	IngestBatch(ctx context.Context, reqs []*models.IngestRequest) *models.BatchResult

	// IngestDirectory scans a server-side folder for supported file types
	// and ingests them as one batch
	IngestDirectory(ctx context.Context, root, matterID string, recursive bool) (*models.BatchResult, error)

	// RunID returns this service instance's ingestion-run correlation id
	RunID() string
}

// FileStore moves ingested files into managed storage
type FileStore interface {
	// MoveToProcessed moves the source file under the matter's processed
	// directory and returns the stored path
	MoveToProcessed(sourcePath, matterID, documentID, filename string) (string, error)
}

// SchedulerService runs periodic maintenance jobs
type SchedulerService interface {
	Start() error
	Stop()
}
