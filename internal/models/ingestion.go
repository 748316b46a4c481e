package models

// Ingestion result status values
const (
	IngestStatusPending        = "pending"
	IngestStatusCompleted      = "completed"
	IngestStatusDuplicate      = "duplicate"
	IngestStatusVersionCreated = "version_created"
	IngestStatusFailed         = "failed"
)

// IngestRequest describes one file to ingest into a matter
type IngestRequest struct {
	FilePath     string   `json:"file_path" validate:"required"`
	MatterID     string   `json:"matter_id" validate:"required"`
	FileName     string   `json:"file_name,omitempty"` // Defaults to base of FilePath
	DocumentType string   `json:"document_type,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Categories   []string `json:"categories,omitempty"`
}

// SubStepResult reports one best-effort enrichment step (indexing, fact
// extraction). Failures here never roll back the committed document.
type SubStepResult struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// IngestResult is the single structured result of one ingestion call.
// The orchestrator never propagates errors past its boundary; failures are
// reported through Status and Error.
type IngestResult struct {
	Success             bool            `json:"success"`
	DocumentID          string          `json:"document_id,omitempty"`
	Status              string          `json:"status"`
	IsDuplicate         bool            `json:"is_duplicate"`
	IsNewVersion        bool            `json:"is_new_version"`
	ExistingDocumentID  string          `json:"existing_document_id,omitempty"`
	VersionNumber       int             `json:"version_number"`
	SimilarityScore     float64         `json:"similarity_score,omitempty"`
	NearDuplicatesFound int             `json:"near_duplicates_found"`
	Enrichment          []SubStepResult `json:"enrichment,omitempty"`
	Error               string          `json:"error,omitempty"`
	IngestionRunID      string          `json:"ingestion_run_id"`
}

// BatchResult aggregates the results of one ingestion run over many files
type BatchResult struct {
	IngestionRunID string          `json:"ingestion_run_id"`
	Total          int             `json:"total"`
	Succeeded      int             `json:"succeeded"`
	Duplicates     int             `json:"duplicates"`
	Versions       int             `json:"versions"`
	Failed         int             `json:"failed"`
	Results        []*IngestResult `json:"results"`
}
