package models

import (
	"time"
)

// Document types inferred at ingestion from extension/MIME
const (
	DocTypePDF             = "pdf"
	DocTypeDocx            = "docx"
	DocTypeEmail           = "email"
	DocTypeNote            = "note"
	DocTypeFinancialRecord = "financial_record"
	DocTypeOther           = "other"
)

// Processing status values
const (
	StatusPending     = "pending"
	StatusProcessing  = "processing"
	StatusCompleted   = "completed"
	StatusNeedsReview = "needs_review"
	StatusFailed      = "failed"
)

// Confidentiality levels
const (
	ConfidentialityPublic     = "public"
	ConfidentialityInternal   = "internal"
	ConfidentialityPrivileged = "privileged"
	ConfidentialityRestricted = "restricted"
)

// Metadata keys the core reads and writes. The metadata bag stays
// schema-light at the persistence boundary; typed accessors below cover
// these keys so callers never touch raw strings.
const (
	metaIsCanonical         = "is_canonical"
	metaCanonicalDocumentID = "canonical_document_id"
	metaCanonicalSelectedAt = "canonical_selected_at"
	metaNearDuplicates      = "near_duplicates"
	metaExtractionError     = "extraction_error"
	metaIngestionRunID      = "ingestion_run_id"
)

// Document is the live record of one ingested file revision. Superseded
// revisions are kept with IsCurrentVersion=false; exactly one member of a
// version chain is current at any time.
type Document struct {
	// Identity
	ID       string `json:"id"`                               // doc_<uuid>
	MatterID string `json:"matter_id" badgerhold:"index"`     // Scoping boundary for all duplicate comparisons
	Type     string `json:"document_type"`

	// File
	Title    string `json:"title"`
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`

	// Content fingerprints
	SHA256 string `json:"sha256" badgerhold:"index"` // Primary dedup key
	MD5    string `json:"md5"`                       // Legacy compatibility

	// Extracted content
	RawText       string `json:"raw_text,omitempty"`
	ExtractedText string `json:"extracted_text,omitempty"`
	TextLength    int    `json:"text_length"`

	// Source metadata
	Author       string     `json:"author,omitempty"`
	CreatedDate  *time.Time `json:"created_date,omitempty"`
	ModifiedDate *time.Time `json:"modified_date,omitempty"`

	// Classification
	Confidentiality string   `json:"confidentiality_level,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Categories      []string `json:"categories,omitempty"`

	// Processing
	ProcessingStatus string     `json:"processing_status"`
	ProcessingError  string     `json:"processing_error,omitempty"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`

	// Versioning. ParentDocumentID forms a singly-linked list back to the
	// chain root; version numbers in a chain are contiguous from 1.
	VersionNumber    int    `json:"version_number"`
	IsCurrentVersion bool   `json:"is_current_version"`
	ParentDocumentID string `json:"parent_document_id,omitempty" badgerhold:"index"`

	// Free-form metadata bag (canonical markers, near-duplicate refs, run id)
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// Timestamps
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	IngestedAt time.Time `json:"ingested_at"`
}

// NearDuplicateRef records one near-duplicate candidate with its score,
// stored in the metadata bag of a freshly ingested document.
type NearDuplicateRef struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
}

// EnsureMetadata initializes the metadata bag if absent
func (d *Document) EnsureMetadata() {
	if d.Metadata == nil {
		d.Metadata = make(map[string]interface{})
	}
}

// IsCanonical reports whether this document carries the canonical marker
func (d *Document) IsCanonical() bool {
	if d.Metadata == nil {
		return false
	}
	v, ok := d.Metadata[metaIsCanonical].(bool)
	return ok && v
}

// CanonicalDocumentID returns the canonical document id recorded on this
// group member, or empty when no canonical selection has run.
func (d *Document) CanonicalDocumentID() string {
	if d.Metadata == nil {
		return ""
	}
	v, _ := d.Metadata[metaCanonicalDocumentID].(string)
	return v
}

// MarkCanonical writes the canonical markers for one group member.
// selectedAt is recorded only on non-winners.
func (d *Document) MarkCanonical(canonicalID string, selectedAt time.Time) {
	d.EnsureMetadata()
	d.Metadata[metaIsCanonical] = d.ID == canonicalID
	d.Metadata[metaCanonicalDocumentID] = canonicalID
	if d.ID != canonicalID {
		d.Metadata[metaCanonicalSelectedAt] = selectedAt.UTC().Format(time.RFC3339)
	}
}

// SetNearDuplicates records the near-duplicate candidates found at ingestion
func (d *Document) SetNearDuplicates(refs []NearDuplicateRef) {
	if len(refs) == 0 {
		return
	}
	d.EnsureMetadata()
	entries := make([]interface{}, 0, len(refs))
	for _, ref := range refs {
		entries = append(entries, map[string]interface{}{
			"document_id": ref.DocumentID,
			"score":       ref.Score,
		})
	}
	d.Metadata[metaNearDuplicates] = entries
}

// HasExtractionError reports whether text extraction flagged an error
func (d *Document) HasExtractionError() bool {
	if d.Metadata == nil {
		return false
	}
	_, ok := d.Metadata[metaExtractionError]
	return ok
}

// SetExtractionError flags a failed or degraded text extraction
func (d *Document) SetExtractionError(reason string) {
	d.EnsureMetadata()
	d.Metadata[metaExtractionError] = reason
}

// IngestionRunID returns the correlation id of the run that created this row
func (d *Document) IngestionRunID() string {
	if d.Metadata == nil {
		return ""
	}
	v, _ := d.Metadata[metaIngestionRunID].(string)
	return v
}

// SetIngestionRunID records the ingestion-run correlation id
func (d *Document) SetIngestionRunID(runID string) {
	d.EnsureMetadata()
	d.Metadata[metaIngestionRunID] = runID
}
