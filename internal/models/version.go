package models

import (
	"time"
)

// Change types recorded on a version transition. Classification by
// similarity score is ordered and mutually exclusive: hash-identical files
// are duplicates, then correction >= 0.99, revision >= 0.95, update below.
const (
	ChangeInitial    = "initial"
	ChangeUpdate     = "update"
	ChangeRevision   = "revision"
	ChangeCorrection = "correction"
	ChangeDuplicate  = "duplicate"
)

// DocumentVersion is the immutable audit record of one version's fingerprint
// and size. One per (document, version number); created once, never mutated.
type DocumentVersion struct {
	ID            string `json:"id"`                               // ver_<uuid>
	DocumentID    string `json:"document_id" badgerhold:"index"`
	VersionNumber int    `json:"version_number"`

	SHA256   string `json:"sha256"`
	MD5      string `json:"md5"`
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`

	ChangeType        string  `json:"change_type"`
	ChangeDescription string  `json:"change_description,omitempty"`
	SimilarityScore   float64 `json:"similarity_score"` // To the prior version; 1.0 for initial
	ContentChanged    bool    `json:"content_changed"`
	MetadataChanged   bool    `json:"metadata_changed"`

	CreatedAt time.Time `json:"created_at"`
}

// ClassifyChange maps a similarity score to a change type. hashMatch takes
// precedence over any score.
func ClassifyChange(hashMatch bool, similarity float64) string {
	switch {
	case hashMatch:
		return ChangeDuplicate
	case similarity >= 0.99:
		return ChangeCorrection
	case similarity >= 0.95:
		return ChangeRevision
	default:
		return ChangeUpdate
	}
}
