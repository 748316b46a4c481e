package common

import (
	"github.com/google/uuid"
)

// NewDocumentID generates a unique document ID.
// Format: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewMatterID generates a unique matter ID.
// Format: mat_<uuid>
func NewMatterID() string {
	return "mat_" + uuid.New().String()
}

// NewVersionID generates a unique document version record ID.
// Format: ver_<uuid>
func NewVersionID() string {
	return "ver_" + uuid.New().String()
}

// NewAuditID generates a unique audit entry ID.
// Format: aud_<uuid>
func NewAuditID() string {
	return "aud_" + uuid.New().String()
}

// NewRunID generates a correlation ID for one ingestion run (a batch of
// files processed together).
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}
