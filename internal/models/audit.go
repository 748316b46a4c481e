package models

import (
	"time"
)

// Audit action types emitted by the ingestion orchestrator
const (
	AuditImport         = "import"
	AuditVersionCreated = "version_created"
	AuditDuplicate      = "duplicate"
	AuditCanonicalSet   = "canonical_selected"
)

// AuditEntry is one structured record per state transition of interest.
// Writes are fire-and-forget from the orchestrator's perspective.
type AuditEntry struct {
	ID           string                 `json:"id"` // aud_<uuid>
	ActionType   string                 `json:"action_type"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id" badgerhold:"index"`
	MatterID     string                 `json:"matter_id" badgerhold:"index"`
	Description  string                 `json:"description"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}
