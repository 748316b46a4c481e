package models

import (
	"time"
)

// Matter status values
const (
	MatterActive   = "active"
	MatterClosed   = "closed"
	MatterOnHold   = "on_hold"
	MatterArchived = "archived"
)

// Matter is a legal case or engagement. Documents are only compared for
// duplication within one matter, never across matters.
type Matter struct {
	ID           string `json:"id"` // mat_<uuid>
	MatterNumber string `json:"matter_number" badgerhold:"index"`
	Name         string `json:"matter_name"`
	Type         string `json:"matter_type"` // state, federal, bankruptcy, business, other
	Jurisdiction string `json:"jurisdiction,omitempty"`
	CaseNumber   string `json:"case_number,omitempty"`
	Status       string `json:"status"`
	Description  string `json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
