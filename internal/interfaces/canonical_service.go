package interfaces

import (
	"context"

	"github.com/lexhold/lexhold/internal/models"
)

// CanonicalService scores duplicate groups and marks one member canonical
type CanonicalService interface {
	// SelectCanonical picks the best representative of a group by weighted
	// quality/recency/completeness scoring without persisting anything.
	// Ties break toward the earliest group member. A single-member group is
	// returned as-is.
	SelectCanonical(group []*models.Document) (*models.Document, error)

	// SetCanonicalVersion selects the winner and writes canonical markers
	// into every member's metadata in one atomic group write
	SetCanonicalVersion(ctx context.Context, group []*models.Document) (*models.Document, error)

	// SelectForMatter finds duplicate groups across the whole matter and
	// marks a canonical member in each. Returns the number of groups marked.
	SelectForMatter(ctx context.Context, matterID string) (int, error)

	// EnsureCanonical resolves the canonical document for documentID,
	// running selection on its duplicate group if none is marked yet. A
	// document outside any group is its own canonical.
	EnsureCanonical(ctx context.Context, documentID string) (*models.Document, error)
}
