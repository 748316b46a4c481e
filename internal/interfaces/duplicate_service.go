package interfaces

import (
	"context"

	"github.com/lexhold/lexhold/internal/models"
)

// DuplicateService detects exact and near-duplicate documents within a matter
type DuplicateService interface {
	// FindExactDuplicate returns the current-version document in the matter
	// with the given sha256, or nil when none exists
	FindExactDuplicate(ctx context.Context, sha256, matterID string) (*models.Document, error)

	// FindNearDuplicates scans current-version documents in the matter and
	// returns those whose combined similarity to text meets the
	// near-duplicate threshold, highest score first. Texts shorter than the
	// configured minimum are never compared and return an empty result.
	FindNearDuplicates(ctx context.Context, text, matterID, excludeID string) ([]models.ScoredDocument, error)

	// CompareDocuments returns the full structured comparison of two documents
	CompareDocuments(a, b *models.Document) *models.DocumentComparison

	// FindDuplicateGroups clusters current-version documents in the matter by
	// greedy single-link similarity to each group's seed document. Groups are
	// seeded in listing order and membership is judged against the seed only,
	// so results are not transitively consistent. Only groups with two or
	// more members are returned. A threshold of 0 uses the configured default.
	FindDuplicateGroups(ctx context.Context, matterID string, threshold float64) ([][]*models.Document, error)
}
