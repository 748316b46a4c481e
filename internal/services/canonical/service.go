package canonical

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/common"
	"github.com/lexhold/lexhold/internal/interfaces"
	"github.com/lexhold/lexhold/internal/models"
)

// Service implements CanonicalService. Each group member gets a weighted sum
// of three normalized sub-scores (quality, recency, completeness); the
// highest total wins, ties break toward the earliest member.
type Service struct {
	documents interfaces.DocumentStorage
	groups    interfaces.DuplicateService
	audit     interfaces.AuditStorage
	config    *common.CanonicalConfig
	logger    arbor.ILogger

	// now is swappable for deterministic recency tests
	now func() time.Time
}

// NewService creates a new canonical selection service
func NewService(documents interfaces.DocumentStorage, groups interfaces.DuplicateService, audit interfaces.AuditStorage, config *common.CanonicalConfig, logger arbor.ILogger) *Service {
	return &Service{
		documents: documents,
		groups:    groups,
		audit:     audit,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

var _ interfaces.CanonicalService = (*Service)(nil)

// SelectCanonical picks the best representative of a group without
// persisting anything. A single-member group short-circuits unscored.
func (s *Service) SelectCanonical(group []*models.Document) (*models.Document, error) {
	if len(group) == 0 {
		return nil, fmt.Errorf("document group cannot be empty")
	}
	if len(group) == 1 {
		return group[0], nil
	}

	quality, recency, completeness := s.normalizedWeights()

	best := group[0]
	bestScore := -1.0
	for _, doc := range group {
		score := quality*s.qualityScore(doc) +
			recency*s.recencyScore(doc) +
			completeness*s.completenessScore(doc)

		// Strict comparison keeps the first-seen member on ties
		if score > bestScore {
			best = doc
			bestScore = score
		}
	}

	s.logger.Debug().
		Str("canonical_id", best.ID).
		Float64("score", bestScore).
		Int("group_size", len(group)).
		Msg("Canonical member selected")

	return best, nil
}

// SetCanonicalVersion selects the winner and writes canonical markers into
// every member's metadata in one atomic group write. A crash mid-write
// leaves no member marked.
func (s *Service) SetCanonicalVersion(ctx context.Context, group []*models.Document) (*models.Document, error) {
	winner, err := s.SelectCanonical(group)
	if err != nil {
		return nil, err
	}
	if len(group) == 1 {
		// Nothing to mark: a lone document needs no canonical metadata
		return winner, nil
	}

	selectedAt := s.now()
	for _, doc := range group {
		doc.MarkCanonical(winner.ID, selectedAt)
	}

	if err := s.documents.UpdateGroupMetadata(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to persist canonical selection: %w", err)
	}

	s.recordAudit(ctx, winner, len(group))

	return winner, nil
}

// SelectForMatter finds duplicate groups across the matter and marks a
// canonical member in each. Returns the number of groups marked.
func (s *Service) SelectForMatter(ctx context.Context, matterID string) (int, error) {
	groups, err := s.groups.FindDuplicateGroups(ctx, matterID, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to find duplicate groups: %w", err)
	}

	marked := 0
	for _, group := range groups {
		if _, err := s.SetCanonicalVersion(ctx, group); err != nil {
			return marked, err
		}
		marked++
	}

	s.logger.Info().
		Str("matter_id", matterID).
		Int("groups", marked).
		Msg("Canonical selection complete for matter")

	return marked, nil
}

// EnsureCanonical resolves the canonical document for documentID. When the
// document sits in a duplicate group with no marked member, selection runs
// and persists markers first. A document outside any group is its own
// canonical.
func (s *Service) EnsureCanonical(ctx context.Context, documentID string) (*models.Document, error) {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	groups, err := s.groups.FindDuplicateGroups(ctx, doc.MatterID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate groups: %w", err)
	}

	for _, group := range groups {
		if !containsDocument(group, doc.ID) {
			continue
		}
		for _, member := range group {
			if member.IsCanonical() {
				return member, nil
			}
		}
		return s.SetCanonicalVersion(ctx, group)
	}

	return doc, nil
}

func containsDocument(group []*models.Document, id string) bool {
	for _, member := range group {
		if member.ID == id {
			return true
		}
	}
	return false
}

// normalizedWeights re-normalizes the configured weights to sum to 1 so
// partial or zero-weight configurations stay safe
func (s *Service) normalizedWeights() (quality, recency, completeness float64) {
	quality = s.config.QualityWeight
	recency = s.config.RecencyWeight
	completeness = s.config.CompletenessWeight

	total := quality + recency + completeness
	if total > 0 {
		quality /= total
		recency /= total
		completeness /= total
	}
	return quality, recency, completeness
}

// qualityScore rewards completed processing, substantial extracted text and
// a clean extraction
func (s *Service) qualityScore(doc *models.Document) float64 {
	score := 0.0

	switch doc.ProcessingStatus {
	case models.StatusCompleted:
		score += 0.5
	case models.StatusNeedsReview:
		score += 0.3
	case models.StatusProcessing:
		score += 0.1
	}

	if doc.ExtractedText != "" {
		textLength := len(doc.ExtractedText)
		switch {
		case textLength > 1000:
			score += 0.3
		case textLength > 100:
			score += 0.2
		default:
			score += 0.1
		}

		if !doc.HasExtractionError() {
			score += 0.2
		}
	}

	return min(score, 1.0)
}

// recencyScore is a step decay on the age of the most recent known
// timestamp. Neutral 0.5 when recency preference is disabled or no
// timestamp exists.
func (s *Service) recencyScore(doc *models.Document) float64 {
	if !s.config.PreferLatest {
		return 0.5
	}

	var latest time.Time
	for _, ts := range []time.Time{doc.IngestedAt, doc.CreatedAt} {
		if ts.After(latest) {
			latest = ts
		}
	}
	if doc.ModifiedDate != nil && doc.ModifiedDate.After(latest) {
		latest = *doc.ModifiedDate
	}
	if latest.IsZero() {
		return 0.5
	}

	days := int(s.now().Sub(latest).Hours() / 24)
	switch {
	case days <= 30:
		return 1.0
	case days <= 90:
		return 0.8
	case days <= 180:
		return 0.6
	case days <= 365:
		return 0.4
	default:
		return 0.2
	}
}

// completenessScore rewards larger files, longer text and populated
// metadata fields. Neutral 0.5 when size preference is disabled.
func (s *Service) completenessScore(doc *models.Document) float64 {
	if !s.config.PreferLarger {
		return 0.5
	}

	score := 0.0

	if doc.FileSize > 0 {
		switch {
		case doc.FileSize > 10*1024*1024:
			score += 0.4
		case doc.FileSize > 1024*1024:
			score += 0.3
		case doc.FileSize > 100*1024:
			score += 0.2
		default:
			score += 0.1
		}
	}

	if doc.ExtractedText != "" {
		textLength := len(doc.ExtractedText)
		switch {
		case textLength > 50000:
			score += 0.4
		case textLength > 10000:
			score += 0.3
		case textLength > 1000:
			score += 0.2
		default:
			score += 0.1
		}
	}

	fields := 0
	if doc.Author != "" {
		fields++
	}
	if doc.Title != "" {
		fields++
	}
	if doc.CreatedDate != nil {
		fields++
	}
	if len(doc.Tags) > 0 {
		fields++
	}
	score += min(float64(fields)*0.1, 0.2)

	return min(score, 1.0)
}

// recordAudit is fire-and-forget; a failed audit write never fails selection
func (s *Service) recordAudit(ctx context.Context, winner *models.Document, groupSize int) {
	if s.audit == nil {
		return
	}

	entry := &models.AuditEntry{
		ID:           common.NewAuditID(),
		ActionType:   models.AuditCanonicalSet,
		ResourceType: "document",
		ResourceID:   winner.ID,
		MatterID:     winner.MatterID,
		Description:  fmt.Sprintf("Selected canonical document for group of %d", groupSize),
		Metadata: map[string]interface{}{
			"group_size": groupSize,
		},
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("document_id", winner.ID).Msg("Failed to record canonical selection audit entry")
	}
}
