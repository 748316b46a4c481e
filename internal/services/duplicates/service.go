package duplicates

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/common"
	"github.com/lexhold/lexhold/internal/interfaces"
	"github.com/lexhold/lexhold/internal/models"
	"github.com/lexhold/lexhold/internal/services/similarity"
)

// Service implements DuplicateService. Exact duplicates resolve by hash
// lookup; near-duplicates by a linear similarity scan over the matter's
// current documents. Both scans are O(n) and group-finding is O(n^2) in
// documents per matter, which holds up at legal-matter scale (hundreds to
// low thousands of documents) but not beyond.
type Service struct {
	documents interfaces.DocumentStorage
	scorer    *similarity.Scorer
	config    *common.IngestionConfig
	logger    arbor.ILogger
}

// NewService creates a new duplicate detection service
func NewService(documents interfaces.DocumentStorage, scorer *similarity.Scorer, config *common.IngestionConfig, logger arbor.ILogger) interfaces.DuplicateService {
	return &Service{
		documents: documents,
		scorer:    scorer,
		config:    config,
		logger:    logger,
	}
}

// FindExactDuplicate returns the live document with the given sha256 in the
// matter, or nil when content is unseen
func (s *Service) FindExactDuplicate(ctx context.Context, sha256, matterID string) (*models.Document, error) {
	doc, err := s.documents.CurrentByHash(ctx, matterID, sha256)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// FindNearDuplicates scans every current document with extracted text in the
// matter and keeps those at or above the near-duplicate threshold, highest
// first. Similarity on very short texts is unreliable, so probes below the
// configured minimum length return nothing.
func (s *Service) FindNearDuplicates(ctx context.Context, text, matterID, excludeID string) ([]models.ScoredDocument, error) {
	if len(strings.TrimSpace(text)) < s.config.MinCompareLength {
		return nil, nil
	}

	candidates, err := s.documents.CurrentWithText(ctx, matterID)
	if err != nil {
		return nil, err
	}

	var matches []models.ScoredDocument
	for _, doc := range candidates {
		if doc.ID == excludeID || doc.ExtractedText == "" {
			continue
		}

		score := s.scorer.Score(text, doc.ExtractedText)
		if score >= s.config.NearDuplicateThreshold {
			matches = append(matches, models.ScoredDocument{Document: doc, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	s.logger.Debug().
		Str("matter_id", matterID).
		Int("candidates", len(candidates)).
		Int("matches", len(matches)).
		Msg("Near-duplicate scan complete")

	return matches, nil
}

// CompareDocuments returns the full structured comparison of two documents
func (s *Service) CompareDocuments(a, b *models.Document) *models.DocumentComparison {
	result := &models.DocumentComparison{}

	if a.SHA256 != "" && b.SHA256 != "" {
		result.HashMatch = a.SHA256 == b.SHA256
		result.ExactDuplicate = result.HashMatch
	}

	if a.ExtractedText != "" && b.ExtractedText != "" {
		result.Breakdown = s.scorer.Breakdown(a.ExtractedText, b.ExtractedText)
		result.TextSimilarity = s.scorer.Combine(result.Breakdown, len(a.ExtractedText), len(b.ExtractedText))
		result.LengthRatio = result.Breakdown.LengthRatio
		result.SimilarityScore = result.TextSimilarity
		result.NearDuplicate = result.SimilarityScore >= s.config.NearDuplicateThreshold
		result.FuzzyMatch = result.SimilarityScore >= s.config.FuzzyMatchThreshold
	}

	result.MetadataSimilarity = s.compareMetadata(a, b)

	return result
}

// compareMetadata averages title, author, filename and type similarity;
// a field contributes only when both documents have it populated
func (s *Service) compareMetadata(a, b *models.Document) float64 {
	var scores []float64

	if a.Title != "" && b.Title != "" {
		scores = append(scores, s.scorer.Score(strings.ToLower(a.Title), strings.ToLower(b.Title)))
	}
	if a.Author != "" && b.Author != "" {
		if strings.EqualFold(a.Author, b.Author) {
			scores = append(scores, 1.0)
		} else {
			scores = append(scores, 0.0)
		}
	}
	if a.FileName != "" && b.FileName != "" {
		scores = append(scores, s.scorer.Score(strings.ToLower(a.FileName), strings.ToLower(b.FileName)))
	}
	if a.Type != "" && b.Type != "" {
		if a.Type == b.Type {
			scores = append(scores, 1.0)
		} else {
			scores = append(scores, 0.0)
		}
	}

	if len(scores) == 0 {
		return 0.0
	}

	var total float64
	for _, v := range scores {
		total += v
	}
	return total / float64(len(scores))
}

// FindDuplicateGroups clusters by greedy single-link similarity to each
// group's seed: documents are visited in listing order, each unvisited
// document seeds a group, and every later unvisited document joins when its
// similarity to the SEED meets the threshold. Membership is never re-checked
// against other members, so a group is not a transitive closure; two members
// may be mutually dissimilar if both resemble the seed.
func (s *Service) FindDuplicateGroups(ctx context.Context, matterID string, threshold float64) ([][]*models.Document, error) {
	if threshold <= 0 {
		threshold = s.config.NearDuplicateThreshold
	}

	docs, err := s.documents.CurrentWithText(ctx, matterID)
	if err != nil {
		return nil, err
	}

	// Stable seed order: oldest first, ties on id
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})

	var groups [][]*models.Document
	processed := make(map[string]bool, len(docs))

	for i, seed := range docs {
		if processed[seed.ID] {
			continue
		}

		group := []*models.Document{seed}
		processed[seed.ID] = true

		for _, candidate := range docs[i+1:] {
			if processed[candidate.ID] {
				continue
			}

			comparison := s.CompareDocuments(seed, candidate)
			if comparison.SimilarityScore >= threshold {
				group = append(group, candidate)
				processed[candidate.ID] = true
			}
		}

		if len(group) > 1 {
			groups = append(groups, group)
		}
	}

	s.logger.Debug().
		Str("matter_id", matterID).
		Int("documents", len(docs)).
		Int("groups", len(groups)).
		Msg("Duplicate grouping complete")

	return groups, nil
}
