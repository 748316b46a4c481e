package versions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/common"
	"github.com/lexhold/lexhold/internal/interfaces"
	"github.com/lexhold/lexhold/internal/models"
	"github.com/lexhold/lexhold/internal/services/similarity"
)

// maxChainLength bounds version-chain walks. A chain longer than this means
// corrupted parent pointers (most likely a cycle) and aborts the walk
// instead of looping forever.
const maxChainLength = 1000

// ErrChainCorrupted reports a version chain whose walk exceeded the length
// bound or revisited a document
var ErrChainCorrupted = errors.New("version chain corrupted: cycle or over-long chain detected")

// Service implements VersionService
type Service struct {
	documents interfaces.DocumentStorage
	history   interfaces.VersionStorage
	scorer    *similarity.Scorer
	logger    arbor.ILogger
}

// NewService creates a new version management service
func NewService(documents interfaces.DocumentStorage, history interfaces.VersionStorage, scorer *similarity.Scorer, logger arbor.ILogger) interfaces.VersionService {
	return &Service{
		documents: documents,
		history:   history,
		scorer:    scorer,
		logger:    logger,
	}
}

// CreateNewVersion supersedes existing with a successor built from input.
// The old row's current flag, the successor insert and the history record
// commit in one storage transaction; on failure the chain is unchanged.
func (s *Service) CreateNewVersion(ctx context.Context, existing *models.Document, input interfaces.VersionInput) (*models.Document, error) {
	if existing == nil {
		return nil, fmt.Errorf("existing document is required")
	}
	if !existing.IsCurrentVersion {
		return nil, fmt.Errorf("document %s is not the current version", existing.ID)
	}

	hashMatch := input.SHA256 != "" && input.SHA256 == existing.SHA256

	// Identical content needs no text comparison
	score := 1.0
	if !hashMatch && existing.ExtractedText != "" && input.Text != "" {
		score = s.scorer.Score(existing.ExtractedText, input.Text)
	}

	changeType := models.ClassifyChange(hashMatch, score)

	successorID := input.DocumentID
	if successorID == "" {
		successorID = common.NewDocumentID()
	}

	now := time.Now()
	successor := &models.Document{
		ID:       successorID,
		MatterID: existing.MatterID,
		Type:     existing.Type,
		Title:    existing.Title,
		FileName: existing.FileName,
		FilePath: input.FilePath,
		FileSize: input.FileSize,
		MimeType: existing.MimeType,

		SHA256: input.SHA256,
		MD5:    input.MD5,

		RawText:       input.RawText,
		ExtractedText: input.Text,
		TextLength:    len(input.Text),

		// Stable metadata carries forward; content fields are the new file's
		Author:          existing.Author,
		Confidentiality: existing.Confidentiality,
		Tags:            existing.Tags,
		Categories:      existing.Categories,

		ProcessingStatus: models.StatusCompleted,
		ProcessedAt:      &now,

		VersionNumber:    existing.VersionNumber + 1,
		IsCurrentVersion: true,
		ParentDocumentID: existing.ID,

		IngestedAt: now,
	}
	if input.RunID != "" {
		successor.SetIngestionRunID(input.RunID)
	}

	record := &models.DocumentVersion{
		ID:                common.NewVersionID(),
		DocumentID:        successor.ID,
		VersionNumber:     successor.VersionNumber,
		SHA256:            input.SHA256,
		MD5:               input.MD5,
		FilePath:          input.FilePath,
		FileSize:          input.FileSize,
		ChangeType:        changeType,
		ChangeDescription: input.ChangeDescription,
		SimilarityScore:   score,
		ContentChanged:    !hashMatch,
	}

	existing.IsCurrentVersion = false

	if err := s.documents.Supersede(ctx, existing, successor, record); err != nil {
		// Restore the in-memory flag; nothing was committed
		existing.IsCurrentVersion = true
		return nil, err
	}

	s.logger.Info().
		Str("document_id", successor.ID).
		Str("parent_id", existing.ID).
		Int("version", successor.VersionNumber).
		Str("change_type", changeType).
		Float64("similarity", score).
		Msg("New document version created")

	return successor, nil
}

// ChainFor resolves the whole version chain containing documentID: walk
// parent pointers back to the root, then walk forward by finding the child
// whose version number is exactly one greater. Both walks are bounded.
func (s *Service) ChainFor(ctx context.Context, documentID string) ([]*models.Document, error) {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	root, err := s.walkToRoot(ctx, doc)
	if err != nil {
		return nil, err
	}

	chain := []*models.Document{root}
	seen := map[string]bool{root.ID: true}
	current := root

	for len(chain) <= maxChainLength {
		child, err := s.documents.ChildOf(ctx, current.ID, current.VersionNumber+1)
		if errors.Is(err, interfaces.ErrNotFound) {
			return chain, nil
		}
		if err != nil {
			return nil, err
		}
		if seen[child.ID] {
			return nil, ErrChainCorrupted
		}
		seen[child.ID] = true
		chain = append(chain, child)
		current = child
	}

	return nil, ErrChainCorrupted
}

// CurrentVersion resolves the live member of the chain containing documentID
func (s *Service) CurrentVersion(ctx context.Context, documentID string) (*models.Document, error) {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IsCurrentVersion {
		return doc, nil
	}

	chain, err := s.ChainFor(ctx, documentID)
	if err != nil {
		return nil, err
	}

	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].IsCurrentVersion {
			return chain[i], nil
		}
	}

	// No flagged member: the chain tail is the best answer we have
	return chain[len(chain)-1], nil
}

// CanonicalVersion resolves the canonical-flagged member recorded on the
// document's duplicate group, falling back to the current version when no
// canonical selection has run
func (s *Service) CanonicalVersion(ctx context.Context, documentID string) (*models.Document, error) {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if canonicalID := doc.CanonicalDocumentID(); canonicalID != "" {
		canonical, err := s.documents.GetDocument(ctx, canonicalID)
		if err == nil {
			return canonical, nil
		}
		if !errors.Is(err, interfaces.ErrNotFound) {
			return nil, err
		}
		s.logger.Warn().
			Str("document_id", documentID).
			Str("canonical_id", canonicalID).
			Msg("Canonical marker points at missing document, falling back to current version")
	}

	return s.CurrentVersion(ctx, documentID)
}

// History returns the immutable version records for a document row
func (s *Service) History(ctx context.Context, documentID string) ([]*models.DocumentVersion, error) {
	return s.history.ListByDocument(ctx, documentID)
}

// walkToRoot follows parent pointers until a document with no parent,
// bounded against cycles
func (s *Service) walkToRoot(ctx context.Context, doc *models.Document) (*models.Document, error) {
	seen := map[string]bool{doc.ID: true}
	current := doc

	for hops := 0; current.ParentDocumentID != ""; hops++ {
		if hops >= maxChainLength {
			return nil, ErrChainCorrupted
		}

		parent, err := s.documents.GetDocument(ctx, current.ParentDocumentID)
		if errors.Is(err, interfaces.ErrNotFound) {
			// Dangling parent pointer: treat this document as the root
			s.logger.Warn().
				Str("document_id", current.ID).
				Str("parent_id", current.ParentDocumentID).
				Msg("Parent document missing, treating as chain root")
			return current, nil
		}
		if err != nil {
			return nil, err
		}
		if seen[parent.ID] {
			return nil, ErrChainCorrupted
		}
		seen[parent.ID] = true
		current = parent
	}

	return current, nil
}
