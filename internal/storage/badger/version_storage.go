package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/lexhold/lexhold/internal/interfaces"
	"github.com/lexhold/lexhold/internal/models"
)

// VersionStorage implements the VersionStorage interface for Badger
type VersionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewVersionStorage creates a new VersionStorage instance
func NewVersionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.VersionStorage {
	return &VersionStorage{
		db:     db,
		logger: logger,
	}
}

func (s *VersionStorage) Append(ctx context.Context, record *models.DocumentVersion) error {
	if record.ID == "" {
		return fmt.Errorf("version record ID is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	// History records are append-only; Insert fails on an existing key
	if err := s.db.Store().Insert(record.ID, record); err != nil {
		return fmt.Errorf("failed to append version record: %w", err)
	}
	return nil
}

func (s *VersionStorage) ListByDocument(ctx context.Context, documentID string) ([]*models.DocumentVersion, error) {
	var records []models.DocumentVersion
	query := badgerhold.Where("DocumentID").Eq(documentID).Index("DocumentID")
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list version records: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].VersionNumber < records[j].VersionNumber
	})

	result := make([]*models.DocumentVersion, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *VersionStorage) DeleteByDocuments(ctx context.Context, documentIDs []string) error {
	for _, id := range documentIDs {
		if err := s.db.Store().DeleteMatching(&models.DocumentVersion{}, badgerhold.Where("DocumentID").Eq(id).Index("DocumentID")); err != nil {
			return fmt.Errorf("failed to delete version records for %s: %w", id, err)
		}
	}
	return nil
}
