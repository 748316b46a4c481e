package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/lexhold/lexhold/internal/interfaces"
	"github.com/lexhold/lexhold/internal/models"
)

// MatterStorage implements the MatterStorage interface for Badger
type MatterStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewMatterStorage creates a new MatterStorage instance
func NewMatterStorage(db *BadgerDB, logger arbor.ILogger) interfaces.MatterStorage {
	return &MatterStorage{
		db:     db,
		logger: logger,
	}
}

func (s *MatterStorage) SaveMatter(ctx context.Context, matter *models.Matter) error {
	if matter.ID == "" {
		return fmt.Errorf("matter ID is required")
	}

	now := time.Now()
	if matter.CreatedAt.IsZero() {
		matter.CreatedAt = now
	}
	matter.UpdatedAt = now

	if err := s.db.Store().Upsert(matter.ID, matter); err != nil {
		return fmt.Errorf("failed to save matter: %w", err)
	}
	return nil
}

func (s *MatterStorage) GetMatter(ctx context.Context, id string) (*models.Matter, error) {
	var matter models.Matter
	if err := s.db.Store().Get(id, &matter); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get matter: %w", err)
	}
	return &matter, nil
}

func (s *MatterStorage) ListMatters(ctx context.Context) ([]*models.Matter, error) {
	var matters []models.Matter
	if err := s.db.Store().Find(&matters, nil); err != nil {
		return nil, fmt.Errorf("failed to list matters: %w", err)
	}

	result := make([]*models.Matter, len(matters))
	for i := range matters {
		result[i] = &matters[i]
	}
	return result, nil
}

func (s *MatterStorage) DeleteMatter(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Matter{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete matter: %w", err)
	}
	return nil
}
