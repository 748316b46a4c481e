package badger

import (
	"context"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/lexhold/lexhold/internal/interfaces"
	"github.com/lexhold/lexhold/internal/models"
)

// DocumentStorage implements the DocumentStorage interface for Badger
type DocumentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDocumentStorage creates a new DocumentStorage instance
func NewDocumentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DocumentStorage {
	return &DocumentStorage{
		db:     db,
		logger: logger,
	}
}

func (s *DocumentStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	if err := s.db.Store().Get(id, &doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// InsertCurrentUnique inserts a current-version document after checking for
// a live row with the same (matter, sha256) inside the same transaction.
// Badger write transactions are serialized on conflict, so two concurrent
// uploads of identical content cannot both pass the check.
func (s *DocumentStorage) InsertCurrentUnique(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	err := s.db.Store().Badger().Update(func(tx *badgerdb.Txn) error {
		conflict, err := s.txCurrentByHash(tx, doc.MatterID, doc.SHA256)
		if err != nil {
			return err
		}
		if conflict != nil {
			return interfaces.ErrDuplicateDocument
		}
		return s.db.Store().TxInsert(tx, doc.ID, doc)
	})
	if err == interfaces.ErrDuplicateDocument {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (s *DocumentStorage) UpdateDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	doc.UpdatedAt = time.Now()

	if err := s.db.Store().Update(doc.ID, doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

func (s *DocumentStorage) CurrentByHash(ctx context.Context, matterID, sha256 string) (*models.Document, error) {
	var docs []models.Document
	query := badgerhold.Where("MatterID").Eq(matterID).Index("MatterID").
		And("SHA256").Eq(sha256).
		And("IsCurrentVersion").Eq(true)
	if err := s.db.Store().Find(&docs, query); err != nil {
		return nil, fmt.Errorf("failed to query by hash: %w", err)
	}
	if len(docs) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &docs[0], nil
}

func (s *DocumentStorage) CurrentWithText(ctx context.Context, matterID string) ([]*models.Document, error) {
	var docs []models.Document
	query := badgerhold.Where("MatterID").Eq(matterID).Index("MatterID").
		And("IsCurrentVersion").Eq(true).
		And("ExtractedText").Ne("")
	if err := s.db.Store().Find(&docs, query); err != nil {
		return nil, fmt.Errorf("failed to query current documents: %w", err)
	}

	result := make([]*models.Document, len(docs))
	for i := range docs {
		result[i] = &docs[i]
	}
	return result, nil
}

func (s *DocumentStorage) ChildOf(ctx context.Context, parentID string, versionNumber int) (*models.Document, error) {
	var docs []models.Document
	query := badgerhold.Where("ParentDocumentID").Eq(parentID).Index("ParentDocumentID").
		And("VersionNumber").Eq(versionNumber)
	if err := s.db.Store().Find(&docs, query); err != nil {
		return nil, fmt.Errorf("failed to query child version: %w", err)
	}
	if len(docs) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &docs[0], nil
}

func (s *DocumentStorage) ByMatter(ctx context.Context, matterID string) ([]*models.Document, error) {
	var docs []models.Document
	if err := s.db.Store().Find(&docs, badgerhold.Where("MatterID").Eq(matterID).Index("MatterID")); err != nil {
		return nil, fmt.Errorf("failed to list matter documents: %w", err)
	}

	result := make([]*models.Document, len(docs))
	for i := range docs {
		result[i] = &docs[i]
	}
	return result, nil
}

// Supersede commits a version transition in one transaction: the old row
// flips non-current, the successor inserts as current, and the history
// record appends. The successor's hash gets the same uniqueness backstop as
// InsertCurrentUnique.
func (s *DocumentStorage) Supersede(ctx context.Context, old *models.Document, successor *models.Document, record *models.DocumentVersion) error {
	if old.ID == "" || successor.ID == "" {
		return fmt.Errorf("document IDs are required")
	}

	now := time.Now()
	old.UpdatedAt = now
	if successor.CreatedAt.IsZero() {
		successor.CreatedAt = now
	}
	successor.UpdatedAt = now
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}

	err := s.db.Store().Badger().Update(func(tx *badgerdb.Txn) error {
		conflict, err := s.txCurrentByHash(tx, successor.MatterID, successor.SHA256)
		if err != nil {
			return err
		}
		if conflict != nil && conflict.ID != old.ID {
			return interfaces.ErrDuplicateDocument
		}

		if err := s.db.Store().TxUpdate(tx, old.ID, old); err != nil {
			return fmt.Errorf("failed to supersede old version: %w", err)
		}
		if err := s.db.Store().TxInsert(tx, successor.ID, successor); err != nil {
			return fmt.Errorf("failed to insert new version: %w", err)
		}
		if err := s.db.Store().TxInsert(tx, record.ID, record); err != nil {
			return fmt.Errorf("failed to append version record: %w", err)
		}
		return nil
	})
	if err == interfaces.ErrDuplicateDocument {
		return err
	}
	if err != nil {
		return fmt.Errorf("version transition failed: %w", err)
	}
	return nil
}

// UpdateGroupMetadata writes a whole duplicate group in one transaction so a
// crash mid-write cannot leave the group partially marked
func (s *DocumentStorage) UpdateGroupMetadata(ctx context.Context, docs []*models.Document) error {
	now := time.Now()
	err := s.db.Store().Badger().Update(func(tx *badgerdb.Txn) error {
		for _, doc := range docs {
			doc.UpdatedAt = now
			if err := s.db.Store().TxUpdate(tx, doc.ID, doc); err != nil {
				return fmt.Errorf("failed to update group member %s: %w", doc.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("group metadata write failed: %w", err)
	}
	return nil
}

func (s *DocumentStorage) DeleteByMatter(ctx context.Context, matterID string) error {
	if err := s.db.Store().DeleteMatching(&models.Document{}, badgerhold.Where("MatterID").Eq(matterID).Index("MatterID")); err != nil {
		return fmt.Errorf("failed to delete matter documents: %w", err)
	}
	return nil
}

func (s *DocumentStorage) CountDocuments(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Document{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(count), nil
}

// txCurrentByHash looks up a live document with the given hash inside an
// open transaction
func (s *DocumentStorage) txCurrentByHash(tx *badgerdb.Txn, matterID, sha256 string) (*models.Document, error) {
	var docs []models.Document
	query := badgerhold.Where("MatterID").Eq(matterID).Index("MatterID").
		And("SHA256").Eq(sha256).
		And("IsCurrentVersion").Eq(true)
	if err := s.db.Store().TxFind(tx, &docs, query); err != nil {
		return nil, fmt.Errorf("failed to check hash uniqueness: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}
