package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/common"
	"github.com/lexhold/lexhold/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db       *BadgerDB
	document interfaces.DocumentStorage
	version  interfaces.VersionStorage
	matter   interfaces.MatterStorage
	audit    interfaces.AuditStorage
	logger   arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:       db,
		document: NewDocumentStorage(db, logger),
		version:  NewVersionStorage(db, logger),
		matter:   NewMatterStorage(db, logger),
		audit:    NewAuditStorage(db, logger),
		logger:   logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// DocumentStorage returns the document storage interface
func (m *Manager) DocumentStorage() interfaces.DocumentStorage {
	return m.document
}

// VersionStorage returns the version history storage interface
func (m *Manager) VersionStorage() interfaces.VersionStorage {
	return m.version
}

// MatterStorage returns the matter storage interface
func (m *Manager) MatterStorage() interfaces.MatterStorage {
	return m.matter
}

// AuditStorage returns the audit log storage interface
func (m *Manager) AuditStorage() interfaces.AuditStorage {
	return m.audit
}

// Close closes the underlying database
func (m *Manager) Close() error {
	return m.db.Close()
}
