package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/common"
	"github.com/lexhold/lexhold/internal/handlers"
	"github.com/lexhold/lexhold/internal/interfaces"
	"github.com/lexhold/lexhold/internal/services/canonical"
	"github.com/lexhold/lexhold/internal/services/duplicates"
	"github.com/lexhold/lexhold/internal/services/extraction"
	"github.com/lexhold/lexhold/internal/services/filestore"
	"github.com/lexhold/lexhold/internal/services/ingestion"
	"github.com/lexhold/lexhold/internal/services/scheduler"
	"github.com/lexhold/lexhold/internal/services/similarity"
	"github.com/lexhold/lexhold/internal/services/versions"
	badgerstore "github.com/lexhold/lexhold/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Core services
	ExtractionService interfaces.ExtractionService
	DuplicateService  interfaces.DuplicateService
	VersionService    interfaces.VersionService
	CanonicalService  interfaces.CanonicalService
	IngestionService  interfaces.IngestionService
	SchedulerService  interfaces.SchedulerService
	FileStore         interfaces.FileStore

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	MatterHandler    *handlers.MatterHandler
	IngestionHandler *handlers.IngestionHandler
	DocumentHandler  *handlers.DocumentHandler
	DuplicateHandler *handlers.DuplicateHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.initServices()
	app.initHandlers()

	logger.Info().
		Str("environment", cfg.Environment).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initStorage() error {
	manager, err := badgerstore.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.StorageManager = manager

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

func (a *App) initServices() {
	scorer := similarity.NewScorer(similarity.Options{
		LengthThreshold:  a.Config.Ingestion.LengthProfileThreshold,
		MaxCompareLength: a.Config.Ingestion.MaxCompareLength,
		Long:             similarity.LongProfile,
		Short:            similarity.ShortProfile,
	}, a.Logger)

	documents := a.StorageManager.DocumentStorage()
	audit := a.StorageManager.AuditStorage()

	a.ExtractionService = extraction.NewService(a.Logger)
	a.DuplicateService = duplicates.NewService(documents, scorer, &a.Config.Ingestion, a.Logger)
	a.VersionService = versions.NewService(documents, a.StorageManager.VersionStorage(), scorer, a.Logger)
	a.CanonicalService = canonical.NewService(documents, a.DuplicateService, audit, &a.Config.Canonical, a.Logger)
	a.FileStore = filestore.NewStore(a.Config.Storage.Files.Root, a.Logger)
	a.IngestionService = ingestion.NewService(
		a.StorageManager,
		a.ExtractionService,
		a.DuplicateService,
		a.VersionService,
		a.FileStore,
		nil,
		&a.Config.Ingestion,
		a.Logger,
	)
	a.SchedulerService = scheduler.NewService(a.StorageManager.MatterStorage(), a.CanonicalService, &a.Config.Scheduler, a.Logger)
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.StorageManager)
	a.MatterHandler = handlers.NewMatterHandler(a.StorageManager)
	a.IngestionHandler = handlers.NewIngestionHandler(a.IngestionService)
	a.DocumentHandler = handlers.NewDocumentHandler(a.StorageManager, a.VersionService, a.DuplicateService, a.CanonicalService)
	a.DuplicateHandler = handlers.NewDuplicateHandler(a.DuplicateService, a.CanonicalService)
}

// Start launches background services
func (a *App) Start() error {
	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

// Close shuts down background services and storage
func (a *App) Close() error {
	a.SchedulerService.Stop()

	if err := a.StorageManager.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Storage close failed")
		return err
	}

	a.Logger.Info().Msg("Application shut down")
	return nil
}
