package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/common"
	"github.com/lexhold/lexhold/internal/interfaces"
)

// Service runs the periodic canonical-selection sweep over every matter.
// Overlapping runs are skipped rather than queued.
type Service struct {
	matters   interfaces.MatterStorage
	canonical interfaces.CanonicalService
	config    *common.SchedulerConfig
	cron      *cron.Cron
	logger    arbor.ILogger

	mu        sync.Mutex
	isRunning bool
	started   bool
}

// NewService creates the maintenance scheduler
func NewService(matters interfaces.MatterStorage, canonical interfaces.CanonicalService, config *common.SchedulerConfig, logger arbor.ILogger) interfaces.SchedulerService {
	return &Service{
		matters:   matters,
		canonical: canonical,
		config:    config,
		cron:      cron.New(),
		logger:    logger,
	}
}

var _ interfaces.SchedulerService = (*Service)(nil)

// Start registers the sweep job and starts the cron loop
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Scheduler disabled by configuration")
		return nil
	}
	if s.started {
		return fmt.Errorf("scheduler already running")
	}

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = "0 2 * * *"
	}

	if _, err := s.cron.AddFunc(schedule, s.runCanonicalSweep); err != nil {
		return fmt.Errorf("failed to schedule canonical sweep: %w", err)
	}

	s.cron.Start()
	s.started = true

	s.logger.Info().Str("schedule", schedule).Msg("Scheduler started")
	return nil
}

// Stop halts the cron loop. In-flight sweeps run to completion.
func (s *Service) Stop() {
	if !s.started {
		return
	}
	s.cron.Stop()
	s.started = false
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Service) runCanonicalSweep() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("panic", fmt.Sprintf("%v", r)).Msg("Panic recovered in canonical sweep")
		}
	}()

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		s.logger.Debug().Msg("Canonical sweep already in progress, skipping cycle")
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	start := time.Now()
	ctx := context.Background()

	matters, err := s.matters.ListMatters(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Canonical sweep failed to list matters")
		return
	}

	groupsMarked := 0
	for _, matter := range matters {
		marked, err := s.canonical.SelectForMatter(ctx, matter.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("matter_id", matter.ID).Msg("Canonical selection failed for matter")
			continue
		}
		groupsMarked += marked
	}

	s.logger.Info().
		Int("matters", len(matters)).
		Int("groups_marked", groupsMarked).
		Dur("duration", time.Since(start)).
		Msg("Canonical sweep complete")
}
