package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/agriflow/reporting/internal/config"
)

// ArtifactPurger removes expired artifacts and reports how many went away.
type ArtifactPurger interface {
	PurgeOlderThan(cutoff time.Time) (int, error)
}

// Scheduler runs the periodic artifact-retention sweep.
type Scheduler struct {
	cron   *cron.Cron
	store  ArtifactPurger
	cfg    config.RetentionConfig
	logger *zap.Logger
}

// NewScheduler creates a new scheduler instance. An unknown timezone falls
// back to UTC.
func NewScheduler(cfg config.RetentionConfig, store ArtifactPurger, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, using UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		location = time.UTC
	}

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(location)),
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the retention sweep and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler",
		zap.String("schedule", s.cfg.CronSchedule),
		zap.Duration("max_age", s.cfg.MaxAge))

	_, err := s.cron.AddFunc(s.cfg.CronSchedule, s.sweep)
	if err != nil {
		s.logger.Error("failed to schedule retention sweep", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) sweep() {
	cutoff := time.Now().Add(-s.cfg.MaxAge)
	removed, err := s.store.PurgeOlderThan(cutoff)
	if err != nil {
		s.logger.Error("retention sweep failed", zap.Int("removed", removed), zap.Error(err))
		return
	}
	s.logger.Info("retention sweep completed", zap.Int("removed", removed))
}
