// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/payroll-journal-converter/pkg/storage"
)

// DefaultSchedule runs the archive sweep once an hour.
const DefaultSchedule = "@hourly"

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	store     storage.Storage
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewScheduler creates a scheduler that prunes archived batches older
// than retention.
func NewScheduler(store storage.Storage, retention time.Duration, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		store:     store,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Start begins scheduled jobs. An empty schedule uses DefaultSchedule.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.Prune() }); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.Duration("retention", s.retention),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// Prune removes expired batches from the archive and reports how many
// were removed.
func (s *Scheduler) Prune() int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	removed, err := s.store.Prune(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to prune archive", slog.Any("error", err))
	}

	s.logger.Info("archive pruned",
		slog.Int("batches_removed", removed),
		slog.Time("cutoff", cutoff),
	)
	return removed
}
