package usecase

import (
	"context"
	"log/slog"
	"time"

	"ExamPapers/internal/ports"
)

// SyncFunc performs one complete sync.
type SyncFunc func(ctx context.Context) error

// Scheduler wires the cron driver with the sync use case.
type Scheduler struct {
	driver ports.Scheduler
	sync   SyncFunc
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring syncs.
func NewScheduler(driver ports.Scheduler, sync SyncFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, sync: sync, logger: logger.With("component", "scheduler")}
}

// Start registers the sync with the provided scheduler. Failed runs are
// logged; the next trigger runs again.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.sync == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled sync triggered", "at", trigger)
		if err := s.sync(ctx); err != nil {
			s.logger.Error("scheduled sync failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
