// Package scheduler wires the two cron cadences spec.md §5 describes: an
// ingestion handler per source and one dedup handler, both every 5 minutes.
// Overlapping firings are explicitly tolerated by the core (append-only raw
// store, idempotent upserts), so unlike some cron-based services this one
// carries no distributed locking around task execution.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs named tasks on cron schedules using robfig/cron.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// AddTask registers fn under a standard 5-field cron schedule (e.g.
// "*/5 * * * *"). Errors from fn are logged, never propagated to cron.
func (s *Scheduler) AddTask(name, schedule string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := fn(context.Background()); err != nil {
			s.logger.Error("scheduled task failed", "task", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("add task %q with schedule %q: %w", name, schedule, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop blocks until any in-flight task finishes.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
