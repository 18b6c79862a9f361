package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RunResult describes the most recent scheduled pruning.
type RunResult struct {
	At      time.Time
	Deleted int64
	Err     error
}

// Scheduler runs the pruner on a cron schedule and remembers the outcome
// of the last run.
type Scheduler struct {
	pruner *Pruner
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	last    *RunResult
}

// NewScheduler creates a scheduler for pruner. The schedule is read from
// the pruner's PruneSchedule when Start is called.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		cron:   cron.New(),
		logger: slog.Default().With("component", "evidence.retention.scheduler"),
	}
}

// Start registers the pruning job. An empty schedule is a no-op, and the
// scheduler stops on its own when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	schedule := s.pruner.config.PruneSchedule

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case schedule == "":
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	case s.running:
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("retention scheduler started",
		"schedule", schedule,
		"retention_days", s.pruner.config.RetentionDays,
		"archive", s.pruner.config.ArchiveBeforeDelete,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	started := time.Now()
	deleted, err := s.pruner.Prune(ctx)

	s.mu.Lock()
	s.last = &RunResult{At: started, Deleted: deleted, Err: err}
	s.mu.Unlock()

	switch {
	case err != nil:
		s.logger.Error("scheduled pruning failed", "error", err)
	case deleted > 0:
		s.logger.Info("scheduled pruning completed",
			"deleted_count", deleted,
			"duration", time.Since(started).String(),
		)
	default:
		s.logger.Debug("scheduled pruning completed, no audit records expired")
	}
}

// Stop stops the cron runner and waits for a running prune.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	// run takes mu, so wait without holding it.
	<-s.cron.Stop().Done()
	s.logger.Info("retention scheduler stopped")
}

// IsRunning reports whether the cron runner is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastRun returns the result of the most recent scheduled prune, or nil
// before the first one.
func (s *Scheduler) LastRun() *RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	r := *s.last
	return &r
}

// NextRun returns the next scheduled pruning time, or nil when nothing is
// scheduled.
func (s *Scheduler) NextRun() *time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
