package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"agentguard-hq/agentguard/pkg/evidence"
	"agentguard-hq/agentguard/pkg/evidence/export"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain audit records.
	// 0 means keep records forever (no pruning).
	RetentionDays int

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string

	// ArchiveBeforeDelete exports expiring records to ArchivePath first.
	ArchiveBeforeDelete bool

	// ArchivePath is the directory to store archived records.
	ArchivePath string

	// MaxDeleteBatch bounds rows removed per delete statement.
	// 0 deletes everything in one statement.
	MaxDeleteBatch int
}

// DefaultConfig returns the default retention configuration. Audit records
// are kept for seven years, the longest horizon among the supported
// regulations.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays:       2555,
		PruneSchedule:       "0 3 * * *",
		ArchiveBeforeDelete: true,
		ArchivePath:         "data/archives/",
		MaxDeleteBatch:      1000,
	}
}

// Pruner enforces the retention period on audit records.
type Pruner struct {
	store     evidence.InteractionStore
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
	now       func() time.Time
}

// NewPruner creates a new retention pruner.
func NewPruner(store evidence.InteractionStore, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	pruner := &Pruner{
		store:  store,
		config: config,
		logger: slog.Default().With("component", "evidence.retention"),
		now:    time.Now,
	}
	pruner.scheduler = NewScheduler(pruner)

	return pruner
}

// Cutoff returns the instant before which records are expired.
func (p *Pruner) Cutoff() time.Time {
	return p.now().UTC().AddDate(0, 0, -p.config.RetentionDays)
}

// Prune archives (if configured) and deletes records older than the
// retention period. Returns the number of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		p.logger.Debug("retention disabled, nothing to prune")
		return 0, nil
	}

	cutoff := p.Cutoff()
	p.logger.Debug("pruning by age",
		"cutoff_time", cutoff,
		"retention_days", p.config.RetentionDays,
	)

	if p.config.ArchiveBeforeDelete {
		if err := p.archive(ctx, cutoff); err != nil {
			return 0, evidence.NewRetentionError(p.config.RetentionDays, err)
		}
	}

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, evidence.NewRetentionError(p.config.RetentionDays, err)
		}

		deleted, err := p.store.DeleteBefore(ctx, cutoff, p.config.MaxDeleteBatch)
		if err != nil {
			return total, evidence.NewRetentionError(p.config.RetentionDays, err)
		}
		total += deleted

		if p.config.MaxDeleteBatch <= 0 || deleted < int64(p.config.MaxDeleteBatch) {
			break
		}
	}

	if total == 0 {
		p.logger.Debug("no records pruned", "retention_days", p.config.RetentionDays)
	} else {
		p.logger.Info("audit record pruning completed",
			"total_deleted", total,
			"retention_days", p.config.RetentionDays,
		)
	}

	return total, nil
}

// archive streams every expiring record into a JSON file.
func (p *Pruner) archive(ctx context.Context, cutoff time.Time) error {
	// Query bounds are inclusive; DeleteBefore is strict.
	end := cutoff.Add(-time.Nanosecond)
	query := &evidence.Query{EndTime: &end, SortBy: "timestamp", SortOrder: "asc"}

	count, err := p.store.Count(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to count records for archiving: %w", err)
	}
	if count == 0 {
		p.logger.Debug("no records to archive")
		return nil
	}
	query.Limit = int(count)

	if err := os.MkdirAll(p.config.ArchivePath, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	archiveFile := filepath.Join(p.config.ArchivePath,
		fmt.Sprintf("audit-%s.json", p.now().UTC().Format("2006-01-02-150405")))
	f, err := os.Create(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	records, errs, err := p.store.QueryStream(streamCtx, query)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to query records for archiving: %w", err)
	}

	exportErr := export.NewJSONExporter(true).ExportStream(streamCtx, records, f)
	if exportErr != nil {
		// Unblock the producer.
		cancel()
	}
	streamErr := <-errs
	closeErr := f.Close()
	if err := errors.Join(exportErr, streamErr, closeErr); err != nil {
		return fmt.Errorf("failed to archive records: %w", err)
	}

	p.logger.Info("audit records archived",
		"archive_file", archiveFile,
		"record_count", count,
	)

	return nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}

// IsRunning reports whether scheduled pruning is active.
func (p *Pruner) IsRunning() bool {
	return p.scheduler.IsRunning()
}

// LastPruning returns the outcome of the most recent scheduled prune.
func (p *Pruner) LastPruning() *RunResult {
	return p.scheduler.LastRun()
}
