package server

import (
	"context"
	"fmt"

	"agentguard-hq/agentguard/pkg/config"
	"agentguard-hq/agentguard/pkg/evidence"
	"agentguard-hq/agentguard/pkg/evidence/storage"
	"agentguard-hq/agentguard/pkg/reports"
)

// openStore opens the backend selected by cfg.
func openStore(ctx context.Context, cfg config.StorageConfig) (evidence.Store, error) {
	return storage.Open(ctx, storage.Options{
		Backend: cfg.Backend,
		SQLite: &storage.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		},
		Postgres: &storage.PostgresConfig{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
			ConnectTimeout:  cfg.Postgres.ConnectTimeout,
		},
	})
}

// OpenStore opens the configured audit store for one-shot CLI commands.
func OpenStore(ctx context.Context, cfg *config.Config) (evidence.Store, error) {
	return openStore(ctx, cfg.Storage)
}

// newSink creates the report sink selected by cfg.
func newSink(ctx context.Context, cfg config.ReportsConfig) (reports.Sink, error) {
	switch cfg.Sink {
	case "s3":
		sink, err := reports.NewS3Sink(ctx, reports.S3Config{
			Bucket:   cfg.S3.Bucket,
			Prefix:   cfg.S3.Prefix,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return sink, nil
	case "local", "":
		return reports.NewLocalSink(cfg.OutputDir), nil
	default:
		return nil, fmt.Errorf("unknown report sink %q", cfg.Sink)
	}
}

// NewReportSink creates the configured report sink for CLI commands.
func NewReportSink(ctx context.Context, cfg *config.Config) (reports.Sink, error) {
	return newSink(ctx, cfg.Reports)
}
