package storage

import (
	"context"
	"fmt"

	"agentguard-hq/agentguard/pkg/evidence"
)

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Options selects and configures a storage backend.
type Options struct {
	Backend  string
	SQLite   *SQLiteConfig
	Postgres *PostgresConfig
}

// Open creates the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (evidence.Store, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		return NewSQLiteStorage(opts.SQLite)
	case BackendPostgres:
		if opts.Postgres == nil || opts.Postgres.DSN == "" {
			return nil, evidence.NewStorageError(BackendPostgres, "open", fmt.Errorf("dsn is required"))
		}
		return NewPostgresStorage(ctx, opts.Postgres)
	case BackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

func errDuplicateID(id string) error {
	return fmt.Errorf("duplicate id %q", id)
}
