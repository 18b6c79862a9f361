package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"agentguard-hq/agentguard/pkg/evidence"
)

// PostgresSchema creates the PostgreSQL tables.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS agents (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    risk_level TEXT NOT NULL DEFAULT 'minimal',
    regulation_scope TEXT NOT NULL DEFAULT '[]',
    has_human_oversight BOOLEAN NOT NULL DEFAULT FALSE,
    has_qms BOOLEAN NOT NULL DEFAULT FALSE,
    has_access_controls BOOLEAN NOT NULL DEFAULT FALSE,
    has_encryption BOOLEAN NOT NULL DEFAULT TRUE,
    has_policy_docs BOOLEAN NOT NULL DEFAULT FALSE,
    has_baa BOOLEAN NOT NULL DEFAULT FALSE,
    has_internal_controls BOOLEAN NOT NULL DEFAULT FALSE,
    has_retention_policy BOOLEAN NOT NULL DEFAULT FALSE,
    has_change_management BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS audit_logs (
    id TEXT PRIMARY KEY,
    agent_id TEXT NOT NULL,
    session_id TEXT,
    timestamp TIMESTAMPTZ NOT NULL,
    event_type TEXT NOT NULL,
    prompt_hash TEXT,
    prompt_tokens INTEGER DEFAULT 0,
    response_hash TEXT,
    response_tokens INTEGER DEFAULT 0,
    model TEXT,
    provider TEXT,
    risk_score DOUBLE PRECISION DEFAULT 0.0,
    pii_detected BOOLEAN DEFAULT FALSE,
    pii_types TEXT DEFAULT '[]',
    tool_calls TEXT DEFAULT '[]',
    compliance_flags TEXT DEFAULT '[]',
    metadata TEXT DEFAULT '{}',
    ip_address TEXT,
    user_agent TEXT
);

CREATE TABLE IF NOT EXISTS compliance_checks (
    id TEXT PRIMARY KEY,
    agent_id TEXT NOT NULL,
    check_date TIMESTAMPTZ NOT NULL,
    regulation TEXT NOT NULL,
    overall_score DOUBLE PRECISION,
    findings TEXT DEFAULT '[]',
    recommendations TEXT DEFAULT '[]',
    status TEXT DEFAULT 'pending',
    report_path TEXT
);

CREATE TABLE IF NOT EXISTS reports (
    id TEXT PRIMARY KEY,
    agent_id TEXT NOT NULL,
    report_type TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    period_start TIMESTAMPTZ,
    period_end TIMESTAMPTZ,
    file_path TEXT,
    status TEXT DEFAULT 'generating',
    metadata TEXT DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_audit_agent ON audit_logs(agent_id);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_logs(timestamp);
CREATE INDEX IF NOT EXISTS idx_compliance_agent ON compliance_checks(agent_id);
CREATE INDEX IF NOT EXISTS idx_reports_agent ON reports(agent_id);
`

// PostgresConfig contains configuration for the PostgreSQL backend.
type PostgresConfig struct {
	// DSN is a lib/pq connection string or URL.
	DSN string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 25
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// ConnMaxLifetime bounds how long a connection is reused.
	// Default: 5 minutes
	ConnMaxLifetime time.Duration

	// ConnectTimeout bounds the initial ping and schema creation.
	// Default: 10 seconds
	ConnectTimeout time.Duration
}

// PostgresStorage implements evidence.Store using PostgreSQL.
type PostgresStorage struct {
	*sqlStore
}

// NewPostgresStorage connects to PostgreSQL and creates the schema.
func NewPostgresStorage(ctx context.Context, config *PostgresConfig) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, evidence.NewStorageError("postgres", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	timeout := config.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	initCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(initCtx); err != nil {
		db.Close()
		return nil, evidence.NewStorageError("postgres", "ping", err)
	}

	s := NewPostgresStorageFromDB(db)
	if err := s.Migrate(initCtx); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("PostgreSQL storage initialized", "max_open_conns", config.MaxOpenConns)
	return s, nil
}

// NewPostgresStorageFromDB wraps an existing connection pool without
// creating the schema.
func NewPostgresStorageFromDB(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{
		sqlStore: &sqlStore{
			db:      db,
			dialect: postgresDialect,
			logger:  slog.Default().With("component", "evidence.storage.postgres"),
		},
	}
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, PostgresSchema); err != nil {
		return evidence.NewStorageError("postgres", "create_schema", err)
	}
	return nil
}
