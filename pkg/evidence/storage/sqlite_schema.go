package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the SQLite tables. Timestamps are stored as fixed-width UTC
// text so that lexical order matches chronological order.
const Schema = `
CREATE TABLE IF NOT EXISTS agents (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    risk_level TEXT NOT NULL DEFAULT 'minimal',
    regulation_scope TEXT NOT NULL DEFAULT '[]',

    -- Attestation flags
    has_human_oversight BOOLEAN NOT NULL DEFAULT 0,
    has_qms BOOLEAN NOT NULL DEFAULT 0,
    has_access_controls BOOLEAN NOT NULL DEFAULT 0,
    has_encryption BOOLEAN NOT NULL DEFAULT 1,
    has_policy_docs BOOLEAN NOT NULL DEFAULT 0,
    has_baa BOOLEAN NOT NULL DEFAULT 0,
    has_internal_controls BOOLEAN NOT NULL DEFAULT 0,
    has_retention_policy BOOLEAN NOT NULL DEFAULT 0,
    has_change_management BOOLEAN NOT NULL DEFAULT 0,

    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS audit_logs (
    id TEXT PRIMARY KEY,
    agent_id TEXT NOT NULL,
    session_id TEXT,
    timestamp TEXT NOT NULL,
    event_type TEXT NOT NULL,
    prompt_hash TEXT,
    prompt_tokens INTEGER DEFAULT 0,
    response_hash TEXT,
    response_tokens INTEGER DEFAULT 0,
    model TEXT,
    provider TEXT,
    risk_score REAL DEFAULT 0.0,
    pii_detected BOOLEAN DEFAULT 0,
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
    check_date TEXT NOT NULL,
    regulation TEXT NOT NULL,
    overall_score REAL,
    findings TEXT DEFAULT '[]',
    recommendations TEXT DEFAULT '[]',
    status TEXT DEFAULT 'pending',
    report_path TEXT
);

CREATE TABLE IF NOT EXISTS reports (
    id TEXT PRIMARY KEY,
    agent_id TEXT NOT NULL,
    report_type TEXT NOT NULL,
    created_at TEXT NOT NULL,
    period_start TEXT,
    period_end TEXT,
    file_path TEXT,
    status TEXT DEFAULT 'generating',
    metadata TEXT DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_agent ON audit_logs(agent_id);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_logs(timestamp);
CREATE INDEX IF NOT EXISTS idx_compliance_agent ON compliance_checks(agent_id);
CREATE INDEX IF NOT EXISTS idx_reports_agent ON reports(agent_id);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
