package evidence

import (
	"context"
	"io"
	"time"

	"agentguard-hq/agentguard/pkg/classify"
)

// EventTypeLLMCall is the event type of records produced by the proxy.
const EventTypeLLMCall = "llm_call"

// HighRiskThreshold is the risk score above which an interaction counts as
// high risk in aggregated statistics and logs.
const HighRiskThreshold = 0.6

// InteractionRecord is the immutable audit trail entry for a single
// intercepted AI-agent call. Raw prompt and response text are never stored;
// only their SHA-256 digests are.
type InteractionRecord struct {
	// Identity
	ID        string    `json:"id"`         // UUID v4
	AgentID   string    `json:"agent_id"`   // From X-Agent-ID
	SessionID string    `json:"session_id"` // From X-Session-ID (optional)
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`

	// Content digests
	PromptHash   string `json:"prompt_hash"`
	ResponseHash string `json:"response_hash"`

	// Usage
	PromptTokens   int    `json:"prompt_tokens"`
	ResponseTokens int    `json:"response_tokens"`
	Model          string `json:"model"`
	Provider       string `json:"provider"`

	// Classification
	RiskScore       float64         `json:"risk_score"` // 0.0-1.0
	PIIDetected     bool            `json:"pii_detected"`
	PIITypes        []string        `json:"pii_types"`
	ToolCalls       []ToolCall      `json:"tool_calls"`
	ComplianceFlags []classify.Flag `json:"compliance_flags"`

	// Metadata carries risk_level and eu_article.
	Metadata map[string]string `json:"metadata"`

	// Client
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}

// ToolCall identifies a tool invocation requested by the model.
type ToolCall struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// IsHighRisk reports whether the record exceeds HighRiskThreshold.
func (r *InteractionRecord) IsHighRisk() bool {
	return r.RiskScore > HighRiskThreshold
}

// Query defines filter parameters for querying interaction records.
type Query struct {
	// Time range
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	AgentID   string   `json:"agent_id,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	MinRisk   *float64 `json:"min_risk,omitempty"` // Inclusive lower bound on risk_score
	PIIOnly   bool     `json:"pii_only,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "timestamp", "risk_score"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// AggregatedStats summarizes an agent's interactions over a time window.
// It is derived on demand and never persisted.
type AggregatedStats struct {
	Total         int     `json:"total_interactions"`
	PIICount      int     `json:"pii_exposures"`
	HighRiskCount int     `json:"high_risk_interactions"`
	FlaggedCount  int     `json:"flagged_interactions"`
	AvgRiskScore  float64 `json:"avg_risk_score"`
	ActiveDays    int     `json:"active_days"`
	HasLogs       bool    `json:"has_logs"`
}

// AgentActivity is the per-agent summary served by the audit stats endpoint.
type AgentActivity struct {
	Total    int        `json:"total"`
	PIICount int        `json:"pii_count"`
	HighRisk int        `json:"high_risk"`
	AvgRisk  float64    `json:"avg_risk"`
	LastSeen *time.Time `json:"last_seen"`
}

// Overview is the fleet-wide summary across all agents.
type Overview struct {
	TotalInteractions int     `json:"total_interactions"`
	PIIExposures      int     `json:"pii_exposures"`
	HighRiskCount     int     `json:"high_risk_count"`
	AvgRiskScore      float64 `json:"avg_risk_score"`
}

// Attestation holds the controls an agent operator declares out-of-band.
// The compliance engine reads these flags; it never verifies them.
type Attestation struct {
	HumanOversight   bool `json:"has_human_oversight"`
	QMS              bool `json:"has_qms"`
	AccessControls   bool `json:"has_access_controls"`
	Encryption       bool `json:"has_encryption"`
	PolicyDocs       bool `json:"has_policy_docs"`
	BAA              bool `json:"has_baa"`
	InternalControls bool `json:"has_internal_controls"`
	RetentionPolicy  bool `json:"has_retention_policy"`
	ChangeManagement bool `json:"has_change_management"`
}

// DefaultAttestation returns the attestation assumed for a newly registered
// agent: encryption in transit on, every other control undeclared.
func DefaultAttestation() Attestation {
	return Attestation{Encryption: true}
}

// Agent is a registered AI agent.
type Agent struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Provider        string      `json:"provider"`
	Model           string      `json:"model"`
	RiskLevel       string      `json:"risk_level"`
	RegulationScope []string    `json:"regulation_scope"`
	Attestation     Attestation `json:"attestation"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	IsActive        bool        `json:"is_active"`
}

// FindingRecord is the persisted form of a compliance finding.
type FindingRecord struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Article     string `json:"article"`
	Remediation string `json:"remediation"`
}

// ComplianceCheck is an append-only history entry for one compliance
// evaluation. Entries are never updated in place.
type ComplianceCheck struct {
	ID              string          `json:"id"`
	AgentID         string          `json:"agent_id"`
	CheckDate       time.Time       `json:"check_date"`
	Regulation      string          `json:"regulation"`
	OverallScore    float64         `json:"overall_score"`
	Findings        []FindingRecord `json:"findings"`
	Recommendations []string        `json:"recommendations"`
	Status          string          `json:"status"`
	ReportPath      string          `json:"report_path,omitempty"`
}

// Report job statuses.
const (
	ReportGenerating = "generating"
	ReportCompleted  = "completed"
	ReportFailed     = "failed"
)

// ReportRecord tracks a generated report document.
type ReportRecord struct {
	ID          string            `json:"id"`
	AgentID     string            `json:"agent_id"`
	ReportType  string            `json:"report_type"`
	CreatedAt   time.Time         `json:"created_at"`
	PeriodStart *time.Time        `json:"period_start,omitempty"`
	PeriodEnd   *time.Time        `json:"period_end,omitempty"`
	FilePath    string            `json:"file_path,omitempty"`
	Status      string            `json:"status"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// InteractionStore persists interaction records.
// Implementations must be thread-safe and support concurrent access.
type InteractionStore interface {
	// InsertIfAbsent writes the record unless a record with the same ID
	// already exists. It reports whether a row was written.
	InsertIfAbsent(ctx context.Context, record *InteractionRecord) (bool, error)

	// Query retrieves records matching the filters. Returns an empty slice
	// if no records match.
	Query(ctx context.Context, query *Query) ([]*InteractionRecord, error)

	// QueryStream returns a channel of records for memory-efficient
	// streaming. Unlike Query it applies no default page size. Both
	// channels are closed when the query completes.
	QueryStream(ctx context.Context, query *Query) (<-chan *InteractionRecord, <-chan error, error)

	// Count returns the number of records matching the filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Stats aggregates an agent's records with timestamps in [start, end].
	Stats(ctx context.Context, agentID string, start, end time.Time) (*AggregatedStats, error)

	// Activity summarizes all of an agent's records.
	Activity(ctx context.Context, agentID string) (*AgentActivity, error)

	// Overview summarizes records across all agents.
	Overview(ctx context.Context) (*Overview, error)

	// DeleteBefore removes records older than cutoff, at most limit rows
	// when limit > 0. Used by retention only.
	DeleteBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}

// AgentStore persists agent registrations.
type AgentStore interface {
	CreateAgent(ctx context.Context, agent *Agent) error
	GetAgent(ctx context.Context, id string) (*Agent, error)
	ListActiveAgents(ctx context.Context) ([]*Agent, error)
	DeactivateAgent(ctx context.Context, id string) error
	CountActiveAgents(ctx context.Context) (int, error)
}

// ComplianceStore persists compliance evaluation history.
type ComplianceStore interface {
	AppendComplianceCheck(ctx context.Context, check *ComplianceCheck) error
	ComplianceHistory(ctx context.Context, agentID string, limit int) ([]*ComplianceCheck, error)
	LatestComplianceCheck(ctx context.Context, agentID string) (*ComplianceCheck, error)
	AverageComplianceScore(ctx context.Context) (float64, error)
}

// ReportStore persists report generation jobs.
type ReportStore interface {
	CreateReport(ctx context.Context, report *ReportRecord) error
	UpdateReportStatus(ctx context.Context, id, status, filePath string) error
	GetReport(ctx context.Context, id string) (*ReportRecord, error)

	// CountReports counts an agent's reports. An empty reportType counts
	// reports of any type.
	CountReports(ctx context.Context, agentID, reportType string) (int, error)
}

// Store is the full persistence surface implemented by every backend.
type Store interface {
	InteractionStore
	AgentStore
	ComplianceStore
	ReportStore
}

// Exporter defines the interface for exporting interaction records.
type Exporter interface {
	// Export writes records to w in the exporter's format.
	Export(ctx context.Context, records []*InteractionRecord, w io.Writer) error
}
