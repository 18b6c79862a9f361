package reports

import (
	"context"
	"errors"
	"io"

	"agentguard-hq/agentguard/pkg/compliance"
)

// Report types.
const (
	TypeAnnexIV      = "annex_iv"
	TypeAuditSummary = "audit_summary"
	TypeHIPAAAudit   = "hipaa_audit"
	TypeSOXControls  = "sox_controls"
)

// Types lists the report types that can be requested.
var Types = []string{TypeAnnexIV, TypeAuditSummary, TypeHIPAAAudit, TypeSOXControls}

// Period bounds, in days.
const (
	MinPeriodDays     = 1
	MaxPeriodDays     = 365
	DefaultPeriodDays = 30
)

var (
	// ErrNotReady is returned when downloading a report still generating
	// or one that failed.
	ErrNotReady = errors.New("report not ready")

	// ErrFileMissing is returned when a completed report's document is gone.
	ErrFileMissing = errors.New("report file not found")
)

// Request asks for a report.
type Request struct {
	AgentID    string `json:"agent_id"`
	Type       string `json:"report_type"`
	PeriodDays int    `json:"period_days"`
}

// Validate checks a request, defaulting PeriodDays when zero.
func (r *Request) Validate() error {
	if r.AgentID == "" {
		return compliance.NewValidationError("agent_id", "must not be empty")
	}
	valid := false
	for _, t := range Types {
		if r.Type == t {
			valid = true
			break
		}
	}
	if !valid {
		return compliance.NewValidationError("report_type", "must be one of annex_iv, audit_summary, hipaa_audit, sox_controls")
	}
	if r.PeriodDays == 0 {
		r.PeriodDays = DefaultPeriodDays
	}
	if r.PeriodDays < MinPeriodDays || r.PeriodDays > MaxPeriodDays {
		return compliance.NewValidationError("period_days", "must be between 1 and 365")
	}
	return nil
}

// Sink stores rendered report documents.
type Sink interface {
	// Put stores a document and returns the location recorded on the report.
	Put(ctx context.Context, name string, body []byte) (string, error)

	// Open returns the document at location. Missing documents yield an
	// error matching ErrFileMissing.
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}
