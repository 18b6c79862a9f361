package compliance

import (
	"fmt"
	"time"

	"agentguard-hq/agentguard/pkg/evidence"
)

// Regulation identifies a regulatory framework.
type Regulation string

const (
	EUAIAct Regulation = "EU_AI_ACT"
	GDPR    Regulation = "GDPR"
	HIPAA   Regulation = "HIPAA"
	SOX     Regulation = "SOX"
	CCPA    Regulation = "CCPA"
)

// Regulations lists every supported regulation.
var Regulations = []Regulation{EUAIAct, GDPR, HIPAA, SOX, CCPA}

// IsValid reports whether r is a supported regulation.
func (r Regulation) IsValid() bool {
	switch r {
	case EUAIAct, GDPR, HIPAA, SOX, CCPA:
		return true
	}
	return false
}

// Severity ranks a rule or finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// CheckKind identifies the evaluator a rule runs. The set is closed: every
// kind has an entry in the evaluator table.
type CheckKind int

const (
	// Observed checks, derived from audit statistics and report history.
	CheckAuditLogs CheckKind = iota + 1
	CheckDocumentation
	CheckTechnicalDocs
	CheckRiskManagement
	CheckPHIDisclosureTracking
	CheckDecisionAuditTrail

	// Attestation checks, read from agent registration flags.
	CheckHumanOversight
	CheckQMS
	CheckAccessControls
	CheckEncryption
	CheckPolicyDocs
	CheckBAA
	CheckInternalControls
	CheckRetentionPolicy
	CheckChangeManagement
)

var checkNames = map[CheckKind]string{
	CheckAuditLogs:             "has_audit_logs",
	CheckDocumentation:         "has_documentation",
	CheckTechnicalDocs:         "has_technical_docs",
	CheckRiskManagement:        "has_risk_management",
	CheckPHIDisclosureTracking: "phi_disclosure_tracking",
	CheckDecisionAuditTrail:    "has_decision_audit_trail",
	CheckHumanOversight:        "has_human_oversight",
	CheckQMS:                   "has_qms",
	CheckAccessControls:        "has_access_controls",
	CheckEncryption:            "has_encryption",
	CheckPolicyDocs:            "has_policy_docs",
	CheckBAA:                   "has_baa",
	CheckInternalControls:      "has_internal_controls",
	CheckRetentionPolicy:       "has_retention_policy",
	CheckChangeManagement:      "has_change_management",
}

// String returns the check identifier, e.g. "has_audit_logs".
func (k CheckKind) String() string {
	if name, ok := checkNames[k]; ok {
		return name
	}
	return fmt.Sprintf("check(%d)", int(k))
}

// Rule is one checkable requirement of a regulation.
type Rule struct {
	Code        string
	Title       string
	Description string
	Severity    Severity
	Regulation  Regulation
	Article     string
	Check       CheckKind
	Weight      float64
}

// Finding is produced when a rule fails.
type Finding struct {
	Code        string   `json:"code"`
	Title       string   `json:"title"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Article     string   `json:"article"`
	Evidence    []string `json:"evidence"`
	Remediation string   `json:"remediation"`

	// ScoreImpact scales the rule weight subtracted on failure. Current
	// checks are binary and always report 1.0.
	ScoreImpact float64 `json:"score_impact"`
}

// Report is the graded result of one evaluation. Reports are appended to
// history and never updated.
type Report struct {
	ID              string     `json:"id"`
	AgentID         string     `json:"agent_id"`
	Regulation      Regulation `json:"regulation"`
	CheckDate       time.Time  `json:"check_date"`
	PeriodStart     time.Time  `json:"period_start"`
	PeriodEnd       time.Time  `json:"period_end"`
	OverallScore    float64    `json:"overall_score"`
	Grade           string     `json:"grade"`
	Findings        []Finding  `json:"findings"`
	Recommendations []string   `json:"recommendations"`
	Summary         string     `json:"summary"`

	TotalInteractions   int `json:"total_interactions"`
	FlaggedInteractions int `json:"flagged_interactions"`
	PIIExposures        int `json:"pii_exposures"`
	HighRisk            int `json:"high_risk_interactions"`

	Stats evidence.AggregatedStats `json:"stats"`
}

// CountSeverity returns how many findings have severity s.
func (r *Report) CountSeverity(s Severity) int {
	return countSeverity(r.Findings, s)
}

// ValidationError is returned for invalid evaluation input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
