package reports

import (
	"fmt"
	"strings"
	"time"

	"agentguard-hq/agentguard/pkg/compliance"
	"agentguard-hq/agentguard/pkg/evidence"
)

// Defaults used when the agent is not registered.
const (
	defaultAgentName = "AI Agent"
	defaultProvider  = "openai"
	defaultModel     = "gpt-4o-mini"
	defaultRiskLevel = "limited"
)

// Data is everything a report document is rendered from.
type Data struct {
	Type        string
	AgentID     string
	Agent       *evidence.Agent           // nil when unregistered
	Check       *evidence.ComplianceCheck // latest check, nil when none
	Stats       evidence.AggregatedStats
	Reports     int
	GeneratedAt time.Time
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Render produces the markdown document for d.Type.
func Render(d *Data) ([]byte, error) {
	var b strings.Builder
	switch d.Type {
	case TypeAnnexIV:
		renderAnnexIV(&b, d)
	case TypeAuditSummary:
		renderAuditSummary(&b, d, "Audit Summary Report")
	case TypeHIPAAAudit:
		renderAuditSummary(&b, d, "HIPAA Audit Report")
		renderControls(&b, d, compliance.HIPAA)
	case TypeSOXControls:
		renderAuditSummary(&b, d, "SOX Controls Report")
		renderControls(&b, d, compliance.SOX)
	default:
		return nil, fmt.Errorf("unknown report type %q", d.Type)
	}
	return []byte(b.String()), nil
}

func (d *Data) agentField(get func(a *evidence.Agent) string, fallback string) string {
	if d.Agent == nil {
		return fallback
	}
	if v := get(d.Agent); v != "" {
		return v
	}
	return fallback
}

func renderAnnexIV(b *strings.Builder, d *Data) {
	name := d.agentField(func(a *evidence.Agent) string { return a.Name }, defaultAgentName)

	fmt.Fprintf(b, "# EU AI Act Annex IV Technical Documentation\n\n")
	fmt.Fprintf(b, "**System:** %s  \n", name)
	fmt.Fprintf(b, "**Agent ID:** %s  \n", d.AgentID)
	fmt.Fprintf(b, "**Generated:** %s\n\n", d.GeneratedAt.UTC().Format(time.RFC3339))

	b.WriteString("## 1. General Description\n\n")
	if desc := d.agentField(func(a *evidence.Agent) string { return a.Description }, ""); desc != "" {
		fmt.Fprintf(b, "%s\n\n", desc)
	}
	fmt.Fprintf(b, "- Provider: %s\n", d.agentField(func(a *evidence.Agent) string { return a.Provider }, defaultProvider))
	fmt.Fprintf(b, "- Model: %s\n", d.agentField(func(a *evidence.Agent) string { return a.Model }, defaultModel))
	fmt.Fprintf(b, "- Risk classification: %s\n\n", d.agentField(func(a *evidence.Agent) string { return a.RiskLevel }, defaultRiskLevel))

	b.WriteString("## 2. Monitoring and Logging\n\n")
	fmt.Fprintf(b, "- Interactions logged in period: %d\n", d.Stats.Total)
	fmt.Fprintf(b, "- Interactions with personal data: %d\n", d.Stats.PIICount)
	fmt.Fprintf(b, "- High-risk interactions: %d\n\n", d.Stats.HighRiskCount)

	b.WriteString("## 3. Compliance Assessment\n\n")
	if d.Check == nil {
		b.WriteString("No compliance check has been run for this agent.\n")
		return
	}
	fmt.Fprintf(b, "- Regulation: %s\n", d.Check.Regulation)
	fmt.Fprintf(b, "- Last assessed: %s\n", d.Check.CheckDate.UTC().Format(time.RFC3339))
	fmt.Fprintf(b, "- Score: %.1f/100 (grade %s)\n\n", d.Check.OverallScore, compliance.Grade(d.Check.OverallScore))

	if len(d.Check.Findings) > 0 {
		b.WriteString("### Findings\n\n")
		b.WriteString("| Code | Severity | Article | Title |\n|---|---|---|---|\n")
		for _, f := range d.Check.Findings {
			fmt.Fprintf(b, "| %s | %s | %s | %s |\n", f.Code, f.Severity, f.Article, f.Title)
		}
		b.WriteString("\n")
	}
	if len(d.Check.Recommendations) > 0 {
		b.WriteString("### Recommendations\n\n")
		for _, r := range d.Check.Recommendations {
			fmt.Fprintf(b, "- %s\n", r)
		}
	}
}

func renderAuditSummary(b *strings.Builder, d *Data, title string) {
	fmt.Fprintf(b, "# %s\n\n", title)
	fmt.Fprintf(b, "**Agent ID:** %s  \n", d.AgentID)
	fmt.Fprintf(b, "**Period:** %s to %s  \n", d.PeriodStart.UTC().Format("2006-01-02"), d.PeriodEnd.UTC().Format("2006-01-02"))
	fmt.Fprintf(b, "**Generated:** %s\n\n", d.GeneratedAt.UTC().Format(time.RFC3339))

	b.WriteString("## Activity\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Total interactions | %d |\n", d.Stats.Total)
	fmt.Fprintf(b, "| PII exposures | %d |\n", d.Stats.PIICount)
	fmt.Fprintf(b, "| High-risk interactions | %d |\n", d.Stats.HighRiskCount)
	fmt.Fprintf(b, "| Flagged interactions | %d |\n", d.Stats.FlaggedCount)
	fmt.Fprintf(b, "| Average risk score | %.4f |\n", d.Stats.AvgRiskScore)
	fmt.Fprintf(b, "| Active days | %d |\n\n", d.Stats.ActiveDays)

	if !d.Stats.HasLogs {
		b.WriteString("No interactions were recorded in this period.\n\n")
	}
}

// renderControls lists every rule of reg with its current pass/fail state.
func renderControls(b *strings.Builder, d *Data, reg compliance.Regulation) {
	in := &compliance.Inputs{Stats: d.Stats, Reports: d.Reports}
	if d.Agent != nil {
		in.Attestation = d.Agent.Attestation
	}

	b.WriteString("## Controls\n\n")
	b.WriteString("| Code | Control | Severity | Status |\n|---|---|---|---|\n")
	for _, rule := range compliance.Rules(reg) {
		status := "PASS"
		if compliance.EvaluateRule(rule, in) != nil {
			status = "FAIL"
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", rule.Code, rule.Title, rule.Severity, status)
	}
	b.WriteString("\n")
}
