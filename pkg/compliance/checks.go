package compliance

import (
	"fmt"

	"agentguard-hq/agentguard/pkg/evidence"
)

// ReportTypeTechnicalDocs is the report type counted as generated
// documentation by the Article 13 check.
const ReportTypeTechnicalDocs = "technical_docs"

// Inputs is everything a rule check may look at. Zero values mean "no data".
type Inputs struct {
	Stats       evidence.AggregatedStats
	Attestation evidence.Attestation

	// TechnicalDocReports counts prior reports of type technical_docs.
	TechnicalDocReports int
	// Reports counts prior reports of any type.
	Reports int
}

// evaluator reports whether a check passes and any supporting evidence.
type evaluator func(in *Inputs) (passed bool, evidence []string)

func attested(flag func(a *evidence.Attestation) bool) evaluator {
	return func(in *Inputs) (bool, []string) {
		return flag(&in.Attestation), nil
	}
}

var evaluators = map[CheckKind]evaluator{
	CheckAuditLogs: func(in *Inputs) (bool, []string) {
		return in.Stats.HasLogs && in.Stats.Total > 0,
			[]string{fmt.Sprintf("Total logged interactions: %d", in.Stats.Total)}
	},
	CheckDocumentation: func(in *Inputs) (bool, []string) {
		return in.TechnicalDocReports > 0, nil
	},
	CheckTechnicalDocs: func(in *Inputs) (bool, []string) {
		return in.Reports > 0, nil
	},
	CheckRiskManagement: func(in *Inputs) (bool, []string) {
		return in.Stats.HasLogs,
			[]string{fmt.Sprintf("Risk scoring active: avg score = %.2f", in.Stats.AvgRiskScore)}
	},
	CheckPHIDisclosureTracking: func(in *Inputs) (bool, []string) {
		if !in.Stats.HasLogs {
			return false, nil
		}
		if in.Stats.PIICount > 0 {
			return true, []string{fmt.Sprintf("PHI exposures detected and logged: %d", in.Stats.PIICount)}
		}
		return true, nil
	},
	CheckDecisionAuditTrail: func(in *Inputs) (bool, []string) {
		return in.Stats.HasLogs && in.Stats.Total > 0, nil
	},

	CheckHumanOversight:   attested(func(a *evidence.Attestation) bool { return a.HumanOversight }),
	CheckQMS:              attested(func(a *evidence.Attestation) bool { return a.QMS }),
	CheckAccessControls:   attested(func(a *evidence.Attestation) bool { return a.AccessControls }),
	CheckEncryption:       attested(func(a *evidence.Attestation) bool { return a.Encryption }),
	CheckPolicyDocs:       attested(func(a *evidence.Attestation) bool { return a.PolicyDocs }),
	CheckBAA:              attested(func(a *evidence.Attestation) bool { return a.BAA }),
	CheckInternalControls: attested(func(a *evidence.Attestation) bool { return a.InternalControls }),
	CheckRetentionPolicy:  attested(func(a *evidence.Attestation) bool { return a.RetentionPolicy }),
	CheckChangeManagement: attested(func(a *evidence.Attestation) bool { return a.ChangeManagement }),
}

// EvaluateRule runs one rule. It returns nil when the rule passes and a
// finding otherwise. A check kind with no evaluator always fails.
func EvaluateRule(rule Rule, in *Inputs) *Finding {
	var (
		passed bool
		ev     []string
	)
	if eval, ok := evaluators[rule.Check]; ok {
		passed, ev = eval(in)
	}
	if passed {
		return nil
	}

	if ev == nil {
		ev = []string{}
	}
	return &Finding{
		Code:        rule.Code,
		Title:       rule.Title,
		Severity:    rule.Severity,
		Description: rule.Description,
		Article:     rule.Article,
		Evidence:    ev,
		Remediation: Remediation(rule.Check),
		ScoreImpact: 1.0,
	}
}
