package compliance

import (
	"fmt"

	"agentguard-hq/agentguard/pkg/evidence"
)

// Grade maps a score to a letter. Lower bounds are inclusive.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// standingRecommendations are appended to every report.
var standingRecommendations = []string{
	"Schedule monthly compliance reviews using automated scanning",
	"Train team on EU AI Act obligations specific to your use case",
	"Prepare Annex IV technical documentation for regulatory authority review",
}

// Recommendations derives the ordered recommendation list from findings and
// statistics.
func Recommendations(findings []Finding, stats evidence.AggregatedStats) []string {
	critical, high := countSeverities(findings)

	var recs []string
	if critical > 0 {
		recs = append(recs, fmt.Sprintf("URGENT: Resolve %d critical findings immediately before enterprise deployment", critical))
	}
	if high > 0 {
		recs = append(recs, fmt.Sprintf("Address %d high-severity gaps within 30 days", high))
	}
	if stats.PIICount > 0 {
		recs = append(recs, fmt.Sprintf("Implement PII masking: %d PII exposures detected in AI interactions", stats.PIICount))
	}
	if stats.HighRiskCount > 0 {
		recs = append(recs, fmt.Sprintf("Review %d high-risk interactions for appropriate human oversight", stats.HighRiskCount))
	}
	return append(recs, standingRecommendations...)
}

// Summary renders the narrative paragraph for a report.
func Summary(score float64, findings []Finding, stats evidence.AggregatedStats, reg Regulation) string {
	critical, high := countSeverities(findings)

	var status, action string
	switch {
	case score >= 80:
		status = "substantially compliant"
		action = "Minor gaps identified. Focus on closing remaining findings."
	case score >= 60:
		status = "partially compliant"
		action = "Significant gaps require attention before audit or enterprise sales."
	default:
		status = "non-compliant"
		action = "Immediate action required. Do not deploy to regulated environments."
	}

	return fmt.Sprintf(
		"This AI agent is currently %s with %s requirements, achieving a compliance score of %.1f/100. "+
			"Analysis of %d logged interactions identified %d findings (%d critical, %d high severity). %s",
		status, reg, score, stats.Total, len(findings), critical, high, action)
}

func countSeverities(findings []Finding) (critical, high int) {
	return countSeverity(findings, SeverityCritical), countSeverity(findings, SeverityHigh)
}

func countSeverity(findings []Finding, s Severity) int {
	n := 0
	for _, f := range findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}
