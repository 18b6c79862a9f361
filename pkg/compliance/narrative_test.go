package compliance

import (
	"strings"
	"testing"

	"agentguard-hq/agentguard/pkg/evidence"
)

// TestGrade tests letter grade boundaries.
func TestGrade(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{100, "A"},
		{90, "A"},
		{89.9, "B"},
		{80, "B"},
		{79.9, "C"},
		{70, "C"},
		{69.9, "D"},
		{60, "D"},
		{59.9, "F"},
		{0, "F"},
	}

	for _, tt := range tests {
		if got := Grade(tt.score); got != tt.expected {
			t.Errorf("Grade(%.1f) = %s, expected %s", tt.score, got, tt.expected)
		}
	}
}

// TestRecommendations tests recommendation ordering and conditional items.
func TestRecommendations(t *testing.T) {
	findings := []Finding{
		{Code: "A", Severity: SeverityCritical},
		{Code: "B", Severity: SeverityCritical},
		{Code: "C", Severity: SeverityHigh},
		{Code: "D", Severity: SeverityMedium},
	}
	stats := evidence.AggregatedStats{PIICount: 5, HighRiskCount: 12}

	recs := Recommendations(findings, stats)
	expected := []string{
		"URGENT: Resolve 2 critical findings immediately before enterprise deployment",
		"Address 1 high-severity gaps within 30 days",
		"Implement PII masking: 5 PII exposures detected in AI interactions",
		"Review 12 high-risk interactions for appropriate human oversight",
		"Schedule monthly compliance reviews using automated scanning",
		"Train team on EU AI Act obligations specific to your use case",
		"Prepare Annex IV technical documentation for regulatory authority review",
	}

	if len(recs) != len(expected) {
		t.Fatalf("Expected %d recommendations, got %d: %v", len(expected), len(recs), recs)
	}
	for i := range expected {
		if recs[i] != expected[i] {
			t.Errorf("Recommendation %d: expected %q, got %q", i, expected[i], recs[i])
		}
	}
}

// TestRecommendations_StandingOnly tests that the standing tail is always present.
func TestRecommendations_StandingOnly(t *testing.T) {
	recs := Recommendations(nil, evidence.AggregatedStats{})
	if len(recs) != 3 {
		t.Fatalf("Expected 3 standing recommendations, got %v", recs)
	}

	// Appending to the result must not leak into later calls.
	_ = append(recs, "extra")
	if again := Recommendations(nil, evidence.AggregatedStats{}); len(again) != 3 {
		t.Errorf("Expected standing list to be unchanged, got %v", again)
	}
}

// TestSummary tests the narrative bands and interpolation.
func TestSummary(t *testing.T) {
	findings := []Finding{{Severity: SeverityCritical}, {Severity: SeverityHigh}, {Severity: SeverityHigh}}
	stats := evidence.AggregatedStats{Total: 100}

	tests := []struct {
		score  float64
		status string
		action string
	}{
		{85, "substantially compliant", "Minor gaps identified."},
		{80, "substantially compliant", "Minor gaps identified."},
		{65, "partially compliant", "Significant gaps require attention"},
		{10, "non-compliant", "Immediate action required."},
	}

	for _, tt := range tests {
		summary := Summary(tt.score, findings, stats, HIPAA)
		if !strings.Contains(summary, "currently "+tt.status+" with HIPAA requirements") {
			t.Errorf("Score %.1f: expected status %q in %q", tt.score, tt.status, summary)
		}
		if !strings.Contains(summary, tt.action) {
			t.Errorf("Score %.1f: expected action %q in %q", tt.score, tt.action, summary)
		}
	}

	expected := "This AI agent is currently non-compliant with HIPAA requirements, achieving a compliance score of 0.0/100. " +
		"Analysis of 100 logged interactions identified 3 findings (1 critical, 2 high severity). " +
		"Immediate action required. Do not deploy to regulated environments."
	if got := Summary(0, findings, stats, HIPAA); got != expected {
		t.Errorf("Expected summary:\n%s\ngot:\n%s", expected, got)
	}
}

// TestReport_CountSeverity tests severity counting shared with the narrative.
func TestReport_CountSeverity(t *testing.T) {
	r := &Report{Findings: []Finding{
		{Severity: SeverityCritical},
		{Severity: SeverityHigh},
		{Severity: SeverityCritical},
		{Severity: SeverityMedium},
	}}
	if got := r.CountSeverity(SeverityCritical); got != 2 {
		t.Errorf("critical = %d, expected 2", got)
	}
	if got := r.CountSeverity(SeverityHigh); got != 1 {
		t.Errorf("high = %d, expected 1", got)
	}
	if got := r.CountSeverity(SeverityLow); got != 0 {
		t.Errorf("low = %d, expected 0", got)
	}
}
