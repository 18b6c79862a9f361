package compliance

import (
	"math"
	"testing"
)

// TestRules_Counts tests the number of rules per regulation.
func TestRules_Counts(t *testing.T) {
	tests := []struct {
		reg      Regulation
		expected int
	}{
		{EUAIAct, 6},
		{HIPAA, 5},
		{SOX, 4},
		{GDPR, 0},
		{CCPA, 0},
	}

	for _, tt := range tests {
		if got := len(Rules(tt.reg)); got != tt.expected {
			t.Errorf("Expected %d rules for %s, got %d", tt.expected, tt.reg, got)
		}
	}
}

// TestRules_Weights tests per-regulation weights and totals.
func TestRules_Weights(t *testing.T) {
	tests := []struct {
		reg     Regulation
		weights []float64
	}{
		{EUAIAct, []float64{0.15, 0.15, 0.10, 0.15, 0.20, 0.25}},
		{HIPAA, []float64{0.30, 0.25, 0.20, 0.15, 0.10}},
		{SOX, []float64{0.35, 0.30, 0.20, 0.15}},
	}

	for _, tt := range tests {
		rules := Rules(tt.reg)
		var sum float64
		for i, r := range rules {
			if r.Weight != tt.weights[i] {
				t.Errorf("%s rule %s: expected weight %.2f, got %.2f", tt.reg, r.Code, tt.weights[i], r.Weight)
			}
			sum += r.Weight
		}
		if math.Abs(TotalWeight(tt.reg)-sum) > 1e-9 {
			t.Errorf("%s: expected total weight %.2f, got %.2f", tt.reg, sum, TotalWeight(tt.reg))
		}
	}
}

// TestCatalog_Integrity tests that codes are unique per regulation and every
// check kind has an evaluator and remediation.
func TestCatalog_Integrity(t *testing.T) {
	seen := make(map[string]bool)
	for _, r := range AllRules() {
		key := string(r.Regulation) + "/" + r.Code
		if seen[key] {
			t.Errorf("Duplicate rule code %s", key)
		}
		seen[key] = true

		if r.Weight <= 0 {
			t.Errorf("Rule %s has non-positive weight", r.Code)
		}
		if _, ok := evaluators[r.Check]; !ok {
			t.Errorf("Rule %s has no evaluator for %s", r.Code, r.Check)
		}
		if Remediation(r.Check) == GenericRemediation {
			t.Errorf("Rule %s has no dedicated remediation", r.Code)
		}
	}

	for kind := range checkNames {
		if _, ok := evaluators[kind]; !ok {
			t.Errorf("Check %s has no evaluator", kind)
		}
	}
}

// TestRules_ReturnsCopy tests that callers cannot mutate the catalog.
func TestRules_ReturnsCopy(t *testing.T) {
	rules := Rules(HIPAA)
	rules[0].Weight = 99
	rules[0].Code = "MUTATED"

	if r, ok := Lookup(HIPAA, "HIPAA-164-502"); !ok || r.Weight != 0.30 {
		t.Errorf("Expected catalog to be unchanged, got %+v (found=%v)", r, ok)
	}

	all := AllRules()
	all[0].Title = "changed"
	if AllRules()[0].Title == "changed" {
		t.Error("Expected AllRules to return a copy")
	}
}

// TestLookup tests rule lookup by regulation and code.
func TestLookup(t *testing.T) {
	r, ok := Lookup(EUAIAct, "EUAIA-ART12-001")
	if !ok {
		t.Fatal("Expected to find EUAIA-ART12-001")
	}
	if r.Severity != SeverityCritical || r.Check != CheckAuditLogs {
		t.Errorf("Unexpected rule: %+v", r)
	}

	if _, ok := Lookup(SOX, "EUAIA-ART12-001"); ok {
		t.Error("Expected lookup under the wrong regulation to fail")
	}
}

// TestCheckKind_String tests check identifiers.
func TestCheckKind_String(t *testing.T) {
	if CheckAuditLogs.String() != "has_audit_logs" {
		t.Errorf("Expected has_audit_logs, got %s", CheckAuditLogs)
	}
	if CheckPHIDisclosureTracking.String() != "phi_disclosure_tracking" {
		t.Errorf("Expected phi_disclosure_tracking, got %s", CheckPHIDisclosureTracking)
	}
	if CheckKind(999).String() != "check(999)" {
		t.Errorf("Expected check(999), got %s", CheckKind(999))
	}
}
