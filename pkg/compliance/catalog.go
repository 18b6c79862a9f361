package compliance

// catalog holds every rule, grouped by regulation in evaluation order.
// It is never mutated; accessors hand out copies.
var catalog = [...]Rule{
	// EU AI Act
	{
		Code:        "EUAIA-ART13-001",
		Title:       "Transparency & Documentation",
		Description: "High-risk AI systems must provide instructions and documentation (Article 13)",
		Severity:    SeverityHigh,
		Regulation:  EUAIAct,
		Article:     "Article 13",
		Check:       CheckDocumentation,
		Weight:      0.15,
	},
	{
		Code:        "EUAIA-ART14-001",
		Title:       "Human Oversight Mechanisms",
		Description: "High-risk AI must enable human oversight and intervention (Article 14)",
		Severity:    SeverityHigh,
		Regulation:  EUAIAct,
		Article:     "Article 14",
		Check:       CheckHumanOversight,
		Weight:      0.15,
	},
	{
		Code:        "EUAIA-ART17-001",
		Title:       "Quality Management System",
		Description: "Providers of high-risk AI must maintain quality management system (Article 17)",
		Severity:    SeverityMedium,
		Regulation:  EUAIAct,
		Article:     "Article 17",
		Check:       CheckQMS,
		Weight:      0.10,
	},
	{
		Code:        "EUAIA-ART9-001",
		Title:       "Risk Management System",
		Description: "Providers must establish continuous risk management (Article 9)",
		Severity:    SeverityHigh,
		Regulation:  EUAIAct,
		Article:     "Article 9",
		Check:       CheckRiskManagement,
		Weight:      0.15,
	},
	{
		Code:        "EUAIA-ANNIV-001",
		Title:       "Technical Documentation (Annex IV)",
		Description: "Detailed technical documentation must be maintained and available for audit",
		Severity:    SeverityHigh,
		Regulation:  EUAIAct,
		Article:     "Annex IV",
		Check:       CheckTechnicalDocs,
		Weight:      0.20,
	},
	{
		Code:        "EUAIA-ART12-001",
		Title:       "Record Keeping & Audit Logs",
		Description: "High-risk AI must keep automatic logs to ensure traceability (Article 12)",
		Severity:    SeverityCritical,
		Regulation:  EUAIAct,
		Article:     "Article 12",
		Check:       CheckAuditLogs,
		Weight:      0.25,
	},

	// HIPAA
	{
		Code:        "HIPAA-164-502",
		Title:       "PHI Disclosure Tracking",
		Description: "All PHI access and disclosures must be logged and traceable",
		Severity:    SeverityCritical,
		Regulation:  HIPAA,
		Article:     "45 CFR 164.502",
		Check:       CheckPHIDisclosureTracking,
		Weight:      0.30,
	},
	{
		Code:        "HIPAA-164-308",
		Title:       "Access Controls",
		Description: "AI systems accessing PHI must implement access controls",
		Severity:    SeverityHigh,
		Regulation:  HIPAA,
		Article:     "45 CFR 164.308(a)(4)",
		Check:       CheckAccessControls,
		Weight:      0.25,
	},
	{
		Code:        "HIPAA-164-312",
		Title:       "Encryption in Transit",
		Description: "All PHI transmitted via AI agent must be encrypted",
		Severity:    SeverityHigh,
		Regulation:  HIPAA,
		Article:     "45 CFR 164.312(e)(1)",
		Check:       CheckEncryption,
		Weight:      0.20,
	},
	{
		Code:        "HIPAA-164-316",
		Title:       "Policy Documentation",
		Description: "Policies governing AI use with PHI must be documented",
		Severity:    SeverityMedium,
		Regulation:  HIPAA,
		Article:     "45 CFR 164.316",
		Check:       CheckPolicyDocs,
		Weight:      0.15,
	},
	{
		Code:        "HIPAA-BAA",
		Title:       "Business Associate Agreement",
		Description: "BAA required with AI model providers processing PHI",
		Severity:    SeverityCritical,
		Regulation:  HIPAA,
		Article:     "45 CFR 164.504(e)",
		Check:       CheckBAA,
		Weight:      0.10,
	},

	// SOX
	{
		Code:        "SOX-302-001",
		Title:       "AI Decision Auditability",
		Description: "AI-assisted financial decisions must be auditable (Section 302)",
		Severity:    SeverityCritical,
		Regulation:  SOX,
		Article:     "SOX Section 302",
		Check:       CheckDecisionAuditTrail,
		Weight:      0.35,
	},
	{
		Code:        "SOX-404-001",
		Title:       "Internal Controls Documentation",
		Description: "Internal controls over AI use in financial reporting (Section 404)",
		Severity:    SeverityHigh,
		Regulation:  SOX,
		Article:     "SOX Section 404",
		Check:       CheckInternalControls,
		Weight:      0.30,
	},
	{
		Code:        "SOX-802-001",
		Title:       "Records Retention",
		Description: "AI interaction records must be retained for 7 years",
		Severity:    SeverityHigh,
		Regulation:  SOX,
		Article:     "SOX Section 802",
		Check:       CheckRetentionPolicy,
		Weight:      0.20,
	},
	{
		Code:        "SOX-ICFR-001",
		Title:       "Change Management",
		Description: "AI model changes must follow documented change control process",
		Severity:    SeverityMedium,
		Regulation:  SOX,
		Article:     "PCAOB AS 2201",
		Check:       CheckChangeManagement,
		Weight:      0.15,
	},
}

// Rules returns a copy of the rules for a regulation in evaluation order.
// GDPR and CCPA currently have no rules.
func Rules(reg Regulation) []Rule {
	var rules []Rule
	for _, r := range catalog {
		if r.Regulation == reg {
			rules = append(rules, r)
		}
	}
	return rules
}

// AllRules returns a copy of the whole catalog.
func AllRules() []Rule {
	rules := make([]Rule, len(catalog))
	copy(rules, catalog[:])
	return rules
}

// Lookup finds a rule by regulation and code.
func Lookup(reg Regulation, code string) (Rule, bool) {
	for _, r := range catalog {
		if r.Regulation == reg && r.Code == code {
			return r, true
		}
	}
	return Rule{}, false
}

// TotalWeight sums the rule weights of a regulation.
func TotalWeight(reg Regulation) float64 {
	var total float64
	for _, r := range catalog {
		if r.Regulation == reg {
			total += r.Weight
		}
	}
	return total
}
