package compliance

// GenericRemediation is used for checks with no dedicated guidance.
const GenericRemediation = "Review and remediate manually"

var remediations = map[CheckKind]string{
	CheckAuditLogs:             "Implement comprehensive audit logging via AgentGuard middleware",
	CheckDocumentation:         "Generate technical documentation using AgentGuard report generator",
	CheckHumanOversight:        "Add human-in-the-loop review for high-risk decisions; implement override mechanisms",
	CheckQMS:                   "Document your quality management system including testing, monitoring, and improvement cycles",
	CheckRiskManagement:        "Establish continuous risk assessment; use AgentGuard risk scoring",
	CheckTechnicalDocs:         "Auto-generate Annex IV documentation using AgentGuard report generator",
	CheckPHIDisclosureTracking: "Enable HIPAA-specific logging in AgentGuard; track all PHI field accesses",
	CheckAccessControls:        "Implement role-based access control; document in system architecture",
	CheckEncryption:            "Ensure all AI API calls use TLS 1.2+; implement field-level encryption for PHI",
	CheckPolicyDocs:            "Create and document AI governance policies; review quarterly",
	CheckBAA:                   "Execute Business Associate Agreements with OpenAI/Anthropic before using PHI",
	CheckDecisionAuditTrail:    "Log all AI-assisted financial decisions with inputs, outputs, and approver",
	CheckInternalControls:      "Document AI controls in your SOX compliance framework",
	CheckRetentionPolicy:       "Configure 7-year log retention in AgentGuard storage settings",
	CheckChangeManagement:      "Implement model version tracking; document each model update",
}

// Remediation returns the guidance text for a check.
func Remediation(kind CheckKind) string {
	if text, ok := remediations[kind]; ok {
		return text
	}
	return GenericRemediation
}
