package classify

import (
	"strings"
	"unicode/utf8"
)

// LargeContextThreshold is the prompt length, in characters, above which
// LARGE_CONTEXT is raised.
const LargeContextThreshold = 10000

var disclosurePhrases = []string{"as an ai", "i cannot", "i'm not able to"}

// ComplianceFlagger raises situational compliance flags for an interaction.
// Checks are independent and may all fire together.
type ComplianceFlagger struct {
	largeContextThreshold int
}

// NewComplianceFlagger creates a flagger with the default thresholds.
func NewComplianceFlagger() *ComplianceFlagger {
	return &ComplianceFlagger{largeContextThreshold: LargeContextThreshold}
}

// Check returns the flags for the interaction in a fixed order:
// PII_EXPOSURE, LARGE_CONTEXT, AI_DISCLOSURE.
func (f *ComplianceFlagger) Check(prompt, response string, piiTypes []string) []Flag {
	flags := make([]Flag, 0, 3)

	if len(piiTypes) > 0 {
		flags = append(flags, Flag{
			Code:        FlagPIIExposure,
			Severity:    FlagHigh,
			Message:     "PII detected in interaction: " + strings.Join(piiTypes, ", "),
			Regulation:  "GDPR Art. 5, EU AI Act Annex IV",
			Remediation: "Implement data minimization and pseudonymization",
		})
	}

	if utf8.RuneCountInString(prompt) > f.largeContextThreshold {
		flags = append(flags, Flag{
			Code:        FlagLargeContext,
			Severity:    FlagMedium,
			Message:     "Unusually large prompt context may indicate data exfiltration risk",
			Regulation:  "EU AI Act Annex IV §2.g",
			Remediation: "Implement prompt size limits and content scanning",
		})
	}

	if containsAny(strings.ToLower(response), disclosurePhrases) {
		flags = append(flags, Flag{
			Code:        FlagAIDisclosure,
			Severity:    FlagInfo,
			Message:     "AI system disclosed its nature to user",
			Regulation:  "EU AI Act Article 52(1)",
			Remediation: "Log as positive transparency event",
		})
	}

	return flags
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
