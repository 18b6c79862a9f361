package classify

// RiskLevel is an EU AI Act risk tier.
type RiskLevel string

const (
	// RiskMinimal covers interactions with no regulated use case.
	RiskMinimal RiskLevel = "minimal"

	// RiskLimited covers interactions subject to transparency obligations.
	RiskLimited RiskLevel = "limited"

	// RiskHigh covers Annex III high-risk use cases.
	RiskHigh RiskLevel = "high"

	// RiskUnacceptable covers practices prohibited by Article 5.
	RiskUnacceptable RiskLevel = "unacceptable"
)

// IsValid reports whether the level is one of the four known tiers.
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskMinimal, RiskLimited, RiskHigh, RiskUnacceptable:
		return true
	}
	return false
}

// FlagSeverity is the severity attached to a real-time compliance flag.
type FlagSeverity string

const (
	FlagHigh   FlagSeverity = "high"
	FlagMedium FlagSeverity = "medium"
	FlagInfo   FlagSeverity = "info"
)

// Flag codes emitted by ComplianceFlagger.
const (
	FlagPIIExposure  = "PII_EXPOSURE"
	FlagLargeContext = "LARGE_CONTEXT"
	FlagAIDisclosure = "AI_DISCLOSURE"
)

// Flag is a situational compliance signal raised for a single interaction.
type Flag struct {
	Code        string       `json:"code"`
	Severity    FlagSeverity `json:"severity"`
	Message     string       `json:"message"`
	Regulation  string       `json:"regulation"`
	Remediation string       `json:"remediation"`
}

// RiskAssessment is the result of classifying an interaction's risk tier.
type RiskAssessment struct {
	Level   RiskLevel `json:"level"`
	Score   float64   `json:"score"`
	Reason  string    `json:"reason"`
	Article string    `json:"article"`
}
