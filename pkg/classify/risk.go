package classify

import (
	"fmt"
	"strings"
)

// Tier scores.
const (
	ScoreUnacceptable = 1.0
	ScoreHigh         = 0.75
	ScoreLimited      = 0.35
	ScoreMinimal      = 0.1
)

// maxReasonKeywords bounds how many high-risk matches are named in a reason.
const maxReasonKeywords = 3

var (
	prohibitedPhrases = []string{
		"social scoring",
		"mass surveillance",
		"subliminal manipulation",
		"exploit vulnerabilities",
		"real-time biometric public spaces",
	}

	highRiskPhrases = []string{
		"credit score",
		"loan decision",
		"employment",
		"hiring",
		"termination",
		"medical diagnosis",
		"treatment recommendation",
		"law enforcement",
		"biometric",
		"facial recognition",
		"emotion recognition",
		"critical infrastructure",
		"educational assessment",
		"border control",
		"asylum",
		"benefits eligibility",
	}

	limitedRiskPhrases = []string{
		"customer service",
		"chatbot",
		"virtual assistant",
		"recommend",
	}
)

// RiskClassifier assigns an EU AI Act risk tier to an interaction using
// keyword phrases. Tiers are checked in precedence order
// unacceptable > high > limited > minimal; keyword counts never break ties.
type RiskClassifier struct{}

// NewRiskClassifier creates a risk classifier.
func NewRiskClassifier() *RiskClassifier {
	return &RiskClassifier{}
}

// Classify returns the risk tier for the prompt/response pair.
func (c *RiskClassifier) Classify(prompt, response string) RiskAssessment {
	text := strings.ToLower(prompt + " " + response)

	for _, kw := range prohibitedPhrases {
		if strings.Contains(text, kw) {
			return RiskAssessment{
				Level:   RiskUnacceptable,
				Score:   ScoreUnacceptable,
				Reason:  fmt.Sprintf("Prohibited use case detected: '%s'", kw),
				Article: "Article 5",
			}
		}
	}

	var matched []string
	for _, kw := range highRiskPhrases {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) > 0 {
		if len(matched) > maxReasonKeywords {
			matched = matched[:maxReasonKeywords]
		}
		return RiskAssessment{
			Level:   RiskHigh,
			Score:   ScoreHigh,
			Reason:  "High-risk use case: " + strings.Join(matched, ", "),
			Article: "Article 6 + Annex III",
		}
	}

	for _, kw := range limitedRiskPhrases {
		if strings.Contains(text, kw) {
			return RiskAssessment{
				Level:   RiskLimited,
				Score:   ScoreLimited,
				Reason:  "Limited risk: transparency obligations apply",
				Article: "Article 52",
			}
		}
	}

	return RiskAssessment{
		Level:   RiskMinimal,
		Score:   ScoreMinimal,
		Reason:  "Minimal risk: standard monitoring applies",
		Article: "N/A (voluntary code of conduct)",
	}
}
