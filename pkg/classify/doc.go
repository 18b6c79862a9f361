// Package classify provides the real-time classifiers applied to every
// intercepted AI-agent interaction.
//
// # Classifiers
//
// Three stateless classifiers are provided:
//
//   - PIIDetector: matches a fixed catalog of sensitive-data patterns
//   - RiskClassifier: assigns an EU AI Act risk tier from keyword phrases
//   - ComplianceFlagger: raises situational flags (PII exposure, oversized
//     context, AI self-disclosure)
//
// All three are safe for concurrent use. Compiled patterns are built once
// and shared read-only across goroutines.
//
// # Basic Usage
//
//	pii := classify.NewPIIDetector()
//	found, types, piiRisk := pii.Scan(prompt + " " + response)
//
//	tier := classify.NewRiskClassifier().Classify(prompt, response)
//	flags := classify.NewComplianceFlagger().Check(prompt, response, types)
//
//	risk := math.Max(tier.Score, piiRisk)
//
// # False Positives
//
// Pattern matching favors recall over precision. Long digit runs match the
// financial_account category and uppercase/digit codes match passport. These
// matches are expected and are not filtered.
package classify
