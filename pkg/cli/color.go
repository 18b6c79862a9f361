package cli

import (
	"fmt"

	"github.com/fatih/color"

	"agentguard-hq/agentguard/pkg/classify"
	"agentguard-hq/agentguard/pkg/evidence"
)

var (
	good    = color.New(color.FgGreen, color.Bold)
	warning = color.New(color.FgYellow, color.Bold)
	bad     = color.New(color.FgRed, color.Bold)
	plain   = color.New()
)

// GradeColor returns the colour used to print a compliance grade.
func GradeColor(grade string) *color.Color {
	switch grade {
	case "A", "B":
		return good
	case "C":
		return warning
	case "D", "F":
		return bad
	default:
		return plain
	}
}

// RiskColor returns the colour used to print a 0.0-1.0 risk score.
func RiskColor(score float64) *color.Color {
	switch {
	case score > evidence.HighRiskThreshold:
		return bad
	case score >= classify.ScoreLimited:
		return warning
	default:
		return good
	}
}

// FormatRisk renders a risk score with two decimals in its risk colour.
func FormatRisk(score float64) string {
	return RiskColor(score).Sprint(fmt.Sprintf("%.2f", score))
}

// Success prints a green check line to stdout.
func Success(format string, args ...any) {
	good.Printf("✓ "+format+"\n", args...)
}

// Warn prints a yellow warning line to stdout.
func Warn(format string, args ...any) {
	warning.Printf("! "+format+"\n", args...)
}
