package cli

import (
	"testing"

	"github.com/fatih/color"
)

func TestGradeColor(t *testing.T) {
	tests := []struct {
		grade string
		want  *color.Color
	}{
		{"A", good},
		{"B", good},
		{"C", warning},
		{"D", bad},
		{"F", bad},
		{"?", plain},
	}

	for _, tt := range tests {
		if got := GradeColor(tt.grade); got != tt.want {
			t.Errorf("GradeColor(%q) returned the wrong colour", tt.grade)
		}
	}
}

func TestRiskColor(t *testing.T) {
	tests := []struct {
		score float64
		want  *color.Color
	}{
		{0.0, good},
		{0.29, good},
		{0.35, warning},
		{0.6, warning},
		{0.75, bad},
	}

	for _, tt := range tests {
		if got := RiskColor(tt.score); got != tt.want {
			t.Errorf("RiskColor(%v) returned the wrong colour", tt.score)
		}
	}
}

func TestFormatRisk_NoColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	if got := FormatRisk(0.456); got != "0.46" {
		t.Errorf("FormatRisk() = %q, want 0.46", got)
	}
}
