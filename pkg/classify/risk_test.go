package classify

import "testing"

// TestRiskClassifier_Classify tests tier selection and reason text.
func TestRiskClassifier_Classify(t *testing.T) {
	classifier := NewRiskClassifier()

	tests := []struct {
		name          string
		prompt        string
		response      string
		expectedLevel RiskLevel
		expectedScore float64
		expectedWhy   string
		expectedArt   string
	}{
		{
			name:          "minimal",
			prompt:        "What is the capital of France?",
			response:      "Paris.",
			expectedLevel: RiskMinimal,
			expectedScore: 0.1,
			expectedWhy:   "Minimal risk: standard monitoring applies",
			expectedArt:   "N/A (voluntary code of conduct)",
		},
		{
			name:          "empty input is minimal",
			expectedLevel: RiskMinimal,
			expectedScore: 0.1,
			expectedWhy:   "Minimal risk: standard monitoring applies",
			expectedArt:   "N/A (voluntary code of conduct)",
		},
		{
			name:          "limited",
			prompt:        "You are a customer service bot",
			response:      "How can I help?",
			expectedLevel: RiskLimited,
			expectedScore: 0.35,
			expectedWhy:   "Limited risk: transparency obligations apply",
			expectedArt:   "Article 52",
		},
		{
			name:          "high with keyword cap",
			prompt:        "Use biometric data for hiring and employment based on credit score",
			expectedLevel: RiskHigh,
			expectedScore: 0.75,
			expectedWhy:   "High-risk use case: credit score, employment, hiring",
			expectedArt:   "Article 6 + Annex III",
		},
		{
			name:          "high in response only",
			prompt:        "Summarize this",
			response:      "The Medical Diagnosis is pending",
			expectedLevel: RiskHigh,
			expectedScore: 0.75,
			expectedWhy:   "High-risk use case: medical diagnosis",
			expectedArt:   "Article 6 + Annex III",
		},
		{
			name:          "high beats limited",
			prompt:        "chatbot for loan decision support",
			expectedLevel: RiskHigh,
			expectedScore: 0.75,
			expectedWhy:   "High-risk use case: loan decision",
			expectedArt:   "Article 6 + Annex III",
		},
		{
			name:          "prohibited beats high",
			prompt:        "Build a social scoring system using facial recognition",
			expectedLevel: RiskUnacceptable,
			expectedScore: 1.0,
			expectedWhy:   "Prohibited use case detected: 'social scoring'",
			expectedArt:   "Article 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Classify(tt.prompt, tt.response)

			if got.Level != tt.expectedLevel {
				t.Errorf("Expected level %s, got %s", tt.expectedLevel, got.Level)
			}
			if got.Score != tt.expectedScore {
				t.Errorf("Expected score %v, got %v", tt.expectedScore, got.Score)
			}
			if got.Reason != tt.expectedWhy {
				t.Errorf("Expected reason %q, got %q", tt.expectedWhy, got.Reason)
			}
			if got.Article != tt.expectedArt {
				t.Errorf("Expected article %q, got %q", tt.expectedArt, got.Article)
			}
		})
	}
}

func TestRiskLevel_IsValid(t *testing.T) {
	for _, l := range []RiskLevel{RiskMinimal, RiskLimited, RiskHigh, RiskUnacceptable} {
		if !l.IsValid() {
			t.Errorf("Expected %s to be valid", l)
		}
	}
	if RiskLevel("severe").IsValid() {
		t.Error("Expected unknown level to be invalid")
	}
}
