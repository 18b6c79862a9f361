package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"agentguard-hq/agentguard/pkg/compliance"
	"agentguard-hq/agentguard/pkg/evidence"
)

// HistoryLimit is the number of checks returned by the history endpoint.
const HistoryLimit = 20

// ComplianceCheckRequest asks for an on-demand evaluation.
type ComplianceCheckRequest struct {
	AgentID    string                `json:"agent_id"`
	Regulation compliance.Regulation `json:"regulation"`
	DaysBack   int                   `json:"days_back"`
}

// ComplianceCheckResponse is the graded result of an evaluation.
type ComplianceCheckResponse struct {
	AgentID         string                   `json:"agent_id"`
	Regulation      compliance.Regulation    `json:"regulation"`
	OverallScore    float64                  `json:"overall_score"`
	Grade           string                   `json:"grade"`
	Summary         string                   `json:"summary"`
	Findings        []evidence.FindingRecord `json:"findings"`
	Recommendations []string                 `json:"recommendations"`
	Stats           CheckStats               `json:"stats"`
	CheckDate       time.Time                `json:"check_date"`
}

// CheckStats is the interaction summary attached to a check response.
type CheckStats struct {
	TotalInteractions    int `json:"total_interactions"`
	PIIExposures         int `json:"pii_exposures"`
	HighRiskInteractions int `json:"high_risk_interactions"`
}

// RunComplianceCheck handles POST /api/compliance/check
func (h *Handler) RunComplianceCheck(w http.ResponseWriter, r *http.Request) {
	req := ComplianceCheckRequest{
		Regulation: compliance.EUAIAct,
		DaysBack:   compliance.DefaultDaysBack,
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err, "")
		return
	}

	report, err := h.engine.Evaluate(r.Context(), req.AgentID, req.Regulation, req.DaysBack)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	h.dropSummary(r.Context())
	writeJSON(w, http.StatusOK, newCheckResponse(report))
}

func newCheckResponse(report *compliance.Report) ComplianceCheckResponse {
	findings := make([]evidence.FindingRecord, 0, len(report.Findings))
	for _, f := range report.Findings {
		findings = append(findings, evidence.FindingRecord{
			Code:        f.Code,
			Title:       f.Title,
			Severity:    string(f.Severity),
			Description: f.Description,
			Article:     f.Article,
			Remediation: f.Remediation,
		})
	}
	recommendations := report.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}

	return ComplianceCheckResponse{
		AgentID:         report.AgentID,
		Regulation:      report.Regulation,
		OverallScore:    report.OverallScore,
		Grade:           report.Grade,
		Summary:         report.Summary,
		Findings:        findings,
		Recommendations: recommendations,
		Stats: CheckStats{
			TotalInteractions:    report.TotalInteractions,
			PIIExposures:         report.PIIExposures,
			HighRiskInteractions: report.HighRisk,
		},
		CheckDate: report.CheckDate,
	}
}

// ComplianceHistory handles GET /api/compliance/{agent_id}/history
func (h *Handler) ComplianceHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.store.ComplianceHistory(r.Context(), mux.Vars(r)["agent_id"], HistoryLimit)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	if history == nil {
		history = []*evidence.ComplianceCheck{}
	}
	writeJSON(w, http.StatusOK, history)
}
