package api

import (
	"context"
	"math"
	"net/http"

	"agentguard-hq/agentguard/pkg/cache"
	"agentguard-hq/agentguard/pkg/evidence"
	"agentguard-hq/agentguard/pkg/evidence/query"
)

// RecentEventsLimit is the number of latest interactions on the dashboard.
const RecentEventsLimit = 10

const dashboardCacheKey = "dashboard:summary"

// DashboardSummary is the fleet-wide overview.
type DashboardSummary struct {
	AgentsCount        int                           `json:"agents_count"`
	TotalInteractions  int                           `json:"total_interactions"`
	PIIExposures       int                           `json:"pii_exposures"`
	HighRiskCount      int                           `json:"high_risk_count"`
	AvgRiskScore       float64                       `json:"avg_risk_score"`
	AvgComplianceScore float64                       `json:"avg_compliance_score"`
	RecentEvents       []*evidence.InteractionRecord `json:"recent_events"`
}

// DashboardSummary handles GET /api/dashboard/summary
func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := cache.Fetch(r.Context(), h.cache, dashboardCacheKey, h.loadSummary)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// dropSummary discards the cached dashboard after a change to the agent
// fleet or its compliance history. A failure only delays freshness until
// the TTL lapses.
func (h *Handler) dropSummary(ctx context.Context) {
	if err := h.cache.Invalidate(ctx, dashboardCacheKey); err != nil {
		h.logger.WarnContext(ctx, "failed to invalidate dashboard cache", "error", err)
	}
}

func (h *Handler) loadSummary(ctx context.Context) (*DashboardSummary, error) {
	agentsCount, err := h.store.CountActiveAgents(ctx)
	if err != nil {
		return nil, err
	}
	overview, err := h.store.Overview(ctx)
	if err != nil {
		return nil, err
	}
	avgScore, err := h.store.AverageComplianceScore(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := h.store.Query(ctx, &evidence.Query{
		Limit:     RecentEventsLimit,
		SortBy:    query.SortTimestamp,
		SortOrder: "desc",
	})
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []*evidence.InteractionRecord{}
	}

	return &DashboardSummary{
		AgentsCount:        agentsCount,
		TotalInteractions:  overview.TotalInteractions,
		PIIExposures:       overview.PIIExposures,
		HighRiskCount:      overview.HighRiskCount,
		AvgRiskScore:       round(overview.AvgRiskScore, 2),
		AvgComplianceScore: round(avgScore, 1),
		RecentEvents:       recent,
	}, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
