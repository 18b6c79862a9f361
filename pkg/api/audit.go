package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"agentguard-hq/agentguard/pkg/cache"
	"agentguard-hq/agentguard/pkg/compliance"
	"agentguard-hq/agentguard/pkg/evidence"
	"agentguard-hq/agentguard/pkg/evidence/query"
)

// DefaultAuditLimit is the page size of the audit log endpoint.
const DefaultAuditLimit = 50

// ListAuditLogs handles GET /api/audit/{agent_id}
//
// Query parameters: limit (default 50, at most 500), offset and min_risk
// (default 0). Records come back newest first.
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	minRisk := 0.0
	q := &evidence.Query{
		AgentID:   mux.Vars(r)["agent_id"],
		Limit:     DefaultAuditLimit,
		MinRisk:   &minRisk,
		SortBy:    query.SortTimestamp,
		SortOrder: "desc",
	}

	params := r.URL.Query()
	if v := params.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, r, compliance.NewValidationError("limit", "must be an integer"), "")
			return
		}
		q.Limit = n
	}
	if v := params.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, r, compliance.NewValidationError("offset", "must be an integer"), "")
			return
		}
		q.Offset = n
	}
	if v := params.Get("min_risk"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.writeError(w, r, compliance.NewValidationError("min_risk", "must be a number"), "")
			return
		}
		minRisk = f
	}

	if err := query.Validate(q); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	// Limit 0 would fall back to the store default; an explicit 0 asks for
	// an empty page.
	if q.Limit == 0 {
		writeJSON(w, http.StatusOK, []*evidence.InteractionRecord{})
		return
	}

	records, err := h.store.Query(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	if records == nil {
		records = []*evidence.InteractionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// AuditStats handles GET /api/audit/{agent_id}/stats
func (h *Handler) AuditStats(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agent_id"]
	activity, err := cache.Fetch(r.Context(), h.cache, "audit_stats:"+agentID, func(ctx context.Context) (*evidence.AgentActivity, error) {
		return h.store.Activity(ctx, agentID)
	})
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, activity)
}
