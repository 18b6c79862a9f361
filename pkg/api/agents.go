package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"agentguard-hq/agentguard/pkg/agents"
)

const agentNotFound = "Agent not found"

// RegisterAgentResponse tells the operator how to tag proxied calls.
type RegisterAgentResponse struct {
	ID           string `json:"id"`
	APIKeyHeader string `json:"api_key_header"`
	APIKeyValue  string `json:"api_key_value"`
	Message      string `json:"message"`
}

// RegisterAgent handles POST /api/agents/register
func (h *Handler) RegisterAgent(w http.ResponseWriter, r *http.Request) {
	reg := agents.NewRegistration()
	if err := decodeBody(r, &reg); err != nil {
		h.writeError(w, r, err, "")
		return
	}

	agent, err := h.registry.Register(r.Context(), reg)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	h.dropSummary(r.Context())

	writeJSON(w, http.StatusOK, RegisterAgentResponse{
		ID:           agent.ID,
		APIKeyHeader: agents.AgentIDHeader,
		APIKeyValue:  agent.ID,
		Message:      fmt.Sprintf("Add '%s: %s' header to all proxied AI calls", agents.AgentIDHeader, agent.ID),
	})
}

// ListAgents handles GET /api/agents/
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	list, err := h.registry.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetAgent handles GET /api/agents/{id}
func (h *Handler) GetAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := h.registry.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err, agentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// DeactivateAgent handles DELETE /api/agents/{id}
func (h *Handler) DeactivateAgent(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Deactivate(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err, agentNotFound)
		return
	}
	h.dropSummary(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
