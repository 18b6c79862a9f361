package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"agentguard-hq/agentguard/pkg/agents"
	"agentguard-hq/agentguard/pkg/cache"
	"agentguard-hq/agentguard/pkg/compliance"
	"agentguard-hq/agentguard/pkg/evidence"
	"agentguard-hq/agentguard/pkg/reports"
)

// ServiceName is reported by the root banner.
const ServiceName = "AgentGuard"

// internalErrorDetail is the only detail ever returned for unexpected
// failures. The cause is logged.
const internalErrorDetail = "Internal server error - check server logs"

// Options holds the collaborators a Handler serves.
type Options struct {
	Store     evidence.Store
	Registry  *agents.Registry
	Engine    *compliance.Engine
	Generator *reports.Generator

	// Cache is optional. A nil cache reads through to the store.
	Cache *cache.Cache

	Version string
}

// Handler serves the management REST API under /api.
type Handler struct {
	store     evidence.Store
	registry  *agents.Registry
	engine    *compliance.Engine
	generator *reports.Generator
	cache     *cache.Cache
	version   string
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler creates a handler. Store, Registry, Engine and Generator are
// required.
func NewHandler(opts Options) *Handler {
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		store:     opts.Store,
		registry:  opts.Registry,
		engine:    opts.Engine,
		generator: opts.Generator,
		cache:     opts.Cache,
		version:   version,
		logger:    slog.Default().With("component", "api"),
		now:       time.Now,
	}
}

// RegisterRoutes registers the /api routes on r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/agents/register", h.RegisterAgent).Methods("POST")
	r.HandleFunc("/api/agents", h.ListAgents).Methods("GET")
	r.HandleFunc("/api/agents/", h.ListAgents).Methods("GET")
	r.HandleFunc("/api/agents/{id}", h.GetAgent).Methods("GET")
	r.HandleFunc("/api/agents/{id}", h.DeactivateAgent).Methods("DELETE")

	r.HandleFunc("/api/audit/{agent_id}", h.ListAuditLogs).Methods("GET")
	r.HandleFunc("/api/audit/{agent_id}/stats", h.AuditStats).Methods("GET")

	r.HandleFunc("/api/compliance/check", h.RunComplianceCheck).Methods("POST")
	r.HandleFunc("/api/compliance/{agent_id}/history", h.ComplianceHistory).Methods("GET")

	r.HandleFunc("/api/dashboard/summary", h.DashboardSummary).Methods("GET")

	r.HandleFunc("/api/reports/generate", h.GenerateReport).Methods("POST")
	r.HandleFunc("/api/reports/{id}/download", h.DownloadReport).Methods("GET")
}

// RegisterPublicRoutes registers the unauthenticated banner and health
// routes.
func (h *Handler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/", h.Root).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")
}

// Root handles GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":   ServiceName,
		"version":   h.version,
		"status":    "operational",
		"timestamp": h.now().UTC(),
	})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": h.now().UTC(),
	})
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeError maps err to a status code. notFound is the detail used when err
// matches evidence.ErrNotFound.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var validationErr *compliance.ValidationError
	var queryErr *evidence.QueryError

	switch {
	case errors.As(err, &validationErr):
		writeDetail(w, http.StatusUnprocessableEntity, validationErr.Error())
	case errors.As(err, &queryErr):
		writeDetail(w, http.StatusUnprocessableEntity, queryErr.Cause.Error())
	case errors.Is(err, evidence.ErrNotFound):
		writeDetail(w, http.StatusNotFound, notFound)
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.WarnContext(r.Context(), "request deadline exceeded", "path", r.URL.Path, "error", err)
		writeDetail(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeDetail(w, http.StatusInternalServerError, internalErrorDetail)
	}
}

// decodeBody decodes a JSON request body into dst. Malformed bodies yield a
// ValidationError.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return compliance.NewValidationError("body", "request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return compliance.NewValidationError("body", "malformed JSON: "+err.Error())
	}
	return nil
}
