package agents

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"agentguard-hq/agentguard/pkg/classify"
	"agentguard-hq/agentguard/pkg/compliance"
	"agentguard-hq/agentguard/pkg/evidence"
)

// MaxNameLength bounds agent names, in characters.
const MaxNameLength = 200

// AgentIDHeader is the request header proxied calls use to identify the agent.
const AgentIDHeader = "X-Agent-ID"

// Providers accepted at registration.
var Providers = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"custom":    true,
}

// Registration is the operator-supplied description of an agent.
// Attestation flags decode flat from JSON (has_human_oversight, ...).
type Registration struct {
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Provider        string             `json:"provider"`
	Model           string             `json:"model"`
	RiskLevel       classify.RiskLevel `json:"risk_level"`
	RegulationScope []string           `json:"regulation_scope"`

	evidence.Attestation
}

// NewRegistration returns a registration holding every default: minimal
// risk, EU AI Act scope and the default attestation. Decode request bodies
// into it so absent fields keep their defaults.
func NewRegistration() Registration {
	return Registration{
		RiskLevel:       classify.RiskMinimal,
		RegulationScope: []string{string(compliance.EUAIAct)},
		Attestation:     evidence.DefaultAttestation(),
	}
}

// Validate checks a registration and returns a *compliance.ValidationError
// naming the first invalid field.
func (r *Registration) Validate() error {
	if n := utf8.RuneCountInString(r.Name); n < 1 || n > MaxNameLength {
		return compliance.NewValidationError("name", fmt.Sprintf("must be 1 to %d characters", MaxNameLength))
	}
	if !Providers[r.Provider] {
		return compliance.NewValidationError("provider", "must be one of openai, anthropic, custom")
	}
	if r.Model == "" {
		return compliance.NewValidationError("model", "must not be empty")
	}
	if r.RiskLevel != "" && !r.RiskLevel.IsValid() {
		return compliance.NewValidationError("risk_level", "unknown risk level "+string(r.RiskLevel))
	}
	for _, scope := range r.RegulationScope {
		if !compliance.Regulation(scope).IsValid() {
			return compliance.NewValidationError("regulation_scope", "unknown regulation "+scope)
		}
	}
	return nil
}

// Registry manages agent registrations.
type Registry struct {
	store  evidence.AgentStore
	logger *slog.Logger
	now    func() time.Time
}

// NewRegistry creates a registry over store.
func NewRegistry(store evidence.AgentStore) *Registry {
	return &Registry{
		store:  store,
		logger: slog.Default().With("component", "agents.registry"),
		now:    time.Now,
	}
}

// Register validates and stores a new active agent with a generated ID.
func (r *Registry) Register(ctx context.Context, reg Registration) (*evidence.Agent, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	if reg.RiskLevel == "" {
		reg.RiskLevel = classify.RiskMinimal
	}
	if reg.RegulationScope == nil {
		reg.RegulationScope = []string{string(compliance.EUAIAct)}
	}

	now := r.now().UTC()
	agent := &evidence.Agent{
		ID:              uuid.New().String(),
		Name:            reg.Name,
		Description:     reg.Description,
		Provider:        reg.Provider,
		Model:           reg.Model,
		RiskLevel:       string(reg.RiskLevel),
		RegulationScope: reg.RegulationScope,
		Attestation:     reg.Attestation,
		CreatedAt:       now,
		UpdatedAt:       now,
		IsActive:        true,
	}

	if err := r.store.CreateAgent(ctx, agent); err != nil {
		return nil, err
	}

	r.logger.Info("agent registered",
		"agent_id", agent.ID,
		"name", agent.Name,
		"provider", agent.Provider,
		"regulation_scope", agent.RegulationScope,
	)
	return agent, nil
}

// Get returns an agent, active or not. Unknown IDs yield an error matching
// evidence.ErrNotFound.
func (r *Registry) Get(ctx context.Context, id string) (*evidence.Agent, error) {
	return r.store.GetAgent(ctx, id)
}

// List returns active agents, newest first.
func (r *Registry) List(ctx context.Context) ([]*evidence.Agent, error) {
	return r.store.ListActiveAgents(ctx)
}

// Deactivate marks an agent inactive. Its audit history is kept.
func (r *Registry) Deactivate(ctx context.Context, id string) error {
	if err := r.store.DeactivateAgent(ctx, id); err != nil {
		return err
	}
	r.logger.Info("agent deactivated", "agent_id", id)
	return nil
}

// Count returns the number of active agents.
func (r *Registry) Count(ctx context.Context) (int, error) {
	return r.store.CountActiveAgents(ctx)
}
