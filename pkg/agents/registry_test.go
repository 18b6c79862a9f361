package agents

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"agentguard-hq/agentguard/pkg/classify"
	"agentguard-hq/agentguard/pkg/compliance"
	"agentguard-hq/agentguard/pkg/evidence"
	"agentguard-hq/agentguard/pkg/evidence/storage"
)

func validRegistration() Registration {
	reg := NewRegistration()
	reg.Name = "support-bot"
	reg.Provider = "openai"
	reg.Model = "gpt-4o-mini"
	return reg
}

// TestRegistration_Defaults tests that decoding keeps unspecified defaults.
func TestRegistration_Defaults(t *testing.T) {
	reg := NewRegistration()
	body := `{"name":"bot","provider":"anthropic","model":"claude","has_baa":true}`
	if err := json.Unmarshal([]byte(body), &reg); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	if reg.RiskLevel != classify.RiskMinimal {
		t.Errorf("Expected default risk level minimal, got %s", reg.RiskLevel)
	}
	if len(reg.RegulationScope) != 1 || reg.RegulationScope[0] != "EU_AI_ACT" {
		t.Errorf("Expected default scope [EU_AI_ACT], got %v", reg.RegulationScope)
	}
	if !reg.Encryption {
		t.Error("Expected encryption to default to true")
	}
	if !reg.BAA {
		t.Error("Expected has_baa from body")
	}
	if reg.HumanOversight {
		t.Error("Expected human oversight to default to false")
	}
}

// TestRegistration_Validate tests registration validation rules.
func TestRegistration_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Registration)
		field  string
	}{
		{"valid", func(r *Registration) {}, ""},
		{"empty name", func(r *Registration) { r.Name = "" }, "name"},
		{"long name", func(r *Registration) { r.Name = strings.Repeat("x", 201) }, "name"},
		{"max name", func(r *Registration) { r.Name = strings.Repeat("é", 200) }, ""},
		{"bad provider", func(r *Registration) { r.Provider = "groq" }, "provider"},
		{"custom provider", func(r *Registration) { r.Provider = "custom" }, ""},
		{"empty model", func(r *Registration) { r.Model = "" }, "model"},
		{"bad risk level", func(r *Registration) { r.RiskLevel = "extreme" }, "risk_level"},
		{"bad regulation", func(r *Registration) { r.RegulationScope = []string{"HIPAA", "PCI"} }, "regulation_scope"},
		{"empty scope", func(r *Registration) { r.RegulationScope = []string{} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration()
			tt.modify(&reg)
			err := reg.Validate()

			if tt.field == "" {
				if err != nil {
					t.Fatalf("Expected valid registration, got %v", err)
				}
				return
			}
			var vErr *compliance.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, vErr.Field)
			}
		})
	}
}

// TestRegistry_Lifecycle tests register, get, list and deactivate.
func TestRegistry_Lifecycle(t *testing.T) {
	store := storage.NewMemoryStorage()
	registry := NewRegistry(store)
	ctx := context.Background()

	agent, err := registry.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if agent.ID == "" || !agent.IsActive {
		t.Errorf("Expected active agent with ID, got %+v", agent)
	}

	got, err := registry.Get(ctx, agent.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "support-bot" || !got.Attestation.Encryption {
		t.Errorf("Unexpected stored agent: %+v", got)
	}

	list, err := registry.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("Expected 1 active agent, got %d (err=%v)", len(list), err)
	}

	if err := registry.Deactivate(ctx, agent.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if n, _ := registry.Count(ctx); n != 0 {
		t.Errorf("Expected 0 active agents, got %d", n)
	}

	// Deactivated agents remain readable.
	got, err = registry.Get(ctx, agent.ID)
	if err != nil || got.IsActive {
		t.Errorf("Expected inactive agent to be readable, got %+v (err=%v)", got, err)
	}
}

// TestRegistry_NotFound tests unknown agent IDs.
func TestRegistry_NotFound(t *testing.T) {
	registry := NewRegistry(storage.NewMemoryStorage())

	if _, err := registry.Get(context.Background(), "missing"); !errors.Is(err, evidence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from Get, got %v", err)
	}
	if err := registry.Deactivate(context.Background(), "missing"); !errors.Is(err, evidence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from Deactivate, got %v", err)
	}
}

// TestRegistry_RejectsInvalid tests that invalid registrations are not stored.
func TestRegistry_RejectsInvalid(t *testing.T) {
	store := storage.NewMemoryStorage()
	reg := validRegistration()
	reg.Provider = "unknown"

	if _, err := NewRegistry(store).Register(context.Background(), reg); err == nil {
		t.Fatal("Expected validation error")
	}
	if n, _ := store.CountActiveAgents(context.Background()); n != 0 {
		t.Errorf("Expected nothing stored, got %d", n)
	}
}
