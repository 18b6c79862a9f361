package compliance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"agentguard-hq/agentguard/pkg/classify"
	"agentguard-hq/agentguard/pkg/evidence"
	"agentguard-hq/agentguard/pkg/evidence/storage"
)

// brokenReads fails every read but accepts writes.
type brokenReads struct {
	*storage.MemoryStorage
}

func (b *brokenReads) Stats(ctx context.Context, agentID string, start, end time.Time) (*evidence.AggregatedStats, error) {
	return nil, errors.New("database is locked")
}

func (b *brokenReads) GetAgent(ctx context.Context, id string) (*evidence.Agent, error) {
	return nil, errors.New("database is locked")
}

func (b *brokenReads) CountReports(ctx context.Context, agentID, reportType string) (int, error) {
	return 0, errors.New("database is locked")
}

// slowReads blocks every read until its context expires.
type slowReads struct {
	*storage.MemoryStorage
}

func (s *slowReads) Stats(ctx context.Context, agentID string, start, end time.Time) (*evidence.AggregatedStats, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// brokenWrites fails every append.
type brokenWrites struct {
	*storage.MemoryStorage
}

func (b *brokenWrites) AppendComplianceCheck(ctx context.Context, check *evidence.ComplianceCheck) error {
	return errors.New("disk full")
}

// recordingObserver captures observed reports.
type recordingObserver struct {
	reports []*Report
}

func (o *recordingObserver) ObserveEvaluation(report *Report, duration time.Duration) {
	o.reports = append(o.reports, report)
}

func registerAgent(t *testing.T, store *storage.MemoryStorage, id string, att evidence.Attestation, scope ...string) {
	t.Helper()
	now := time.Now().UTC()
	err := store.CreateAgent(context.Background(), &evidence.Agent{
		ID:              id,
		Name:            "agent " + id,
		Provider:        "openai",
		Model:           "gpt-4o-mini",
		RiskLevel:       string(classify.RiskMinimal),
		RegulationScope: scope,
		Attestation:     att,
		CreatedAt:       now,
		UpdatedAt:       now,
		IsActive:        true,
	})
	if err != nil {
		t.Fatalf("Failed to register agent: %v", err)
	}
}

// seedInteractions inserts total records over the last few days, the first
// pii of which carry PII and the next highRisk of which score 0.75.
func seedInteractions(t *testing.T, store *storage.MemoryStorage, agentID string, total, pii, highRisk int) {
	t.Helper()
	now := time.Now().UTC()
	for i := 0; i < total; i++ {
		r := &evidence.InteractionRecord{
			ID:        fmt.Sprintf("%s-%d", agentID, i),
			AgentID:   agentID,
			Timestamp: now.Add(-time.Duration(i+1) * time.Hour),
			EventType: evidence.EventTypeLLMCall,
			RiskScore: 0.1,
		}
		switch {
		case i < pii:
			r.PIIDetected = true
			r.PIITypes = []string{classify.PIIEmail}
			r.RiskScore = 0.15
		case i < pii+highRisk:
			r.RiskScore = 0.75
		}
		if _, err := store.InsertIfAbsent(context.Background(), r); err != nil {
			t.Fatalf("Failed to seed interaction: %v", err)
		}
	}
}

// TestEngine_HIPAAScenario tests the reference HIPAA evaluation: logs
// present, encryption attested, everything else missing.
func TestEngine_HIPAAScenario(t *testing.T) {
	store := storage.NewMemoryStorage()
	registerAgent(t, store, "clinic-bot", evidence.DefaultAttestation(), "HIPAA")
	seedInteractions(t, store, "clinic-bot", 100, 5, 12)

	engine := NewEngine(store, time.Second)
	report, err := engine.Evaluate(context.Background(), "clinic-bot", HIPAA, 30)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if report.OverallScore != 0 {
		t.Errorf("Expected score 0, got %.1f", report.OverallScore)
	}
	if report.Grade != "F" {
		t.Errorf("Expected grade F, got %s", report.Grade)
	}

	expectedCodes := []string{"HIPAA-164-308", "HIPAA-164-316", "HIPAA-BAA"}
	if len(report.Findings) != len(expectedCodes) {
		t.Fatalf("Expected %d findings, got %d: %+v", len(expectedCodes), len(report.Findings), report.Findings)
	}
	for i, code := range expectedCodes {
		if report.Findings[i].Code != code {
			t.Errorf("Finding %d: expected %s, got %s", i, code, report.Findings[i].Code)
		}
	}

	if report.TotalInteractions != 100 || report.PIIExposures != 5 || report.HighRisk != 12 {
		t.Errorf("Unexpected counters: total=%d pii=%d high=%d",
			report.TotalInteractions, report.PIIExposures, report.HighRisk)
	}

	if report.Recommendations[0] != "URGENT: Resolve 1 critical findings immediately before enterprise deployment" {
		t.Errorf("Unexpected first recommendation: %s", report.Recommendations[0])
	}
	if len(report.Recommendations) != 7 {
		t.Errorf("Expected 7 recommendations, got %d", len(report.Recommendations))
	}

	history, err := store.ComplianceHistory(context.Background(), "clinic-bot", 10)
	if err != nil {
		t.Fatalf("ComplianceHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected 1 persisted check, got %d", len(history))
	}
	if history[0].ID != report.ID || history[0].Status != CheckStatusCompleted || len(history[0].Findings) != 3 {
		t.Errorf("Unexpected persisted check: %+v", history[0])
	}
}

// TestEngine_NoData tests maximal non-compliance for an unknown agent.
func TestEngine_NoData(t *testing.T) {
	store := storage.NewMemoryStorage()
	engine := NewEngine(store, time.Second)

	for _, reg := range []Regulation{EUAIAct, HIPAA, SOX} {
		report, err := engine.Evaluate(context.Background(), "ghost", reg, 30)
		if err != nil {
			t.Fatalf("%s: Evaluate failed: %v", reg, err)
		}
		if len(report.Findings) != len(Rules(reg)) {
			t.Errorf("%s: expected every rule to fail, got %d findings", reg, len(report.Findings))
		}
		if report.OverallScore != 0 || report.Grade != "F" {
			t.Errorf("%s: expected 0/F, got %.1f/%s", reg, report.OverallScore, report.Grade)
		}
	}
}

// TestEngine_FullCompliance tests a perfect EU AI Act evaluation.
func TestEngine_FullCompliance(t *testing.T) {
	store := storage.NewMemoryStorage()
	att := evidence.Attestation{HumanOversight: true, QMS: true}
	registerAgent(t, store, "good-bot", att, "EU_AI_ACT")
	seedInteractions(t, store, "good-bot", 10, 0, 0)

	err := store.CreateReport(context.Background(), &evidence.ReportRecord{
		ID:         "rep-1",
		AgentID:    "good-bot",
		ReportType: ReportTypeTechnicalDocs,
		CreatedAt:  time.Now().UTC(),
		Status:     evidence.ReportCompleted,
	})
	if err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}

	report, err := NewEngine(store, time.Second).Evaluate(context.Background(), "good-bot", EUAIAct, 30)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if report.OverallScore != 100 || report.Grade != "A" {
		t.Errorf("Expected 100/A, got %.1f/%s", report.OverallScore, report.Grade)
	}
	if len(report.Findings) != 0 {
		t.Errorf("Expected no findings, got %+v", report.Findings)
	}
	if len(report.Recommendations) != 3 {
		t.Errorf("Expected standing recommendations only, got %v", report.Recommendations)
	}
}

// TestEngine_PartialScore tests normalization with mixed results.
func TestEngine_PartialScore(t *testing.T) {
	store := storage.NewMemoryStorage()
	// SOX: decision trail passes (0.35), internal controls passes (0.30),
	// retention fails (-0.20), change management fails (-0.15) => 0.30.
	registerAgent(t, store, "fin-bot", evidence.Attestation{InternalControls: true}, "SOX")
	seedInteractions(t, store, "fin-bot", 3, 0, 0)

	report, err := NewEngine(store, time.Second).Evaluate(context.Background(), "fin-bot", SOX, 30)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if report.OverallScore != 30 {
		t.Errorf("Expected score 30.0, got %.1f", report.OverallScore)
	}
	if report.Grade != "F" {
		t.Errorf("Expected grade F, got %s", report.Grade)
	}
}

// TestEngine_EmptyCatalog tests regulations without rules.
func TestEngine_EmptyCatalog(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedInteractions(t, store, "eu-bot", 5, 0, 0)

	for _, reg := range []Regulation{GDPR, CCPA} {
		report, err := NewEngine(store, time.Second).Evaluate(context.Background(), "eu-bot", reg, 30)
		if err != nil {
			t.Fatalf("%s: Evaluate failed: %v", reg, err)
		}
		if report.OverallScore != 0 || report.Grade != "F" || len(report.Findings) != 0 {
			t.Errorf("%s: expected degenerate report, got score=%.1f grade=%s findings=%d",
				reg, report.OverallScore, report.Grade, len(report.Findings))
		}
	}
}

// TestEngine_Validation tests input validation.
func TestEngine_Validation(t *testing.T) {
	engine := NewEngine(storage.NewMemoryStorage(), time.Second)

	tests := []struct {
		name     string
		agentID  string
		reg      Regulation
		daysBack int
		field    string
	}{
		{"empty agent", "", EUAIAct, 30, "agent_id"},
		{"unknown regulation", "a1", Regulation("PCI"), 30, "regulation"},
		{"zero days", "a1", EUAIAct, 0, "days_back"},
		{"too many days", "a1", EUAIAct, 366, "days_back"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Evaluate(context.Background(), tt.agentID, tt.reg, tt.daysBack)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, vErr.Field)
			}
		})
	}

	for _, days := range []int{MinDaysBack, MaxDaysBack} {
		if _, err := engine.Evaluate(context.Background(), "a1", EUAIAct, days); err != nil {
			t.Errorf("Expected days_back=%d to be accepted, got %v", days, err)
		}
	}
}

// TestEngine_FailOpen tests that read failures still produce a report.
func TestEngine_FailOpen(t *testing.T) {
	mem := storage.NewMemoryStorage()
	store := &brokenReads{MemoryStorage: mem}

	report, err := NewEngine(store, time.Second).Evaluate(context.Background(), "a1", EUAIAct, 30)
	if err != nil {
		t.Fatalf("Expected fail-open evaluation, got %v", err)
	}
	if len(report.Findings) != 6 {
		t.Errorf("Expected all 6 rules to fail, got %d", len(report.Findings))
	}

	history, _ := mem.ComplianceHistory(context.Background(), "a1", 10)
	if len(history) != 1 {
		t.Errorf("Expected report to be persisted, got %d", len(history))
	}
}

// TestEngine_ReadTimeout tests that a hung read is bounded.
func TestEngine_ReadTimeout(t *testing.T) {
	store := &slowReads{MemoryStorage: storage.NewMemoryStorage()}

	start := time.Now()
	report, err := NewEngine(store, 20*time.Millisecond).Evaluate(context.Background(), "a1", SOX, 30)
	if err != nil {
		t.Fatalf("Expected evaluation despite timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Expected bounded evaluation, took %v", elapsed)
	}
	if report.TotalInteractions != 0 {
		t.Errorf("Expected zero stats after timeout, got %d", report.TotalInteractions)
	}
}

// TestEngine_Cancelled tests that a cancelled evaluation persists nothing.
func TestEngine_Cancelled(t *testing.T) {
	store := storage.NewMemoryStorage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewEngine(store, time.Second).Evaluate(ctx, "a1", EUAIAct, 30)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if report != nil {
		t.Error("Expected no report on cancellation")
	}

	history, _ := store.ComplianceHistory(context.Background(), "a1", 10)
	if len(history) != 0 {
		t.Errorf("Expected nothing persisted, got %d checks", len(history))
	}
}

// TestEngine_PersistError tests that a failed write is surfaced.
func TestEngine_PersistError(t *testing.T) {
	store := &brokenWrites{MemoryStorage: storage.NewMemoryStorage()}
	obs := &recordingObserver{}
	engine := NewEngine(store, time.Second)
	engine.SetObserver(obs)

	report, err := engine.Evaluate(context.Background(), "a1", EUAIAct, 30)
	if report != nil {
		t.Error("Expected report to be discarded")
	}
	var storageErr *evidence.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Expected StorageError, got %v", err)
	}
	if len(obs.reports) != 0 {
		t.Error("Expected observer not to see discarded report")
	}
}

// TestEngine_Observer tests that completed evaluations are observed.
func TestEngine_Observer(t *testing.T) {
	obs := &recordingObserver{}
	engine := NewEngine(storage.NewMemoryStorage(), time.Second)
	engine.SetObserver(obs)

	if _, err := engine.Evaluate(context.Background(), "a1", HIPAA, 7); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(obs.reports) != 1 || obs.reports[0].Regulation != HIPAA {
		t.Errorf("Expected one observed HIPAA report, got %+v", obs.reports)
	}
}

// TestNormalize tests clamping and rounding.
func TestNormalize(t *testing.T) {
	tests := []struct {
		running, total, expected float64
	}{
		{1, 1, 100},
		{-1, 1, 0},
		{0.3, 1, 30},
		{0.5, 0.75, 66.7},
		{1e-17, 1, 0},
		{0, 0, 0},
	}

	for _, tt := range tests {
		if got := normalize(tt.running, tt.total); got != tt.expected {
			t.Errorf("normalize(%v, %v) = %v, expected %v", tt.running, tt.total, got, tt.expected)
		}
	}
}
