package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"agentguard-hq/agentguard/pkg/classify"
	"agentguard-hq/agentguard/pkg/evidence"
)

// base is a fixed reference time; tests never depend on the wall clock.
var base = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newRecord(id, agentID string, ts time.Time, risk float64, piiTypes ...string) *evidence.InteractionRecord {
	r := &evidence.InteractionRecord{
		ID:           id,
		AgentID:      agentID,
		SessionID:    "sess-1",
		Timestamp:    ts,
		EventType:    evidence.EventTypeLLMCall,
		PromptHash:   "p-" + id,
		ResponseHash: "r-" + id,
		PromptTokens: 10,
		Model:        "gpt-4o-mini",
		Provider:     "openai",
		RiskScore:    risk,
		PIIDetected:  len(piiTypes) > 0,
		PIITypes:     piiTypes,
		Metadata:     map[string]string{"risk_level": "minimal", "eu_article": "N/A"},
		IPAddress:    "127.0.0.1",
		UserAgent:    "test",
	}
	if len(piiTypes) > 0 {
		r.ComplianceFlags = []classify.Flag{{Code: classify.FlagPIIExposure, Severity: classify.FlagHigh}}
	}
	return r
}

func mustInsert(t *testing.T, s evidence.Store, records ...*evidence.InteractionRecord) {
	t.Helper()
	for _, r := range records {
		if _, err := s.InsertIfAbsent(context.Background(), r); err != nil {
			t.Fatalf("InsertIfAbsent(%s) failed: %v", r.ID, err)
		}
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// runStoreContract exercises behavior every backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) evidence.Store) {
	t.Run("InsertIfAbsent is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		r := newRecord("rec-1", "agent-1", base, 0.1)

		inserted, err := s.InsertIfAbsent(ctx, r)
		if err != nil || !inserted {
			t.Fatalf("Expected first insert to write, got inserted=%v err=%v", inserted, err)
		}
		inserted, err = s.InsertIfAbsent(ctx, r)
		if err != nil {
			t.Fatalf("Second insert failed: %v", err)
		}
		if inserted {
			t.Error("Expected duplicate insert to be a no-op")
		}

		n, err := s.Count(ctx, &evidence.Query{})
		if err != nil {
			t.Fatalf("Count() failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 record, got %d", n)
		}
	})

	t.Run("Query round trip and ordering", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustInsert(t, s,
			newRecord("old", "agent-1", base.Add(-2*time.Hour), 0.1),
			newRecord("new", "agent-1", base, 0.75, classify.PIIEmail),
			newRecord("other", "agent-2", base.Add(-time.Hour), 0.35),
		)

		results, err := s.Query(ctx, &evidence.Query{AgentID: "agent-1"})
		if err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("Expected 2 records, got %d", len(results))
		}
		if results[0].ID != "new" || results[1].ID != "old" {
			t.Errorf("Expected newest first, got %s, %s", results[0].ID, results[1].ID)
		}

		got := results[0]
		if !got.Timestamp.Equal(base) {
			t.Errorf("Expected timestamp %v, got %v", base, got.Timestamp)
		}
		if !got.PIIDetected || len(got.PIITypes) != 1 || got.PIITypes[0] != classify.PIIEmail {
			t.Errorf("Unexpected PII fields: %v %v", got.PIIDetected, got.PIITypes)
		}
		if len(got.ComplianceFlags) != 1 || got.ComplianceFlags[0].Code != classify.FlagPIIExposure {
			t.Errorf("Unexpected flags: %+v", got.ComplianceFlags)
		}
		if got.Metadata["risk_level"] != "minimal" {
			t.Errorf("Unexpected metadata: %v", got.Metadata)
		}
		if got.SessionID != "sess-1" || got.PromptHash != "p-new" {
			t.Errorf("Unexpected identity fields: %+v", got)
		}
	})

	t.Run("Query filters and pagination", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			mustInsert(t, s, newRecord(string(rune('a'+i)), "agent-1", base.Add(time.Duration(i)*time.Minute), float64(i)*0.2))
		}

		minRisk := 0.5
		results, err := s.Query(ctx, &evidence.Query{AgentID: "agent-1", MinRisk: &minRisk})
		if err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("Expected 2 records with risk >= 0.5, got %d", len(results))
		}

		page, err := s.Query(ctx, &evidence.Query{AgentID: "agent-1", Limit: 2, Offset: 1})
		if err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		if len(page) != 2 || page[0].ID != "d" || page[1].ID != "c" {
			t.Errorf("Unexpected page: %v", ids(page))
		}
	})

	t.Run("QueryStream", func(t *testing.T) {
		s := newStore(t)
		mustInsert(t, s,
			newRecord("s1", "agent-1", base, 0.1),
			newRecord("s2", "agent-1", base.Add(time.Minute), 0.1),
		)

		recordsCh, errCh, err := s.QueryStream(context.Background(), &evidence.Query{})
		if err != nil {
			t.Fatalf("QueryStream() failed: %v", err)
		}
		count := 0
		for range recordsCh {
			count++
		}
		if err := <-errCh; err != nil {
			t.Fatalf("Stream error: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2 streamed records, got %d", count)
		}
	})

	t.Run("QueryStream is not paged", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < defaultQueryLimit+50; i++ {
			mustInsert(t, s, newRecord(fmt.Sprintf("bulk-%03d", i), "agent-1", base.Add(time.Duration(i)*time.Second), 0.1))
		}

		recordsCh, errCh, err := s.QueryStream(context.Background(), &evidence.Query{SortOrder: "asc"})
		if err != nil {
			t.Fatalf("QueryStream() failed: %v", err)
		}
		count := 0
		for range recordsCh {
			count++
		}
		if err := <-errCh; err != nil {
			t.Fatalf("Stream error: %v", err)
		}
		if count != defaultQueryLimit+50 {
			t.Errorf("Expected %d streamed records, got %d", defaultQueryLimit+50, count)
		}

		page, err := s.Query(context.Background(), &evidence.Query{})
		if err != nil {
			t.Fatal(err)
		}
		if len(page) != defaultQueryLimit {
			t.Errorf("Query() returned %d records, want default page of %d", len(page), defaultQueryLimit)
		}
	})

	t.Run("Stats window", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustInsert(t, s,
			newRecord("w1", "agent-1", base, 0.1),
			newRecord("w2", "agent-1", base.Add(24*time.Hour), 0.75, classify.PIIEmail),
			newRecord("w3", "agent-1", base.Add(25*time.Hour), 0.8, classify.PIIPhone),
			newRecord("outside", "agent-1", base.Add(-40*24*time.Hour), 1.0, classify.PIISSN),
			newRecord("other", "agent-2", base, 1.0),
		)

		stats, err := s.Stats(ctx, "agent-1", base.Add(-time.Hour), base.Add(48*time.Hour))
		if err != nil {
			t.Fatalf("Stats() failed: %v", err)
		}
		if stats.Total != 3 {
			t.Errorf("Expected total 3, got %d", stats.Total)
		}
		if stats.PIICount != 2 {
			t.Errorf("Expected PII count 2, got %d", stats.PIICount)
		}
		if stats.HighRiskCount != 2 {
			t.Errorf("Expected high risk 2, got %d", stats.HighRiskCount)
		}
		if stats.FlaggedCount != 2 {
			t.Errorf("Expected flagged 2, got %d", stats.FlaggedCount)
		}
		if !approx(stats.AvgRiskScore, (0.1+0.75+0.8)/3) {
			t.Errorf("Unexpected average risk %v", stats.AvgRiskScore)
		}
		if stats.ActiveDays != 2 {
			t.Errorf("Expected 2 active days, got %d", stats.ActiveDays)
		}
		if !stats.HasLogs {
			t.Error("Expected HasLogs")
		}

		empty, err := s.Stats(ctx, "nobody", base.Add(-time.Hour), base)
		if err != nil {
			t.Fatalf("Stats() failed: %v", err)
		}
		if empty.Total != 0 || empty.HasLogs || empty.AvgRiskScore != 0 {
			t.Errorf("Expected zero stats, got %+v", empty)
		}
	})

	t.Run("Activity and Overview", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustInsert(t, s,
			newRecord("a1", "agent-1", base, 0.2),
			newRecord("a2", "agent-1", base.Add(time.Hour), 0.8, classify.PIIEmail),
			newRecord("b1", "agent-2", base, 0.5),
		)

		activity, err := s.Activity(ctx, "agent-1")
		if err != nil {
			t.Fatalf("Activity() failed: %v", err)
		}
		if activity.Total != 2 || activity.PIICount != 1 || activity.HighRisk != 1 {
			t.Errorf("Unexpected activity: %+v", activity)
		}
		if activity.LastSeen == nil || !activity.LastSeen.Equal(base.Add(time.Hour)) {
			t.Errorf("Unexpected last seen: %v", activity.LastSeen)
		}

		none, err := s.Activity(ctx, "nobody")
		if err != nil {
			t.Fatalf("Activity() failed: %v", err)
		}
		if none.Total != 0 || none.LastSeen != nil {
			t.Errorf("Expected empty activity, got %+v", none)
		}

		overview, err := s.Overview(ctx)
		if err != nil {
			t.Fatalf("Overview() failed: %v", err)
		}
		if overview.TotalInteractions != 3 || overview.PIIExposures != 1 || overview.HighRiskCount != 1 {
			t.Errorf("Unexpected overview: %+v", overview)
		}
		if !approx(overview.AvgRiskScore, 0.5) {
			t.Errorf("Expected average 0.5, got %v", overview.AvgRiskScore)
		}
	})

	t.Run("DeleteBefore", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustInsert(t, s,
			newRecord("d1", "agent-1", base.Add(-3*time.Hour), 0.1),
			newRecord("d2", "agent-1", base.Add(-2*time.Hour), 0.1),
			newRecord("d3", "agent-1", base.Add(-1*time.Hour), 0.1),
			newRecord("keep", "agent-1", base.Add(time.Hour), 0.1),
		)

		n, err := s.DeleteBefore(ctx, base, 2)
		if err != nil {
			t.Fatalf("DeleteBefore() failed: %v", err)
		}
		if n != 2 {
			t.Errorf("Expected 2 deleted with limit, got %d", n)
		}

		n, err = s.DeleteBefore(ctx, base, 0)
		if err != nil {
			t.Fatalf("DeleteBefore() failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 remaining old record deleted, got %d", n)
		}

		results, _ := s.Query(ctx, &evidence.Query{})
		if len(results) != 1 || results[0].ID != "keep" {
			t.Errorf("Expected only 'keep' to remain, got %v", ids(results))
		}
	})

	t.Run("Agents", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first := &evidence.Agent{
			ID: "agent-1", Name: "Support bot", Provider: "openai", Model: "gpt-4o-mini",
			RiskLevel: "limited", RegulationScope: []string{"EU_AI_ACT", "HIPAA"},
			Attestation: evidence.Attestation{Encryption: true, BAA: true},
			CreatedAt:   base, UpdatedAt: base, IsActive: true,
		}
		second := &evidence.Agent{
			ID: "agent-2", Name: "Scorer", Provider: "anthropic", Model: "claude",
			RiskLevel: "high", RegulationScope: []string{"SOX"},
			Attestation: evidence.DefaultAttestation(),
			CreatedAt:   base.Add(time.Hour), UpdatedAt: base.Add(time.Hour), IsActive: true,
		}
		for _, a := range []*evidence.Agent{first, second} {
			if err := s.CreateAgent(ctx, a); err != nil {
				t.Fatalf("CreateAgent() failed: %v", err)
			}
		}

		got, err := s.GetAgent(ctx, "agent-1")
		if err != nil {
			t.Fatalf("GetAgent() failed: %v", err)
		}
		if got.Name != "Support bot" || !got.Attestation.BAA || !got.Attestation.Encryption || got.Attestation.QMS {
			t.Errorf("Unexpected agent: %+v", got)
		}
		if len(got.RegulationScope) != 2 || got.RegulationScope[1] != "HIPAA" {
			t.Errorf("Unexpected scope: %v", got.RegulationScope)
		}

		list, err := s.ListActiveAgents(ctx)
		if err != nil {
			t.Fatalf("ListActiveAgents() failed: %v", err)
		}
		if len(list) != 2 || list[0].ID != "agent-2" {
			t.Errorf("Expected newest agent first, got %d agents", len(list))
		}

		if err := s.DeactivateAgent(ctx, "agent-2"); err != nil {
			t.Fatalf("DeactivateAgent() failed: %v", err)
		}
		n, err := s.CountActiveAgents(ctx)
		if err != nil {
			t.Fatalf("CountActiveAgents() failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 active agent, got %d", n)
		}

		if _, err := s.GetAgent(ctx, "missing"); !errors.Is(err, evidence.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if err := s.DeactivateAgent(ctx, "missing"); !errors.Is(err, evidence.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Compliance history", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i, score := range []float64{40, 80} {
			err := s.AppendComplianceCheck(ctx, &evidence.ComplianceCheck{
				ID:              string(rune('x' + i)),
				AgentID:         "agent-1",
				CheckDate:       base.Add(time.Duration(i) * time.Hour),
				Regulation:      "HIPAA",
				OverallScore:    score,
				Findings:        []evidence.FindingRecord{{Code: "HIPAA-BAA", Severity: "CRITICAL"}},
				Recommendations: []string{"one", "two"},
				Status:          "completed",
			})
			if err != nil {
				t.Fatalf("AppendComplianceCheck() failed: %v", err)
			}
		}

		history, err := s.ComplianceHistory(ctx, "agent-1", 20)
		if err != nil {
			t.Fatalf("ComplianceHistory() failed: %v", err)
		}
		if len(history) != 2 || history[0].OverallScore != 80 {
			t.Fatalf("Expected newest check first, got %+v", history)
		}
		if len(history[0].Findings) != 1 || history[0].Findings[0].Code != "HIPAA-BAA" {
			t.Errorf("Unexpected findings: %+v", history[0].Findings)
		}
		if len(history[0].Recommendations) != 2 {
			t.Errorf("Unexpected recommendations: %v", history[0].Recommendations)
		}

		latest, err := s.LatestComplianceCheck(ctx, "agent-1")
		if err != nil || latest.OverallScore != 80 {
			t.Errorf("Unexpected latest: %+v, %v", latest, err)
		}
		if _, err := s.LatestComplianceCheck(ctx, "nobody"); !errors.Is(err, evidence.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}

		avg, err := s.AverageComplianceScore(ctx)
		if err != nil {
			t.Fatalf("AverageComplianceScore() failed: %v", err)
		}
		if !approx(avg, 60) {
			t.Errorf("Expected average 60, got %v", avg)
		}
	})

	t.Run("Reports", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		start := base.Add(-30 * 24 * time.Hour)

		err := s.CreateReport(ctx, &evidence.ReportRecord{
			ID: "rep-1", AgentID: "agent-1", ReportType: "technical_docs",
			CreatedAt: base, PeriodStart: &start, PeriodEnd: &base,
			Status: evidence.ReportGenerating,
		})
		if err != nil {
			t.Fatalf("CreateReport() failed: %v", err)
		}
		err = s.CreateReport(ctx, &evidence.ReportRecord{
			ID: "rep-2", AgentID: "agent-1", ReportType: "audit_summary",
			CreatedAt: base, Status: evidence.ReportGenerating,
		})
		if err != nil {
			t.Fatalf("CreateReport() failed: %v", err)
		}

		if err := s.UpdateReportStatus(ctx, "rep-1", evidence.ReportCompleted, "/tmp/rep-1.md"); err != nil {
			t.Fatalf("UpdateReportStatus() failed: %v", err)
		}

		got, err := s.GetReport(ctx, "rep-1")
		if err != nil {
			t.Fatalf("GetReport() failed: %v", err)
		}
		if got.Status != evidence.ReportCompleted || got.FilePath != "/tmp/rep-1.md" {
			t.Errorf("Unexpected report: %+v", got)
		}
		if got.PeriodStart == nil || !got.PeriodStart.Equal(start) {
			t.Errorf("Unexpected period start: %v", got.PeriodStart)
		}

		if n, _ := s.CountReports(ctx, "agent-1", "technical_docs"); n != 1 {
			t.Errorf("Expected 1 technical_docs report, got %d", n)
		}
		if n, _ := s.CountReports(ctx, "agent-1", ""); n != 2 {
			t.Errorf("Expected 2 reports of any type, got %d", n)
		}
		if _, err := s.GetReport(ctx, "missing"); !errors.Is(err, evidence.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if err := s.UpdateReportStatus(ctx, "missing", evidence.ReportFailed, ""); !errors.Is(err, evidence.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func ids(records []*evidence.InteractionRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
