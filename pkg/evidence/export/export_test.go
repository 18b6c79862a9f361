package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"agentguard-hq/agentguard/pkg/classify"
	"agentguard-hq/agentguard/pkg/evidence"
)

func testRecords() []*evidence.InteractionRecord {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []*evidence.InteractionRecord{
		{
			ID:           "rec-1",
			AgentID:      "agent-1",
			Timestamp:    ts,
			EventType:    evidence.EventTypeLLMCall,
			PromptHash:   "abc",
			Model:        "gpt-4o-mini",
			Provider:     "openai",
			RiskScore:    0.3,
			PIIDetected:  true,
			PIITypes:     []string{"email", "ssn"},
			PromptTokens: 12,
			ComplianceFlags: []classify.Flag{
				{Code: classify.FlagPIIExposure, Severity: classify.FlagHigh, Message: "PII detected, with comma"},
			},
			Metadata: map[string]string{"risk_level": "minimal", "eu_article": "N/A (voluntary code of conduct)"},
		},
		{
			ID:        "rec-2",
			AgentID:   "agent-1",
			Timestamp: ts.Add(time.Minute),
			RiskScore: 0.75,
			Metadata:  map[string]string{"risk_level": "high"},
		},
	}
}

// failingWriter fails every write.
type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("write failed")
}

// TestJSONExporter_Export tests that records round-trip through JSON.
func TestJSONExporter_Export(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer
		if err := NewJSONExporter(pretty).Export(context.Background(), testRecords(), &buf); err != nil {
			t.Fatalf("Export failed (pretty=%v): %v", pretty, err)
		}

		var decoded []*evidence.InteractionRecord
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode output (pretty=%v): %v", pretty, err)
		}
		if len(decoded) != 2 {
			t.Fatalf("Expected 2 records, got %d", len(decoded))
		}
		if decoded[0].ID != "rec-1" || len(decoded[0].PIITypes) != 2 {
			t.Errorf("Expected first record preserved, got %+v", decoded[0])
		}
	}
}

// TestJSONExporter_Empty tests that no records produce an empty array.
func TestJSONExporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if buf.String() != "[]" {
		t.Errorf("Expected [], got %s", buf.String())
	}
}

// TestJSONExporter_ExportStream tests streaming output is a valid array.
func TestJSONExporter_ExportStream(t *testing.T) {
	ch := make(chan *evidence.InteractionRecord, 2)
	for _, r := range testRecords() {
		ch <- r
	}
	close(ch)

	var buf bytes.Buffer
	if err := NewJSONExporter(true).ExportStream(context.Background(), ch, &buf); err != nil {
		t.Fatalf("ExportStream failed: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode stream output: %v\n%s", err, buf.String())
	}
	if len(decoded) != 2 {
		t.Errorf("Expected 2 records, got %d", len(decoded))
	}
}

// TestJSONExporter_WriterError tests that writer failures become ExportError.
func TestJSONExporter_WriterError(t *testing.T) {
	err := NewJSONExporter(false).Export(context.Background(), testRecords(), failingWriter{})
	var exportErr *evidence.ExportError
	if !errors.As(err, &exportErr) {
		t.Fatalf("Expected ExportError, got %v", err)
	}
	if exportErr.Format != "json" {
		t.Errorf("Expected format json, got %s", exportErr.Format)
	}
}

// TestCSVExporter_Export tests header, escaping and flattened columns.
func TestCSVExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), testRecords(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", len(rows))
	}
	if len(rows[0]) != len(csvHeader) {
		t.Fatalf("Expected %d columns, got %d", len(csvHeader), len(rows[0]))
	}

	col := func(name string) int {
		for i, h := range rows[0] {
			if h == name {
				return i
			}
		}
		t.Fatalf("Missing column %s", name)
		return -1
	}

	first := rows[1]
	if first[col("id")] != "rec-1" {
		t.Errorf("Expected id rec-1, got %s", first[col("id")])
	}
	if first[col("pii_types")] != `["email","ssn"]` {
		t.Errorf("Expected JSON pii types, got %s", first[col("pii_types")])
	}
	if first[col("risk_score")] != "0.3000" {
		t.Errorf("Expected risk score 0.3000, got %s", first[col("risk_score")])
	}
	if first[col("timestamp")] != "2026-03-01T12:00:00Z" {
		t.Errorf("Expected RFC3339 timestamp, got %s", first[col("timestamp")])
	}
	if !strings.Contains(first[col("compliance_flags")], "with comma") {
		t.Errorf("Expected flags cell to survive escaping, got %s", first[col("compliance_flags")])
	}
	if rows[2][col("risk_level")] != "high" {
		t.Errorf("Expected risk level high, got %s", rows[2][col("risk_level")])
	}
}

// TestCSVExporter_NoHeader tests header suppression.
func TestCSVExporter_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(false).Export(context.Background(), testRecords(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if strings.HasPrefix(buf.String(), "id,") {
		t.Error("Expected no header row")
	}
}

// TestCSVExporter_ExportStream tests streaming CSV output and cancellation.
func TestCSVExporter_ExportStream(t *testing.T) {
	ch := make(chan *evidence.InteractionRecord, 2)
	for _, r := range testRecords() {
		ch <- r
	}
	close(ch)

	var buf bytes.Buffer
	if err := NewCSVExporter(true).ExportStream(context.Background(), ch, &buf); err != nil {
		t.Fatalf("ExportStream failed: %v", err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 3 {
		t.Errorf("Expected 3 lines, got %d", lines)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	open := make(chan *evidence.InteractionRecord)
	if err := NewCSVExporter(false).ExportStream(ctx, open, &buf); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
