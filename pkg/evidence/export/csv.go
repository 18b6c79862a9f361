package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"agentguard-hq/agentguard/pkg/evidence"
)

// CSVExporter exports interaction records to CSV.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes records as CSV rows. List and map fields are JSON-encoded
// into a single cell.
func (e *CSVExporter) Export(ctx context.Context, records []*evidence.InteractionRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		header := e.getHeaderRow()
		if err := writer.Write(header); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		row, err := e.recordToRow(record)
		if err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
		if err := writer.Write(row); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(records), err)
	}
	return nil
}

// ExportStream writes records from a channel as CSV, flushing every
// 100 rows.
func (e *CSVExporter) ExportStream(ctx context.Context, recordsCh <-chan *evidence.InteractionRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		header := e.getHeaderRow()
		if err := writer.Write(header); err != nil {
			return evidence.NewExportError("csv", 0, err)
		}
	}

	recordCount := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-recordsCh:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", recordCount, err)
				}
				return nil
			}

			row, err := e.recordToRow(record)
			if err != nil {
				return evidence.NewExportError("csv", recordCount, err)
			}

			if err := writer.Write(row); err != nil {
				return evidence.NewExportError("csv", recordCount, err)
			}

			recordCount++

			if recordCount%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", recordCount, err)
				}
			}
		}
	}
}

// csvHeader lists the CSV columns in row order.
var csvHeader = []string{
	"id", "agent_id", "session_id", "timestamp", "event_type",
	"prompt_hash", "response_hash",
	"prompt_tokens", "response_tokens", "model", "provider",
	"risk_score", "risk_level", "eu_article",
	"pii_detected", "pii_types", "tool_calls", "compliance_flags",
	"ip_address", "user_agent",
}

// getHeaderRow returns the CSV header row.
func (e *CSVExporter) getHeaderRow() []string {
	return csvHeader
}

// recordToRow converts an interaction record to a CSV row.
func (e *CSVExporter) recordToRow(record *evidence.InteractionRecord) ([]string, error) {
	formatJSON := func(v any) (string, error) {
		data, err := json.Marshal(v)
		return string(data), err
	}

	piiTypes, err := formatJSON(record.PIITypes)
	if err != nil {
		return nil, err
	}
	toolCalls, err := formatJSON(record.ToolCalls)
	if err != nil {
		return nil, err
	}
	flags, err := formatJSON(record.ComplianceFlags)
	if err != nil {
		return nil, err
	}

	timestamp := ""
	if !record.Timestamp.IsZero() {
		timestamp = record.Timestamp.UTC().Format(time.RFC3339Nano)
	}

	return []string{
		record.ID,
		record.AgentID,
		record.SessionID,
		timestamp,
		record.EventType,
		record.PromptHash,
		record.ResponseHash,
		strconv.Itoa(record.PromptTokens),
		strconv.Itoa(record.ResponseTokens),
		record.Model,
		record.Provider,
		strconv.FormatFloat(record.RiskScore, 'f', 4, 64),
		record.Metadata["risk_level"],
		record.Metadata["eu_article"],
		strconv.FormatBool(record.PIIDetected),
		piiTypes,
		toolCalls,
		flags,
		record.IPAddress,
		record.UserAgent,
	}, nil
}
