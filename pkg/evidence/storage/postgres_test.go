package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"agentguard-hq/agentguard/pkg/evidence"
)

func newMockPostgres(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewPostgresStorageFromDB(db), mock
}

// TestPostgresStorage_InsertIfAbsent tests numbered placeholders and the
// conflict no-op path.
func TestPostgresStorage_InsertIfAbsent(t *testing.T) {
	s, mock := newMockPostgres(t)
	ctx := context.Background()
	record := newRecord("pg-1", "agent-1", base, 0.75, "email")

	mock.ExpectExec(`INSERT INTO audit_logs .* VALUES \(\$1, \$2, .*\$19\)\s+ON CONFLICT \(id\) DO NOTHING`).
		WithArgs("pg-1", "agent-1", "sess-1", sqlmock.AnyArg(), evidence.EventTypeLLMCall,
			"p-pg-1", 10, "r-pg-1", 0, "gpt-4o-mini", "openai",
			0.75, true, `["email"]`, "[]", sqlmock.AnyArg(), sqlmock.AnyArg(),
			"127.0.0.1", "test").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := s.InsertIfAbsent(ctx, record)
	if err != nil || !inserted {
		t.Fatalf("Expected insert, got inserted=%v err=%v", inserted, err)
	}
	inserted, err = s.InsertIfAbsent(ctx, record)
	if err != nil {
		t.Fatalf("Duplicate insert failed: %v", err)
	}
	if inserted {
		t.Error("Expected conflicting insert to report no write")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

// TestPostgresStorage_Stats tests aggregate scanning with NULL sums.
func TestPostgresStorage_Stats(t *testing.T) {
	s, mock := newMockPostgres(t)

	rows := sqlmock.NewRows([]string{"count", "pii", "high", "flagged", "avg", "days"}).
		AddRow(int64(4), int64(1), nil, int64(2), 0.4, int64(3))
	mock.ExpectQuery(`SELECT\s+COUNT\(\*\).*FROM audit_logs\s+WHERE agent_id = \$2 AND timestamp BETWEEN \$3 AND \$4`).
		WithArgs(evidence.HighRiskThreshold, "agent-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	stats, err := s.Stats(context.Background(), "agent-1", base.Add(-time.Hour), base)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.Total != 4 || stats.PIICount != 1 || stats.HighRiskCount != 0 || stats.FlaggedCount != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.ActiveDays != 3 || !stats.HasLogs || stats.AvgRiskScore != 0.4 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

// TestPostgresStorage_GetAgentNotFound tests sql.ErrNoRows mapping.
func TestPostgresStorage_GetAgentNotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT .* FROM agents WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetAgent(context.Background(), "missing")
	if !errors.Is(err, evidence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

// TestPostgresStorage_ErrorWrapping tests that driver errors surface as
// StorageError with the postgres backend name.
func TestPostgresStorage_ErrorWrapping(t *testing.T) {
	s, mock := newMockPostgres(t)
	boom := errors.New("connection refused")

	mock.ExpectExec(`INSERT INTO compliance_checks`).WillReturnError(boom)

	err := s.AppendComplianceCheck(context.Background(), &evidence.ComplianceCheck{
		ID: "c1", AgentID: "agent-1", CheckDate: base, Regulation: "SOX", Status: "completed",
	})

	var storageErr *evidence.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Expected StorageError, got %T: %v", err, err)
	}
	if storageErr.Backend != "postgres" || storageErr.Operation != "append_compliance_check" {
		t.Errorf("Unexpected error fields: %+v", storageErr)
	}
	if !errors.Is(err, boom) {
		t.Error("Expected cause to be preserved")
	}
}

func TestPostgresStorage_Migrate(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS agents`).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestPostgresStorage_DeactivateMissing(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`UPDATE agents SET is_active = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(false, sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.DeactivateAgent(context.Background(), "ghost"); !errors.Is(err, evidence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
