package storage

import (
	"context"
	"testing"

	"agentguard-hq/agentguard/pkg/evidence"
)

// TestMemoryStorage_Contract runs the shared backend tests in memory.
func TestMemoryStorage_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) evidence.Store {
		return NewMemoryStorage()
	})
}

// TestMemoryStorage_CopiesRecords tests that callers cannot mutate stored records.
func TestMemoryStorage_CopiesRecords(t *testing.T) {
	s := NewMemoryStorage()
	record := newRecord("m1", "agent-1", base, 0.1, "email")
	mustInsert(t, s, record)

	record.PIITypes[0] = "mutated"
	record.Metadata["risk_level"] = "mutated"

	stored := s.GetByID("m1")
	if stored == nil {
		t.Fatal("Expected record to be stored")
	}
	if stored.PIITypes[0] != "email" || stored.Metadata["risk_level"] != "minimal" {
		t.Errorf("Stored record was mutated: %+v", stored)
	}

	results, _ := s.Query(context.Background(), &evidence.Query{})
	results[0].PIITypes[0] = "mutated"
	if s.GetByID("m1").PIITypes[0] != "email" {
		t.Error("Query result aliases stored record")
	}
}

func TestMemoryStorage_ClearAndSize(t *testing.T) {
	s := NewMemoryStorage()
	mustInsert(t, s, newRecord("m1", "agent-1", base, 0.1), newRecord("m2", "agent-1", base, 0.1))

	if s.Size() != 2 {
		t.Fatalf("Expected size 2, got %d", s.Size())
	}
	s.Clear()
	if s.Size() != 0 {
		t.Errorf("Expected size 0 after Clear, got %d", s.Size())
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: BackendMemory})
	if err != nil {
		t.Fatalf("Open(memory) failed: %v", err)
	}
	if _, ok := s.(*MemoryStorage); !ok {
		t.Errorf("Expected *MemoryStorage, got %T", s)
	}

	if _, err := Open(ctx, Options{Backend: BackendPostgres}); err == nil {
		t.Error("Expected error for postgres without DSN")
	}
	if _, err := Open(ctx, Options{Backend: "mongo"}); err == nil {
		t.Error("Expected error for unknown backend")
	}
}
