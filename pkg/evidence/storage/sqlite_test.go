package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"agentguard-hq/agentguard/pkg/evidence"
)

// createTempDB creates a temporary SQLite database for testing.
func createTempDB(t *testing.T, driver string) (*SQLiteStorage, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	storage, err := NewSQLiteStorage(&SQLiteConfig{
		Path:         dbPath,
		Driver:       driver,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create SQLite storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })

	return storage, dbPath
}

// TestSQLiteStorage_Contract runs the shared backend tests on both drivers.
func TestSQLiteStorage_Contract(t *testing.T) {
	for _, driver := range []string{DriverCGO, DriverPureGo} {
		t.Run(driver, func(t *testing.T) {
			runStoreContract(t, func(t *testing.T) evidence.Store {
				s, _ := createTempDB(t, driver)
				return s
			})
		})
	}
}

// TestSQLiteStorage_Initialize tests database initialization.
func TestSQLiteStorage_Initialize(t *testing.T) {
	_, dbPath := createTempDB(t, DriverCGO)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

// TestSQLiteStorage_Reopen tests that reopening keeps data and schema version.
func TestSQLiteStorage_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	cfg := DefaultSQLiteConfig()
	cfg.Path = dbPath

	s1, err := NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	mustInsert(t, s1, newRecord("persisted", "agent-1", base, 0.1))
	s1.Close()

	s2, err := NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s2.Close()

	n, err := s2.Count(context.Background(), &evidence.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 record after reopen, got %d", n)
	}
}

// TestSQLiteStorage_ConcurrentDuplicateInserts tests that racing writers of
// the same ID produce exactly one row.
func TestSQLiteStorage_ConcurrentDuplicateInserts(t *testing.T) {
	s, _ := createTempDB(t, DriverCGO)
	ctx := context.Background()
	record := newRecord("dup", "agent-1", base, 0.1)

	var wg sync.WaitGroup
	var mu sync.Mutex
	inserted := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.InsertIfAbsent(ctx, record)
			if err != nil {
				t.Errorf("InsertIfAbsent() failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if inserted != 1 {
		t.Errorf("Expected exactly one successful insert, got %d", inserted)
	}
	n, _ := s.Count(ctx, &evidence.Query{})
	if n != 1 {
		t.Errorf("Expected 1 stored record, got %d", n)
	}
}

func TestDialect_Rebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	if got := sqliteDialect.rebind(q); got != q {
		t.Errorf("Expected sqlite query unchanged, got %q", got)
	}
	if got := postgresDialect.rebind(q); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("Unexpected postgres query: %q", got)
	}
}

func TestDBTime_Scan(t *testing.T) {
	tests := []struct {
		name  string
		src   any
		valid bool
	}{
		{"nil", nil, false},
		{"time", base, true},
		{"sqlite text", base.Format(sqliteTimeLayout), true},
		{"rfc3339 bytes", []byte(base.Format(time.RFC3339Nano)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts dbTime
			if err := ts.Scan(tt.src); err != nil {
				t.Fatalf("Scan() failed: %v", err)
			}
			if ts.Valid != tt.valid {
				t.Fatalf("Expected valid=%v, got %v", tt.valid, ts.Valid)
			}
			if tt.valid && !ts.Time.Equal(base) {
				t.Errorf("Expected %v, got %v", base, ts.Time)
			}
		})
	}

	var ts dbTime
	if err := ts.Scan("yesterday"); err == nil {
		t.Error("Expected error for unparseable timestamp")
	}
}
