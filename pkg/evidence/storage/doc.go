// Package storage provides storage backends for interaction records, agent
// registrations, compliance history and report jobs.
//
// # Backends
//
//   - SQLite: embedded database for single-node deployments. Either
//     github.com/mattn/go-sqlite3 (driver "sqlite3") or the pure-Go
//     modernc.org/sqlite (driver "sqlite") can be selected.
//   - PostgreSQL: shared database via github.com/lib/pq
//   - Memory: in-memory storage for tests and dry runs
//
// The SQL backends share one implementation and differ only in placeholder
// style, timestamp encoding and schema. Writes to audit_logs use
// INSERT ... ON CONFLICT (id) DO NOTHING so that a retried delivery of the
// same record is a no-op.
//
// # Basic Usage
//
//	store, err := storage.Open(ctx, storage.Options{
//	    Backend: storage.BackendSQLite,
//	    SQLite:  storage.DefaultSQLiteConfig(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	inserted, err := store.InsertIfAbsent(ctx, record)
//
//	stats, err := store.Stats(ctx, "agent-1", start, end)
//
// # Thread Safety
//
// All backends are safe for concurrent use. SQLite runs in WAL mode so
// readers do not block the writer.
package storage
