package catalog

import (
	"database/sql"
	"testing"
)

// OpenMemoryDB opens an in-memory catalog database for tests. MaxOpenConns
// is pinned to 1 because each new connection to ":memory:" is a separate
// database. The handle is closed automatically via t.Cleanup.
func OpenMemoryDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
