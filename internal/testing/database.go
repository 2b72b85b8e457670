// Package testing provides test helpers shared across pharmadex packages.
package testing

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/teranos/pharmadex/db"
	"github.com/teranos/pharmadex/store"
)

// CreateTestDB creates a migrated SQLite test database in t's temp dir.
// Automatically registers cleanup via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := db.OpenWithMigrations(filepath.Join(t.TempDir(), "pharmadex_test.db"), nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return sqlDB
}

// CreateTestClient returns a storage client over a fresh test database.
func CreateTestClient(t *testing.T) *store.SQLClient {
	t.Helper()
	return store.NewSQLClient(CreateTestDB(t), db.DialectSQLite, 5*time.Second, zaptest.NewLogger(t).Sugar())
}

// MustExec runs statements against sqlDB, failing the test on error.
func MustExec(t *testing.T, sqlDB *sql.DB, statements ...string) {
	t.Helper()
	for _, stmt := range statements {
		if _, err := sqlDB.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}
