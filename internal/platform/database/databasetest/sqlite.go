// Package databasetest opens throwaway bootstrapped stores for tests.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"

	"relief/internal/platform/database"
)

// NewSQLite opens a bootstrapped SQLite database in a per-test temp dir.
func NewSQLite(t testing.TB) *database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "relief.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap sqlite: %v", err)
	}
	return db
}
