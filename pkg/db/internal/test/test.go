// Package test provides testing utilities for database operations.
package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vcgate/vcgate/pkg/db"
)

// OpenSqlite opens a new temp SQLite database for testing with foreign keys
// enforced. The database is closed when the test is done.
// If ctx is nil, context.TODO() is used.
func OpenSqlite(ctx context.Context, tb testing.TB) (*db.DB, error) {
	if ctx == nil {
		ctx = context.TODO()
	}
	dsn := filepath.Join(tb.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_time_format=sqlite"
	dbx, err := db.Open(ctx, "sqlite", dsn)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	tb.Cleanup(func() {
		if err := dbx.Close(); err != nil {
			tb.Error(err)
		}
	})
	return dbx, nil
}
