package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/migrate"
)

// OpenDB opens a new temp SQLite database with every migration applied.
// The database is closed when the test is done.
func OpenDB(ctx context.Context, tb testing.TB) *db.DB {
	tb.Helper()
	if ctx == nil {
		ctx = context.TODO()
	}
	dsn := filepath.Join(tb.TempDir(), "vcgate.db") + "?_pragma=foreign_keys(1)&_time_format=sqlite"
	dbx, err := db.Open(ctx, "sqlite", dsn)
	if err != nil {
		tb.Fatalf("open database: %v", err)
	}
	tb.Cleanup(func() {
		if err := dbx.Close(); err != nil {
			tb.Error(err)
		}
	})
	if err := migrate.Migrate(ctx, dbx); err != nil {
		tb.Fatalf("migrate database: %v", err)
	}
	return dbx
}
