// Package migrate provides database migration functionality.
package migrate

import (
	"context"

	"github.com/vcgate/vcgate/pkg/db"
)

const (
	createTablesName    = "create tables"
	createTablesVersion = 1
)

var createTables = Migration{
	Version: createTablesVersion,
	Name:    createTablesName,
	Migrate: func(ctx context.Context, tx *db.Tx) error {
		if err := migrateUp(ctx, tx, createTablesVersion, createTablesName); err != nil {
			return err
		}

		// Insert default user
		insertUser := "INSERT INTO users (username, admin, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)"
		switch tx.DriverName() {
		case driverSQLite, driverSQLite3:
			insertUser = "INSERT OR IGNORE INTO users (username, admin, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)"
		case driverPostgres:
			insertUser += " ON CONFLICT DO NOTHING"
		}

		_, err := tx.ExecContext(ctx, tx.Rebind(insertUser), "admin", true)
		return err //nolint:wrapcheck
	},
	Rollback: func(ctx context.Context, tx *db.Tx) error {
		return migrateDown(ctx, tx, createTablesVersion, createTablesName)
	},
}
