package migrate

import (
	"context"

	"github.com/vcgate/vcgate/pkg/db"
)

const (
	createOperationsName    = "operations"
	createOperationsVersion = 2
)

var createOperations = Migration{
	Version: createOperationsVersion,
	Name:    createOperationsName,
	Migrate: func(ctx context.Context, tx *db.Tx) error {
		return migrateUp(ctx, tx, createOperationsVersion, createOperationsName)
	},
	Rollback: func(ctx context.Context, tx *db.Tx) error {
		return migrateDown(ctx, tx, createOperationsVersion, createOperationsName)
	},
}
