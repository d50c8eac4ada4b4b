package migrate

import (
	"context"

	"github.com/vcgate/vcgate/pkg/db"
)

const (
	createWebhooksName    = "webhooks"
	createWebhooksVersion = 3
)

var createWebhooks = Migration{
	Version: createWebhooksVersion,
	Name:    createWebhooksName,
	Migrate: func(ctx context.Context, tx *db.Tx) error {
		return migrateUp(ctx, tx, createWebhooksVersion, createWebhooksName)
	},
	Rollback: func(ctx context.Context, tx *db.Tx) error {
		return migrateDown(ctx, tx, createWebhooksVersion, createWebhooksName)
	},
}
