// Package backend manages repositories, accounts, users and the recorded
// operations of vcgate.
package backend

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/vcgate/vcgate/pkg/config"
	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/notify"
	"github.com/vcgate/vcgate/pkg/store"
)

// Backend is the vcgate backend that handles users, repositories, accounts
// and operations.
type Backend struct {
	ctx      context.Context
	cfg      *config.Config
	db       *db.DB
	store    store.Store
	registry *extension.Registry
	logger   *log.Logger
	cache    *cache
}

// New returns a new vcgate backend. Plugins register themselves on reg.
func New(ctx context.Context, cfg *config.Config, db *db.DB, st store.Store, reg *extension.Registry) *Backend {
	if reg == nil {
		reg = extension.NewRegistry()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	b := &Backend{
		ctx:      ctx,
		cfg:      cfg,
		db:       db,
		store:    st,
		registry: reg,
		logger:   log.FromContext(ctx).WithPrefix("backend"),
	}
	b.cache = newCache(b, 1000)

	return b
}

// Registry returns the extension registry of the backend.
func (d *Backend) Registry() *extension.Registry {
	return d.registry
}

// DB returns the database of the backend.
func (d *Backend) DB() *db.DB {
	return d.db
}

// Store returns the store of the backend.
func (d *Backend) Store() store.Store {
	return d.store
}

// publish broadcasts an event. Subscriber failures are logged by the
// notifier and never fail the change that caused them.
func (d *Backend) publish(ctx context.Context, e notify.Event) {
	if err := d.registry.Notifier().Publish(ctx, e); err != nil {
		d.logger.Debug("event delivered with failures", "scope", e.Scope, "action", e.Action, "err", err)
	}
}
