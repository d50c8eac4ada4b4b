package webhook

import (
	"context"

	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/notify"
	"github.com/vcgate/vcgate/pkg/store"
)

// Subscriber delivers change notifications to repository webhooks.
type Subscriber struct {
	db    *db.DB
	store store.Store
}

var _ notify.Subscriber = (*Subscriber)(nil)

// NewSubscriber returns a webhook subscriber using the given database.
func NewSubscriber(dbx *db.DB, st store.Store) *Subscriber {
	return &Subscriber{db: dbx, store: st}
}

// Notify implements notify.Subscriber.
func (s *Subscriber) Notify(ctx context.Context, e notify.Event) error {
	payload, err := NewEventPayload(ctx, e)
	if err != nil {
		return err
	}

	ctx = db.WithContext(ctx, s.db)
	ctx = store.WithContext(ctx, s.store)
	return SendEvent(ctx, payload)
}
