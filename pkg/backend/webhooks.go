package backend

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/models"
	"github.com/vcgate/vcgate/pkg/store"
	"github.com/vcgate/vcgate/pkg/webhook"
)

// ErrWebhookNotFound is returned when a webhook doesn't exist in a
// repository.
var ErrWebhookNotFound = errors.New("webhook not found")

// ErrDeliveryNotFound is returned when a webhook delivery doesn't exist.
var ErrDeliveryNotFound = errors.New("webhook delivery not found")

func webhookError(err error) error {
	err = db.WrapError(err)
	if errors.Is(err, db.ErrRecordNotFound) {
		return ErrWebhookNotFound
	}
	return err
}

func eventInts(events []webhook.Event) []int {
	evs := make([]int, len(events))
	for i, e := range events {
		evs[i] = int(e)
	}
	return evs
}

// CreateWebhook creates a webhook for a repository.
func (d *Backend) CreateWebhook(ctx context.Context, repo string, url string, contentType webhook.ContentType, secret string, events []webhook.Event, active bool) (webhook.Hook, error) {
	if err := webhook.ValidateWebhookURL(url); err != nil {
		return webhook.Hook{}, err
	}

	r, err := d.Repository(ctx, repo)
	if err != nil {
		return webhook.Hook{}, err
	}

	var id int64
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		id, err = d.store.CreateWebhook(ctx, tx, r.ID, url, secret, int(contentType), active)
		if err != nil {
			return err
		}

		return d.store.CreateWebhookEvents(ctx, tx, id, eventInts(events))
	}); err != nil {
		return webhook.Hook{}, db.WrapError(err)
	}

	return d.Webhook(ctx, repo, id)
}

// Webhook returns a webhook for a repository.
func (d *Backend) Webhook(ctx context.Context, repo string, id int64) (webhook.Hook, error) {
	r, err := d.Repository(ctx, repo)
	if err != nil {
		return webhook.Hook{}, err
	}

	var wh webhook.Hook
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		h, err := d.store.GetWebhookByID(ctx, tx, r.ID, id)
		if err != nil {
			return err
		}
		events, err := d.store.GetWebhookEventsByWebhookID(ctx, tx, id)
		if err != nil {
			return err
		}

		wh = hookFromModel(h, events)
		return nil
	}); err != nil {
		return webhook.Hook{}, webhookError(err)
	}

	return wh, nil
}

func hookFromModel(h models.Webhook, events []models.WebhookEvent) webhook.Hook {
	wh := webhook.Hook{
		Webhook:     h,
		ContentType: webhook.ContentType(h.ContentType), //nolint:gosec
		Events:      make([]webhook.Event, len(events)),
	}
	for i, e := range events {
		wh.Events[i] = webhook.Event(e.Event)
	}
	return wh
}

// ListWebhooks lists webhooks for a repository.
func (d *Backend) ListWebhooks(ctx context.Context, repo string) ([]webhook.Hook, error) {
	r, err := d.Repository(ctx, repo)
	if err != nil {
		return nil, err
	}

	var hooks []webhook.Hook
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		webhooks, err := d.store.GetWebhooksByRepoID(ctx, tx, r.ID)
		if err != nil {
			return err
		}

		hooks = make([]webhook.Hook, len(webhooks))
		for i, h := range webhooks {
			events, err := d.store.GetWebhookEventsByWebhookID(ctx, tx, h.ID)
			if err != nil {
				return err
			}
			hooks[i] = hookFromModel(h, events)
		}

		return nil
	}); err != nil {
		return nil, db.WrapError(err)
	}

	return hooks, nil
}

// UpdateWebhook updates a webhook and replaces its events.
func (d *Backend) UpdateWebhook(ctx context.Context, repo string, id int64, url string, contentType webhook.ContentType, secret string, updatedEvents []webhook.Event, active bool) (webhook.Hook, error) {
	if err := webhook.ValidateWebhookURL(url); err != nil {
		return webhook.Hook{}, err
	}

	r, err := d.Repository(ctx, repo)
	if err != nil {
		return webhook.Hook{}, err
	}

	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		if err := d.store.UpdateWebhookByID(ctx, tx, r.ID, id, url, secret, int(contentType), active); err != nil {
			return err
		}

		currentEvents, err := d.store.GetWebhookEventsByWebhookID(ctx, tx, id)
		if err != nil {
			return err
		}

		// Delete events that are no longer in the list.
		toBeDeleted := make([]int64, 0)
		current := make([]webhook.Event, 0, len(currentEvents))
		for _, e := range currentEvents {
			ev := webhook.Event(e.Event)
			if !slices.Contains(updatedEvents, ev) {
				toBeDeleted = append(toBeDeleted, e.ID)
				continue
			}
			current = append(current, ev)
		}

		if err := d.store.DeleteWebhookEventsByID(ctx, tx, toBeDeleted); err != nil {
			return err
		}

		// Only add events that aren't there yet.
		newEvents := make([]webhook.Event, 0)
		for _, e := range updatedEvents {
			if !slices.Contains(current, e) && !slices.Contains(newEvents, e) {
				newEvents = append(newEvents, e)
			}
		}

		return d.store.CreateWebhookEvents(ctx, tx, id, eventInts(newEvents))
	}); err != nil {
		return webhook.Hook{}, webhookError(err)
	}

	return d.Webhook(ctx, repo, id)
}

// DeleteWebhook deletes a webhook for a repository.
func (d *Backend) DeleteWebhook(ctx context.Context, repo string, id int64) error {
	r, err := d.Repository(ctx, repo)
	if err != nil {
		return err
	}

	return webhookError(d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		if _, err := d.store.GetWebhookByID(ctx, tx, r.ID, id); err != nil {
			return err
		}

		return d.store.DeleteWebhookForRepoByID(ctx, tx, r.ID, id)
	}))
}

// ListWebhookDeliveries lists the deliveries of a repository webhook,
// newest first.
func (d *Backend) ListWebhookDeliveries(ctx context.Context, repo string, id int64) ([]webhook.Delivery, error) {
	if _, err := d.Webhook(ctx, repo, id); err != nil {
		return nil, err
	}

	var deliveries []models.WebhookDelivery
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		deliveries, err = d.store.ListWebhookDeliveriesByWebhookID(ctx, tx, id)
		return err
	}); err != nil {
		return nil, db.WrapError(err)
	}

	ds := make([]webhook.Delivery, len(deliveries))
	for i, d := range deliveries {
		ds[i] = webhook.Delivery{
			WebhookDelivery: d,
			Event:           webhook.Event(d.Event),
		}
	}

	return ds, nil
}

// WebhookDelivery returns a webhook delivery with its request and response.
func (d *Backend) WebhookDelivery(ctx context.Context, repo string, webhookID int64, id uuid.UUID) (webhook.Delivery, error) {
	if _, err := d.Webhook(ctx, repo, webhookID); err != nil {
		return webhook.Delivery{}, err
	}

	var delivery webhook.Delivery
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		m, err := d.store.GetWebhookDeliveryByID(ctx, tx, webhookID, id)
		if err != nil {
			return err
		}

		delivery = webhook.Delivery{
			WebhookDelivery: m,
			Event:           webhook.Event(m.Event),
		}
		return nil
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return webhook.Delivery{}, ErrDeliveryNotFound
		}
		return webhook.Delivery{}, err
	}

	return delivery, nil
}

// RedeliverWebhookDelivery sends the recorded body of a delivery again.
// The new attempt is recorded as a new delivery.
func (d *Backend) RedeliverWebhookDelivery(ctx context.Context, repo string, webhookID int64, id uuid.UUID) error {
	delivery, err := d.WebhookDelivery(ctx, repo, webhookID, id)
	if err != nil {
		return err
	}

	wh, err := d.Webhook(ctx, repo, webhookID)
	if err != nil {
		return err
	}

	d.logger.Info("redelivering webhook delivery", "webhook", webhookID, "delivery", id)

	ctx = db.WithContext(ctx, d.db)
	ctx = store.WithContext(ctx, d.store)
	return webhook.SendWebhook(ctx, wh.Webhook, delivery.Event, webhook.RawPayload(delivery.RequestBody))
}

// PruneWebhookDeliveries deletes the deliveries older than the retention
// period and returns how many were deleted.
func (d *Backend) PruneWebhookDeliveries(ctx context.Context, retention time.Duration) (int64, error) {
	var n int64
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		n, err = d.store.DeleteWebhookDeliveriesBefore(ctx, tx, time.Now().Add(-retention))
		return err
	}); err != nil {
		return 0, db.WrapError(err)
	}

	return n, nil
}
