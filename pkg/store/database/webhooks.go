package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/models"
	"github.com/vcgate/vcgate/pkg/store"
)

type webhookStore struct{}

var _ store.WebhookStore = (*webhookStore)(nil)

// CreateWebhook implements store.WebhookStore.
func (*webhookStore) CreateWebhook(ctx context.Context, h db.Handler, repoID int64, url string, secret string, contentType int, active bool) (int64, error) {
	id, err := db.InsertID(ctx, h, `INSERT INTO webhooks (repo_id, url, secret, content_type, active, updated_at)
			VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`, repoID, url, secret, contentType, active)
	return id, db.WrapError(err)
}

// GetWebhookByID implements store.WebhookStore.
func (*webhookStore) GetWebhookByID(ctx context.Context, h db.Handler, repoID int64, id int64) (models.Webhook, error) {
	var m models.Webhook
	query := h.Rebind(`SELECT * FROM webhooks WHERE repo_id = ? AND id = ?;`)
	err := h.GetContext(ctx, &m, query, repoID, id)
	return m, db.WrapError(err)
}

// GetWebhooksByRepoID implements store.WebhookStore.
func (*webhookStore) GetWebhooksByRepoID(ctx context.Context, h db.Handler, repoID int64) ([]models.Webhook, error) {
	var ms []models.Webhook
	query := h.Rebind(`SELECT * FROM webhooks WHERE repo_id = ? ORDER BY id;`)
	err := h.SelectContext(ctx, &ms, query, repoID)
	return ms, db.WrapError(err)
}

// GetWebhooksByRepoIDWhereEvent implements store.WebhookStore.
func (*webhookStore) GetWebhooksByRepoIDWhereEvent(ctx context.Context, h db.Handler, repoID int64, events []int) ([]models.Webhook, error) {
	var ms []models.Webhook
	query, args, err := sqlx.In(`SELECT DISTINCT webhooks.* FROM webhooks
			INNER JOIN webhook_events ON webhooks.id = webhook_events.webhook_id
			WHERE webhooks.repo_id = ? AND webhooks.active = ? AND webhook_events.event IN (?)
			ORDER BY webhooks.id;`, repoID, true, events)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	err = h.SelectContext(ctx, &ms, h.Rebind(query), args...)
	return ms, db.WrapError(err)
}

// UpdateWebhookByID implements store.WebhookStore.
func (*webhookStore) UpdateWebhookByID(ctx context.Context, h db.Handler, repoID int64, id int64, url string, secret string, contentType int, active bool) error {
	query := h.Rebind(`UPDATE webhooks SET url = ?, secret = ?, content_type = ?, active = ?, updated_at = CURRENT_TIMESTAMP
			WHERE repo_id = ? AND id = ?;`)
	res, err := h.ExecContext(ctx, query, url, secret, contentType, active, repoID, id)
	if err != nil {
		return db.WrapError(err)
	}
	return affected(res)
}

// DeleteWebhookForRepoByID implements store.WebhookStore.
func (*webhookStore) DeleteWebhookForRepoByID(ctx context.Context, h db.Handler, repoID int64, id int64) error {
	query := h.Rebind(`DELETE FROM webhooks WHERE repo_id = ? AND id = ?;`)
	res, err := h.ExecContext(ctx, query, repoID, id)
	if err != nil {
		return db.WrapError(err)
	}
	return affected(res)
}

// CreateWebhookEvents implements store.WebhookStore.
func (*webhookStore) CreateWebhookEvents(ctx context.Context, h db.Handler, webhookID int64, events []int) error {
	query := h.Rebind(`INSERT INTO webhook_events (webhook_id, event) VALUES (?, ?);`)
	for _, e := range events {
		if _, err := h.ExecContext(ctx, query, webhookID, e); err != nil {
			return db.WrapError(err)
		}
	}
	return nil
}

// GetWebhookEventsByWebhookID implements store.WebhookStore.
func (*webhookStore) GetWebhookEventsByWebhookID(ctx context.Context, h db.Handler, webhookID int64) ([]models.WebhookEvent, error) {
	var ms []models.WebhookEvent
	query := h.Rebind(`SELECT * FROM webhook_events WHERE webhook_id = ? ORDER BY event;`)
	err := h.SelectContext(ctx, &ms, query, webhookID)
	return ms, db.WrapError(err)
}

// DeleteWebhookEventsByID implements store.WebhookStore.
func (*webhookStore) DeleteWebhookEventsByID(ctx context.Context, h db.Handler, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM webhook_events WHERE id IN (?);`, ids)
	if err != nil {
		return err //nolint:wrapcheck
	}
	_, err = h.ExecContext(ctx, h.Rebind(query), args...)
	return db.WrapError(err)
}

// CreateWebhookDelivery implements store.WebhookStore.
func (*webhookStore) CreateWebhookDelivery(ctx context.Context, h db.Handler, id uuid.UUID, webhookID int64, event int, url string, method string, requestError error, requestHeaders string, requestBody string, responseStatus int, responseHeaders string, responseBody string) error {
	var reqErr interface{}
	if requestError != nil {
		reqErr = requestError.Error()
	}
	query := h.Rebind(`INSERT INTO webhook_deliveries (id, webhook_id, event, request_url, request_method, request_error, request_headers, request_body, response_status, response_headers, response_body)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	_, err := h.ExecContext(ctx, query, id.String(), webhookID, event, url, method, reqErr, requestHeaders, requestBody, responseStatus, responseHeaders, responseBody)
	return db.WrapError(err)
}

// GetWebhookDeliveryByID implements store.WebhookStore.
func (*webhookStore) GetWebhookDeliveryByID(ctx context.Context, h db.Handler, webhookID int64, id uuid.UUID) (models.WebhookDelivery, error) {
	var m models.WebhookDelivery
	query := h.Rebind(`SELECT * FROM webhook_deliveries WHERE webhook_id = ? AND id = ?;`)
	err := h.GetContext(ctx, &m, query, webhookID, id.String())
	return m, db.WrapError(err)
}

// ListWebhookDeliveriesByWebhookID implements store.WebhookStore.
func (*webhookStore) ListWebhookDeliveriesByWebhookID(ctx context.Context, h db.Handler, webhookID int64) ([]models.WebhookDelivery, error) {
	var ms []models.WebhookDelivery
	query := h.Rebind(`SELECT id, webhook_id, event, request_url, request_method, request_error, response_status, created_at
			FROM webhook_deliveries WHERE webhook_id = ? ORDER BY created_at DESC;`)
	err := h.SelectContext(ctx, &ms, query, webhookID)
	return ms, db.WrapError(err)
}

// DeleteWebhookDeliveriesBefore implements store.WebhookStore.
func (*webhookStore) DeleteWebhookDeliveriesBefore(ctx context.Context, h db.Handler, t time.Time) (int64, error) {
	query := h.Rebind(`DELETE FROM webhook_deliveries WHERE created_at < ?;`)
	res, err := h.ExecContext(ctx, query, t.UTC())
	if err != nil {
		return 0, db.WrapError(err)
	}
	n, err := res.RowsAffected()
	return n, db.WrapError(err)
}
