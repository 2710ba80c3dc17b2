package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/arnsnotify/pkg/pg"
	"github.com/dmitrymomot/arnsnotify/svc/notify"
)

var _ notify.Store = (*Storage)(nil)

const getEventQuery = `
SELECT nonce, event_type, event_data, COALESCE(process_id, ''), block_height, claimed_at, processed_at
FROM events
WHERE nonce = $1`

func (s *Storage) GetEvent(ctx context.Context, nonce int64) (notify.StoredEvent, error) {
	var (
		ev        notify.StoredEvent
		eventType string
		data      []byte
	)
	err := s.db.QueryRow(ctx, getEventQuery, nonce).Scan(
		&ev.Nonce, &eventType, &data, &ev.ProcessID, &ev.BlockHeight, &ev.ClaimedAt, &ev.ProcessedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return notify.StoredEvent{}, notify.ErrEventNotFound
		}
		return notify.StoredEvent{}, fmt.Errorf("get event %d: %w", nonce, err)
	}
	ev.EventType = notify.EventType(eventType)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &ev.EventData); err != nil {
			return notify.StoredEvent{}, fmt.Errorf("decode event %d data: %w", nonce, err)
		}
	}
	return ev, nil
}

const claimEventQuery = `
INSERT INTO events (nonce, event_type, event_data, process_id, block_height, claimed_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
ON CONFLICT (nonce) DO NOTHING`

// ClaimEvent relies on the primary key: of concurrent inserts for one nonce
// only one affects a row.
func (s *Storage) ClaimEvent(ctx context.Context, e notify.Event, claimedAt time.Time) (bool, error) {
	data, err := json.Marshal(eventData(e.EventData))
	if err != nil {
		return false, fmt.Errorf("encode event %d data: %w", e.Nonce, err)
	}

	tag, err := s.db.Exec(ctx, claimEventQuery,
		e.Nonce, string(e.EventType), data, e.ProcessID, e.BlockHeight, claimedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("claim event %d: %w", e.Nonce, err)
	}
	return tag.RowsAffected() == 1, nil
}

func eventData(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func (s *Storage) ReleaseEvent(ctx context.Context, nonce int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM events WHERE nonce = $1 AND processed_at IS NULL`, nonce)
	if err != nil {
		return fmt.Errorf("release event %d: %w", nonce, err)
	}
	return nil
}

func (s *Storage) MarkEventProcessed(ctx context.Context, nonce int64, processedAt time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE events SET processed_at = $2 WHERE nonce = $1`, nonce, processedAt)
	if err != nil {
		return fmt.Errorf("mark event %d processed: %w", nonce, err)
	}
	if tag.RowsAffected() == 0 {
		return notify.ErrEventNotFound
	}
	return nil
}

const subscriberColumns = `
SELECT s.id::text, s.email, s.verified, s.premium,
       COALESCE(array_agg(et.event_type ORDER BY et.event_type) FILTER (WHERE et.event_type IS NOT NULL), '{}')
FROM subscribers s
LEFT JOIN subscriber_event_types et ON et.subscriber_id = s.id`

const findSubscribersByEventQuery = subscriberColumns + `
WHERE EXISTS (
    SELECT 1 FROM subscriber_event_types f
    WHERE f.subscriber_id = s.id AND f.event_type = $1
)
GROUP BY s.id
ORDER BY s.created_at, s.id`

func (s *Storage) FindSubscribersByEvent(ctx context.Context, eventType notify.EventType) ([]notify.Subscriber, error) {
	rows, err := s.db.Query(ctx, findSubscribersByEventQuery, string(eventType))
	if err != nil {
		return nil, fmt.Errorf("find subscribers for %s: %w", eventType, err)
	}
	return collectSubscribers(rows)
}

const findSubscriptionsByNameQuery = subscriberColumns + `
JOIN name_subscriptions ns ON ns.subscriber_id = s.id AND ns.name = $1
GROUP BY s.id, ns.created_at
ORDER BY ns.created_at, s.id`

func (s *Storage) FindSubscriptionsByName(ctx context.Context, name string) ([]notify.Subscriber, error) {
	rows, err := s.db.Query(ctx, findSubscriptionsByNameQuery, name)
	if err != nil {
		return nil, fmt.Errorf("find subscriptions for %s: %w", name, err)
	}
	return collectSubscribers(rows)
}

func collectSubscribers(rows pgx.Rows) ([]notify.Subscriber, error) {
	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (notify.Subscriber, error) {
		var (
			sub   notify.Subscriber
			types []string
		)
		if err := row.Scan(&sub.ID, &sub.Email, &sub.Verified, &sub.Premium, &types); err != nil {
			return notify.Subscriber{}, err
		}
		sub.EventTypes = toEventTypes(types)
		return sub, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan subscribers: %w", err)
	}
	return subs, nil
}

const findWebhooksQuery = `
SELECT w.id::text, w.subscriber_id::text, w.url, w.type, w.active, COALESCE(w.auth_header, ''),
       array_agg(et.event_type ORDER BY et.event_type),
       COALESCE(w.last_status, ''), COALESCE(w.last_error, ''), w.last_triggered_at
FROM webhooks w
JOIN webhook_event_types et ON et.webhook_id = w.id
WHERE w.active
  AND w.subscriber_id = ANY($2::text[]::uuid[])
  AND EXISTS (
      SELECT 1 FROM webhook_event_types f
      WHERE f.webhook_id = w.id AND f.event_type = $1
  )
GROUP BY w.id
ORDER BY w.created_at, w.id`

func (s *Storage) FindWebhooks(ctx context.Context, eventType notify.EventType, subscriberIDs []string) ([]notify.Webhook, error) {
	if len(subscriberIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, findWebhooksQuery, string(eventType), subscriberIDs)
	if err != nil {
		return nil, fmt.Errorf("find webhooks for %s: %w", eventType, err)
	}
	hooks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (notify.Webhook, error) {
		var (
			w           notify.Webhook
			typ, status string
			types       []string
		)
		err := row.Scan(&w.ID, &w.SubscriberID, &w.URL, &typ, &w.Active, &w.Authorization,
			&types, &status, &w.LastError, &w.LastTriggeredAt)
		if err != nil {
			return notify.Webhook{}, err
		}
		w.Type = notify.WebhookType(typ)
		w.LastStatus = notify.WebhookStatus(status)
		w.EventTypes = toEventTypes(types)
		return w, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan webhooks: %w", err)
	}
	return hooks, nil
}

const updateWebhookStateQuery = `
UPDATE webhooks
SET last_status = $2, last_error = NULLIF($3, ''), last_triggered_at = $4, updated_at = now()
WHERE id = $1::uuid`

func (s *Storage) UpdateWebhookDeliveryState(ctx context.Context, webhookID string, state notify.DeliveryState) error {
	tag, err := s.db.Exec(ctx, updateWebhookStateQuery,
		webhookID, string(state.Status), state.Error, state.TriggeredAt)
	if err != nil {
		return fmt.Errorf("update webhook %s state: %w", webhookID, err)
	}
	if tag.RowsAffected() == 0 {
		return notify.ErrWebhookNotFound
	}
	return nil
}

func toEventTypes(in []string) []notify.EventType {
	out := make([]notify.EventType, len(in))
	for i, t := range in {
		out[i] = notify.EventType(t)
	}
	return out
}
