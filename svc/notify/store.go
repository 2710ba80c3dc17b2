package notify

import (
	"context"
	"time"
)

// EventStore persists event dedup state. ClaimEvent must be atomic: of any
// number of concurrent claims for one nonce exactly one returns true.
type EventStore interface {
	// GetEvent returns ErrEventNotFound when no row exists for nonce.
	GetEvent(ctx context.Context, nonce int64) (StoredEvent, error)
	ClaimEvent(ctx context.Context, e Event, claimedAt time.Time) (bool, error)
	// ReleaseEvent removes an unprocessed claim so the nonce can be retried.
	ReleaseEvent(ctx context.Context, nonce int64) error
	MarkEventProcessed(ctx context.Context, nonce int64, processedAt time.Time) error
}

// SubscriberStore is read-only.
type SubscriberStore interface {
	FindSubscribersByEvent(ctx context.Context, eventType EventType) ([]Subscriber, error)
	FindSubscriptionsByName(ctx context.Context, name string) ([]Subscriber, error)
}

type WebhookStore interface {
	// FindWebhooks returns active webhooks owned by subscriberIDs that are
	// subscribed to eventType.
	FindWebhooks(ctx context.Context, eventType EventType, subscriberIDs []string) ([]Webhook, error)
	UpdateWebhookDeliveryState(ctx context.Context, webhookID string, state DeliveryState) error
}

type Store interface {
	EventStore
	SubscriberStore
	WebhookStore
}
