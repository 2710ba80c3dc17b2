package notify

import (
	"fmt"
	"time"
)

// EventType identifies an upstream occurrence. Subscribers opt into types.
type EventType string

const (
	EventBuyNameNotice      EventType = "buy-name-notice"
	EventGracePeriodStart   EventType = "arns-name-grace-period-start"
	EventGracePeriodEnding  EventType = "arns-name-grace-period-ending"
	EventExtendLeaseNotice  EventType = "extend-lease-notice"
	EventIncreaseUndernames EventType = "increase-undername-limit-notice"
)

// Event is one upstream occurrence. Nonce is the only identity used for
// deduplication; two events with the same nonce are the same occurrence.
type Event struct {
	EventType   EventType      `json:"eventType"`
	EventData   map[string]any `json:"eventData,omitempty"`
	Nonce       int64          `json:"nonce"`
	ProcessID   string         `json:"processId,omitempty"`
	BlockHeight *int64         `json:"blockHeight,omitempty"`
}

// Validate rejects events that cannot be deduplicated or matched. Callers
// decoding external input must also reject a missing nonce, which decodes
// to 0.
func (e Event) Validate() error {
	if e.EventType == "" {
		return fmt.Errorf("%w: event type is required", ErrInvalidEvent)
	}
	if e.Nonce < 0 {
		return fmt.Errorf("%w: nonce must not be negative", ErrInvalidEvent)
	}
	return nil
}

// StoredEvent is an event row. ProcessedAt is nil while fan-out is in flight.
type StoredEvent struct {
	Event
	ClaimedAt   time.Time
	ProcessedAt *time.Time
}

// Subscriber is read-only for this package.
type Subscriber struct {
	ID         string
	Email      string
	EventTypes []EventType
	Verified   bool
	Premium    bool
}

// Wants reports whether the subscriber opted into t.
func (s Subscriber) Wants(t EventType) bool {
	for _, et := range s.EventTypes {
		if et == t {
			return true
		}
	}
	return false
}

// Recipient is a subscriber-addressable target of an Envelope.
type Recipient struct {
	SubscriberID string
	Email        string
	Premium      bool
}

func RecipientFrom(s Subscriber) Recipient {
	return Recipient{SubscriberID: s.ID, Email: s.Email, Premium: s.Premium}
}

// Envelope is the unit handed to the Dispatcher. Subject, HTML and Text are
// optional; providers derive content from Event when they are empty.
type Envelope struct {
	Event      Event
	Recipients []Recipient
	Subject    string
	HTML       string
	Text       string
}

type WebhookType string

const (
	WebhookCustom  WebhookType = "custom"
	WebhookDiscord WebhookType = "discord"
	WebhookSlack   WebhookType = "slack"
)

func (t WebhookType) Valid() bool {
	switch t {
	case WebhookCustom, WebhookDiscord, WebhookSlack:
		return true
	}
	return false
}

type WebhookStatus string

const (
	WebhookStatusSuccess WebhookStatus = "success"
	WebhookStatusFailed  WebhookStatus = "failed"
)

// Webhook is a subscriber-owned endpoint subscribed to a set of event types.
type Webhook struct {
	ID              string
	SubscriberID    string
	URL             string
	Type            WebhookType
	Active          bool
	Authorization   string
	EventTypes      []EventType
	LastStatus      WebhookStatus
	LastError       string
	LastTriggeredAt *time.Time
}

// DeliveryState is written back to a Webhook after each delivery attempt.
type DeliveryState struct {
	Status      WebhookStatus
	Error       string
	TriggeredAt time.Time
}
