package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// EventType records the event type under the key "event_type".
func EventType[T ~string](eventType T) slog.Attr {
	return slog.String("event_type", string(eventType))
}

// Nonce records the upstream idempotency token of an event.
func Nonce(nonce int64) slog.Attr {
	return slog.Int64("nonce", nonce)
}

// Provider records the channel provider identity.
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}

// Name records an ArNS name.
func Name(name string) slog.Attr {
	return slog.String("name", name)
}

// WebhookID records a webhook row identifier.
func WebhookID(id string) slog.Attr {
	return slog.String("webhook_id", id)
}

// SubscriberID records a subscriber identifier.
func SubscriberID(id string) slog.Attr {
	return slog.String("subscriber_id", id)
}

// RequestID records the request identifier under the key "request_id".
// If id is nil, it returns an empty Attr.
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Duration records an elapsed time under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Count records a counter value under the given key.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}
