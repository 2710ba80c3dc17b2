package notify

import "errors"

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrWebhookNotFound    = errors.New("webhook not found")
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrInvalidEvent       = errors.New("invalid event")
	ErrDeliveryFailed     = errors.New("delivery failed")
	ErrProviderPanicked   = errors.New("provider panicked")
	ErrInvalidWebhook     = errors.New("invalid webhook")
)
