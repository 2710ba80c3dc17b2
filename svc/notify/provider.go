package notify

import (
	"context"
	"time"
)

// Provider delivers an Envelope over one channel. Implementations are
// EmailProvider, SlackProvider, DiscordProvider and WebhookProvider.
type Provider interface {
	Name() string
	// Enabled reports whether the provider is configured. Disabled providers
	// are skipped without error.
	Enabled() bool
	Deliver(ctx context.Context, env Envelope) error
}

type OutcomeStatus string

const (
	OutcomeDelivered OutcomeStatus = "delivered"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeSkipped   OutcomeStatus = "skipped"
)

// Outcome is the settled result of one provider for one envelope.
type Outcome struct {
	Provider string
	Status   OutcomeStatus
	Err      error
	Duration time.Duration
}

// Report aggregates outcomes in provider registration order.
type Report struct {
	EventType EventType
	Outcomes  []Outcome
}

func (r Report) count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

func (r Report) Delivered() int { return r.count(OutcomeDelivered) }
func (r Report) Failed() int    { return r.count(OutcomeFailed) }
func (r Report) Skipped() int   { return r.count(OutcomeSkipped) }

// Outcome returns the outcome recorded for provider name.
func (r Report) Outcome(name string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Provider == name {
			return o, true
		}
	}
	return Outcome{}, false
}
