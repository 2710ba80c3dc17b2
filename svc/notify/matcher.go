package notify

import (
	"context"
	"fmt"
)

// Matcher resolves the verified subscribers interested in an occurrence.
// It never writes.
type Matcher struct {
	store SubscriberStore
}

func NewMatcher(store SubscriberStore) *Matcher {
	return &Matcher{store: store}
}

func (m *Matcher) FindSubscribersByEvent(ctx context.Context, eventType EventType) ([]Subscriber, error) {
	subs, err := m.store.FindSubscribersByEvent(ctx, eventType)
	if err != nil {
		return nil, fmt.Errorf("find subscribers for %s: %w", eventType, err)
	}
	return filterNotifiable(subs, func(s Subscriber) bool { return s.Wants(eventType) }), nil
}

func (m *Matcher) FindSubscriptionsByName(ctx context.Context, name string) ([]Subscriber, error) {
	subs, err := m.store.FindSubscriptionsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find subscriptions for %s: %w", name, err)
	}
	return filterNotifiable(subs, nil), nil
}

// FindForExpiration merges event-type subscribers with the name's own subscribers,
// keeping the first occurrence of each subscriber ID.
func (m *Matcher) FindForExpiration(ctx context.Context, eventType EventType, name string) ([]Subscriber, error) {
	byEvent, err := m.FindSubscribersByEvent(ctx, eventType)
	if err != nil {
		return nil, err
	}
	byName, err := m.FindSubscriptionsByName(ctx, name)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(byEvent)+len(byName))
	out := make([]Subscriber, 0, len(byEvent)+len(byName))
	for _, s := range append(byEvent, byName...) {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

func filterNotifiable(subs []Subscriber, keep func(Subscriber) bool) []Subscriber {
	out := subs[:0:0]
	for _, s := range subs {
		if !s.Verified {
			continue
		}
		if keep != nil && !keep(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Recipients converts subscribers into envelope recipients in order.
func Recipients(subs []Subscriber) []Recipient {
	out := make([]Recipient, 0, len(subs))
	for _, s := range subs {
		out = append(out, RecipientFrom(s))
	}
	return out
}
