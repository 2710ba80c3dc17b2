package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/arnsnotify/svc/notify"
)

func subscriberIDs(subs []notify.Subscriber) []string {
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestMatcher(t *testing.T) {
	t.Parallel()

	store := notify.NewMemoryStore()
	store.AddSubscriber(notify.Subscriber{ID: "global", Email: "g@example.com", Verified: true,
		EventTypes: []notify.EventType{notify.EventGracePeriodStart}})
	store.AddSubscriber(notify.Subscriber{ID: "both", Email: "b@example.com", Verified: true,
		EventTypes: []notify.EventType{notify.EventGracePeriodStart}})
	store.AddSubscriber(notify.Subscriber{ID: "owner", Email: "o@example.com", Verified: true})
	store.AddSubscriber(notify.Subscriber{ID: "unverified", Email: "u@example.com",
		EventTypes: []notify.EventType{notify.EventGracePeriodStart}})
	store.AddSubscriber(notify.Subscriber{ID: "other", Email: "x@example.com", Verified: true,
		EventTypes: []notify.EventType{notify.EventBuyNameNotice}})

	require.NoError(t, store.SubscribeToName("both", "example"))
	require.NoError(t, store.SubscribeToName("owner", "example"))
	require.NoError(t, store.SubscribeToName("unverified", "example"))
	assert.ErrorIs(t, store.SubscribeToName("missing", "example"), notify.ErrSubscriberNotFound)

	m := notify.NewMatcher(store)
	ctx := context.Background()

	byEvent, err := m.FindSubscribersByEvent(ctx, notify.EventGracePeriodStart)
	require.NoError(t, err)
	assert.Equal(t, []string{"global", "both"}, subscriberIDs(byEvent))

	byName, err := m.FindSubscriptionsByName(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, []string{"both", "owner"}, subscriberIDs(byName))

	merged, err := m.FindForExpiration(ctx, notify.EventGracePeriodStart, "example")
	require.NoError(t, err)
	assert.Equal(t, []string{"global", "both", "owner"}, subscriberIDs(merged))

	none, err := m.FindSubscriptionsByName(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}
