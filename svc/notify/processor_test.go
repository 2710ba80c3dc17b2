package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/arnsnotify/pkg/logger"
	"github.com/dmitrymomot/arnsnotify/svc/notify"
)

func newProcessorFixture(t *testing.T) (*notify.MemoryStore, *recordingMailer, *notify.Processor) {
	t.Helper()

	store := notify.NewMemoryStore()
	store.AddSubscriber(notify.Subscriber{
		ID:         "sub-1",
		Email:      "alice@example.com",
		EventTypes: []notify.EventType{notify.EventBuyNameNotice},
		Verified:   true,
	})
	store.AddSubscriber(notify.Subscriber{
		ID:         "sub-2",
		Email:      "bob@example.com",
		EventTypes: []notify.EventType{notify.EventBuyNameNotice},
		Verified:   false,
	})

	mailer := &recordingMailer{}
	dispatcher := notify.NewDispatcher(
		[]notify.Provider{notify.NewEmailProvider(mailer)},
		notify.WithDispatcherLogger(logger.Discard()),
	)
	processor := notify.NewProcessor(store, notify.NewMatcher(store), dispatcher,
		notify.WithProcessorLogger(logger.Discard()),
	)
	return store, mailer, processor
}

func TestProcessor_BuyNameNoticeProcessedOnce(t *testing.T) {
	t.Parallel()

	store, mailer, processor := newProcessorFixture(t)
	ctx := context.Background()
	event := notify.Event{
		EventType: notify.EventBuyNameNotice,
		EventData: map[string]any{"name": "example"},
		Nonce:     42,
	}

	first := processor.ProcessEvent(ctx, event)
	require.NoError(t, first.Err)
	assert.Equal(t, notify.ResultProcessed, first.Status)
	assert.Equal(t, 1, first.Recipients)

	second := processor.ProcessEvent(ctx, event)
	assert.Equal(t, notify.ResultDuplicate, second.Status)
	assert.NoError(t, second.Err)

	assert.Equal(t, 1, store.EventCount())
	stored, err := store.GetEvent(ctx, 42)
	require.NoError(t, err)
	assert.NotNil(t, stored.ProcessedAt)

	assert.Equal(t, []string{"alice@example.com"}, mailer.SentTo())
}

func TestProcessor_SameNonceWithDifferentPayloadIsDuplicate(t *testing.T) {
	t.Parallel()

	_, mailer, processor := newProcessorFixture(t)
	ctx := context.Background()

	processor.ProcessEvent(ctx, notify.Event{EventType: notify.EventBuyNameNotice, Nonce: 7, EventData: map[string]any{"name": "a"}})
	res := processor.ProcessEvent(ctx, notify.Event{EventType: notify.EventBuyNameNotice, Nonce: 7, EventData: map[string]any{"name": "b"}})

	assert.Equal(t, notify.ResultDuplicate, res.Status)
	assert.Len(t, mailer.Sent(), 1)
}

func TestProcessor_ConcurrentSameNonce(t *testing.T) {
	t.Parallel()

	store, mailer, processor := newProcessorFixture(t)
	ctx := context.Background()
	event := notify.Event{EventType: notify.EventBuyNameNotice, Nonce: 99}

	const n = 32
	results := make([]notify.Result, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = processor.ProcessEvent(ctx, event)
		}()
	}
	wg.Wait()

	processed := 0
	for _, r := range results {
		if r.Status == notify.ResultProcessed {
			processed++
		} else {
			assert.Equal(t, notify.ResultDuplicate, r.Status)
		}
	}
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, store.EventCount())
	assert.Len(t, mailer.Sent(), 1)
}

func TestProcessor_MarkedProcessedEvenWhenDeliveryFails(t *testing.T) {
	t.Parallel()

	store := notify.NewMemoryStore()
	store.AddSubscriber(notify.Subscriber{ID: "s", Email: "s@example.com", EventTypes: []notify.EventType{"x"}, Verified: true})

	failing := newFuncProvider("broken", func(context.Context, notify.Envelope) error { return errors.New("down") })
	processor := notify.NewProcessor(store, notify.NewMatcher(store),
		notify.NewDispatcher([]notify.Provider{failing}, notify.WithDispatcherLogger(logger.Discard())),
		notify.WithProcessorLogger(logger.Discard()),
	)

	res := processor.ProcessEvent(context.Background(), notify.Event{EventType: "x", Nonce: 1})
	assert.Equal(t, notify.ResultProcessed, res.Status)
	assert.Equal(t, 1, res.Report.Failed())

	stored, err := store.GetEvent(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, stored.ProcessedAt)
}

func TestProcessor_InvalidEvent(t *testing.T) {
	t.Parallel()

	store, _, processor := newProcessorFixture(t)
	res := processor.ProcessEvent(context.Background(), notify.Event{Nonce: 5})

	assert.Equal(t, notify.ResultInvalid, res.Status)
	assert.ErrorIs(t, res.Err, notify.ErrInvalidEvent)
	assert.Equal(t, 0, store.EventCount())
}

func TestProcessor_NegativeNonceRejected(t *testing.T) {
	t.Parallel()

	store, mailer, processor := newProcessorFixture(t)
	res := processor.ProcessEvent(context.Background(), notify.Event{EventType: notify.EventBuyNameNotice, Nonce: -1})

	assert.Equal(t, notify.ResultInvalid, res.Status)
	assert.ErrorIs(t, res.Err, notify.ErrInvalidEvent)
	assert.Equal(t, 0, store.EventCount())
	assert.Empty(t, mailer.Sent())
}

func TestEvent_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, notify.Event{EventType: notify.EventBuyNameNotice}.Validate())
	assert.NoError(t, notify.Event{EventType: notify.EventBuyNameNotice, Nonce: 7}.Validate())
	assert.ErrorIs(t, notify.Event{Nonce: 7}.Validate(), notify.ErrInvalidEvent)
	assert.ErrorIs(t, notify.Event{EventType: notify.EventBuyNameNotice, Nonce: -3}.Validate(), notify.ErrInvalidEvent)
}

type failingSubscribers struct {
	*notify.MemoryStore
}

func (failingSubscribers) FindSubscribersByEvent(context.Context, notify.EventType) ([]notify.Subscriber, error) {
	return nil, errors.New("db gone")
}

func TestProcessor_MatchFailureReleasesClaim(t *testing.T) {
	t.Parallel()

	store := notify.NewMemoryStore()
	provider := newFuncProvider("p", nil)
	processor := notify.NewProcessor(store, notify.NewMatcher(failingSubscribers{store}),
		notify.NewDispatcher([]notify.Provider{provider}),
		notify.WithProcessorLogger(logger.Discard()),
	)

	res := processor.ProcessEvent(context.Background(), notify.Event{EventType: "x", Nonce: 3})
	assert.Equal(t, notify.ResultFailed, res.Status)
	assert.Error(t, res.Err)
	assert.Empty(t, provider.Calls())

	_, err := store.GetEvent(context.Background(), 3)
	assert.ErrorIs(t, err, notify.ErrEventNotFound)
}

func TestProcessor_ProcessEvents(t *testing.T) {
	t.Parallel()

	_, mailer, processor := newProcessorFixture(t)
	results := processor.ProcessEvents(context.Background(), []notify.Event{
		{EventType: notify.EventBuyNameNotice, Nonce: 1},
		{Nonce: 2},
		{EventType: notify.EventBuyNameNotice, Nonce: 1},
		{EventType: notify.EventBuyNameNotice, Nonce: 3},
	})

	require.Len(t, results, 4)
	assert.Equal(t, notify.ResultProcessed, results[0].Status)
	assert.Equal(t, notify.ResultInvalid, results[1].Status)
	assert.Equal(t, notify.ResultDuplicate, results[2].Status)
	assert.Equal(t, notify.ResultProcessed, results[3].Status)
	assert.Len(t, mailer.Sent(), 2)
}
