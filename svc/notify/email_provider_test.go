package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/arnsnotify/pkg/email"
	"github.com/dmitrymomot/arnsnotify/svc/notify"
)

func TestEmailProvider_PerRecipientFailures(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{err: map[string]error{
		"rejected@example.com": errors.New("inactive recipient"),
	}}
	p := notify.NewEmailProvider(mailer)

	env := notify.Envelope{
		Event: notify.Event{
			EventType: notify.EventGracePeriodStart,
			EventData: map[string]any{"name": "example", "endTimestamp": int64(1735689600000)},
		},
		Recipients: []notify.Recipient{
			{SubscriberID: "a", Email: "alice@example.com"},
			{SubscriberID: "b", Email: "not-an-address"},
			{SubscriberID: "c", Email: "rejected@example.com"},
			{SubscriberID: "d", Email: "dave@example.com"},
		},
	}

	err := p.Deliver(context.Background(), env)
	require.Error(t, err)
	assert.ErrorIs(t, err, notify.ErrDeliveryFailed)
	assert.ErrorIs(t, err, email.ErrInvalidParams)
	assert.Contains(t, err.Error(), "2 of 4 emails")

	sent := mailer.Sent()
	assert.ElementsMatch(t, []string{"alice@example.com", "dave@example.com"}, mailer.SentTo())
	require.NotEmpty(t, sent)
	assert.Equal(t, "ArNS name expired: example", sent[0].Subject)
	assert.Equal(t, string(notify.EventGracePeriodStart), sent[0].Tag)
	assert.Contains(t, sent[0].BodyHTML, "<h2")
	assert.Contains(t, sent[0].BodyHTML, "2025-01-01T00:00:00Z")
	assert.Contains(t, sent[0].BodyText, "Expires: 2025-01-01T00:00:00Z")
}

func TestEmailProvider_EnvelopeContentWins(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{}
	p := notify.NewEmailProvider(mailer)

	err := p.Deliver(context.Background(), notify.Envelope{
		Event:      notify.Event{EventType: notify.EventBuyNameNotice},
		Recipients: []notify.Recipient{{SubscriberID: "a", Email: "alice@example.com"}},
		Subject:    "Custom subject",
		HTML:       "<p>custom</p>",
		Text:       "custom",
	})
	require.NoError(t, err)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Custom subject", sent[0].Subject)
	assert.Equal(t, "<p>custom</p>", sent[0].BodyHTML)
	assert.Equal(t, "custom", sent[0].BodyText)
}

func TestEmailProvider_NoRecipientsOrSender(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{}
	assert.NoError(t, notify.NewEmailProvider(mailer).Deliver(context.Background(), notify.Envelope{}))
	assert.Empty(t, mailer.Sent())
	assert.False(t, notify.NewEmailProvider(nil).Enabled())
}
