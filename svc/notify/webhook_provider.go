package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/arnsnotify/pkg/logger"
	"github.com/dmitrymomot/arnsnotify/pkg/webhook"
)

const maxStoredErrorLen = 1000

// WebhookPayload is the body posted to custom webhooks.
type WebhookPayload struct {
	EventType   EventType      `json:"eventType"`
	Nonce       int64          `json:"nonce,omitempty"`
	ProcessID   string         `json:"processId,omitempty"`
	BlockHeight *int64         `json:"blockHeight,omitempty"`
	EventData   map[string]any `json:"eventData,omitempty"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Timestamp   time.Time      `json:"timestamp"`
}

// WebhookProvider calls the subscriber-owned webhooks of premium recipients
// and records the outcome on each webhook row. One webhook failing does not
// stop the others.
type WebhookProvider struct {
	store       WebhookStore
	poster      JSONPoster
	breakers    *webhook.BreakerSet
	opts        []webhook.SendOption
	concurrency int
	logger      *slog.Logger
	metrics     Metrics
	now         func() time.Time
}

type WebhookOption func(*WebhookProvider)

// WithBreakers guards each webhook URL with its own circuit breaker.
func WithBreakers(set *webhook.BreakerSet) WebhookOption {
	return func(p *WebhookProvider) {
		p.breakers = set
	}
}

// WithSendOptions applies opts to every webhook call.
func WithSendOptions(opts ...webhook.SendOption) WebhookOption {
	return func(p *WebhookProvider) {
		p.opts = append(p.opts, opts...)
	}
}

func WithWebhookConcurrency(n int) WebhookOption {
	return func(p *WebhookProvider) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func WithWebhookLogger(l *slog.Logger) WebhookOption {
	return func(p *WebhookProvider) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithWebhookMetrics(m Metrics) WebhookOption {
	return func(p *WebhookProvider) {
		if m != nil {
			p.metrics = m
		}
	}
}

func WithWebhookClock(now func() time.Time) WebhookOption {
	return func(p *WebhookProvider) {
		if now != nil {
			p.now = now
		}
	}
}

func NewWebhookProvider(store WebhookStore, poster JSONPoster, opts ...WebhookOption) *WebhookProvider {
	p := &WebhookProvider{
		store:       store,
		poster:      poster,
		concurrency: 8,
		logger:      slog.Default(),
		metrics:     noopMetrics{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *WebhookProvider) Name() string  { return "webhook" }
func (p *WebhookProvider) Enabled() bool { return p.store != nil && p.poster != nil }

func (p *WebhookProvider) Deliver(ctx context.Context, env Envelope) error {
	ids := make([]string, 0, len(env.Recipients))
	for _, r := range env.Recipients {
		if r.Premium && r.SubscriberID != "" {
			ids = append(ids, r.SubscriberID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	hooks, err := p.store.FindWebhooks(ctx, env.Event.EventType, ids)
	if err != nil {
		return fmt.Errorf("find webhooks: %w", err)
	}
	if len(hooks) == 0 {
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, h := range hooks {
		g.Go(func() error {
			if err := p.deliverOne(ctx, h, env); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("webhook %s: %w", h.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("%w: %d of %d webhooks: %w", ErrDeliveryFailed, len(errs), len(hooks), errors.Join(errs...))
	}
	return nil
}

func (p *WebhookProvider) deliverOne(ctx context.Context, h Webhook, env Envelope) error {
	triggeredAt := p.now()
	sendErr := p.send(ctx, h, env, triggeredAt)

	state := DeliveryState{Status: WebhookStatusSuccess, TriggeredAt: triggeredAt}
	if sendErr != nil {
		state.Status = WebhookStatusFailed
		state.Error = truncateRunes(strings.ToValidUTF8(sendErr.Error(), "\uFFFD"), maxStoredErrorLen)
	}
	p.metrics.RecordWebhookDelivery(string(h.Type), sendErr == nil)

	// Record state even when the caller's context is gone.
	if err := p.store.UpdateWebhookDeliveryState(context.WithoutCancel(ctx), h.ID, state); err != nil {
		p.logger.ErrorContext(ctx, "failed to record webhook delivery state",
			logger.WebhookID(h.ID),
			logger.Error(err),
		)
		return errors.Join(sendErr, err)
	}
	return sendErr
}

func (p *WebhookProvider) send(ctx context.Context, h Webhook, env Envelope, at time.Time) error {
	opts := append([]webhook.SendOption{}, p.opts...)
	if h.Authorization != "" {
		opts = append(opts, webhook.WithAuthorization(h.Authorization))
	}
	if cb := p.breakers.For(h.URL); cb != nil {
		opts = append(opts, webhook.WithCircuitBreaker(cb))
	}

	c := envelopeContent(env)
	switch h.Type {
	case WebhookSlack:
		for _, msg := range SlackMessages(c) {
			if err := p.poster.Send(ctx, h.URL, msg, opts...); err != nil {
				return err
			}
		}
		return nil
	case WebhookDiscord:
		for _, msg := range DiscordMessages(c, env.Event.EventType, at) {
			if err := p.poster.Send(ctx, h.URL, msg, opts...); err != nil {
				return err
			}
		}
		return nil
	case WebhookCustom:
		return p.poster.Send(ctx, h.URL, WebhookPayload{
			EventType:   env.Event.EventType,
			Nonce:       env.Event.Nonce,
			ProcessID:   env.Event.ProcessID,
			BlockHeight: env.Event.BlockHeight,
			EventData:   env.Event.EventData,
			Title:       c.Title,
			Message:     c.Text(),
			Timestamp:   at.UTC(),
		}, opts...)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidWebhook, h.Type)
	}
}
