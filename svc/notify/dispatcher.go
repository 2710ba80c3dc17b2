package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/arnsnotify/pkg/logger"
)

// Handler accepts an envelope and settles every channel before returning.
type Handler interface {
	Handle(ctx context.Context, env Envelope) Report
}

// Dispatcher fans an envelope out to every enabled provider concurrently.
// A failing or panicking provider never stops its siblings and never turns
// into an error for the caller.
type Dispatcher struct {
	providers      []Provider
	maxConcurrency int
	timeout        time.Duration
	logger         *slog.Logger
	metrics        Metrics
}

type DispatcherOption func(*Dispatcher)

// WithMaxConcurrency bounds the number of providers running at once.
// Zero or less means one goroutine per provider.
func WithMaxConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) {
		d.maxConcurrency = n
	}
}

// WithTimeout bounds one Handle call. Providers still running at the
// deadline see a cancelled context and are recorded as failed.
func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func WithDispatcherMetrics(m Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

func NewDispatcher(providers []Provider, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		providers: providers,
		logger:    slog.Default(),
		metrics:   noopMetrics{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Providers returns the registered provider names in order.
func (d *Dispatcher) Providers() []string {
	names := make([]string, 0, len(d.providers))
	for _, p := range d.providers {
		names = append(names, p.Name())
	}
	return names
}

func (d *Dispatcher) Handle(ctx context.Context, env Envelope) Report {
	report := Report{
		EventType: env.Event.EventType,
		Outcomes:  make([]Outcome, len(d.providers)),
	}
	if len(d.providers) == 0 {
		return report
	}

	ctx, span := tracer.Start(ctx, "notify.Dispatcher.Handle", trace.WithAttributes(eventAttrs(env.Event)...))
	defer span.End()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	// No errgroup.WithContext: a failure must not cancel siblings.
	var g errgroup.Group
	if d.maxConcurrency > 0 {
		g.SetLimit(d.maxConcurrency)
	}

	for i, p := range d.providers {
		if !p.Enabled() {
			report.Outcomes[i] = Outcome{Provider: p.Name(), Status: OutcomeSkipped}
			continue
		}
		g.Go(func() error {
			report.Outcomes[i] = d.deliver(ctx, p, env)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range report.Outcomes {
		d.metrics.RecordDelivery(o.Provider, string(env.Event.EventType), string(o.Status), o.Duration)
	}

	span.SetAttributes(
		attribute.Int("notify.delivered", report.Delivered()),
		attribute.Int("notify.failed", report.Failed()),
	)
	if report.Failed() > 0 {
		span.SetStatus(codes.Error, "one or more providers failed")
	}

	return report
}

func (d *Dispatcher) deliver(ctx context.Context, p Provider, env Envelope) (out Outcome) {
	out = Outcome{Provider: p.Name()}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("%w: %v", ErrProviderPanicked, r)
		}
		out.Duration = time.Since(start)
		if out.Err != nil {
			out.Status = OutcomeFailed
			d.logger.ErrorContext(ctx, "notification delivery failed",
				logger.Provider(out.Provider),
				logger.EventType(env.Event.EventType),
				logger.Nonce(env.Event.Nonce),
				logger.Duration(out.Duration),
				logger.Error(out.Err),
			)
			return
		}
		out.Status = OutcomeDelivered
		d.logger.DebugContext(ctx, "notification delivered",
			logger.Provider(out.Provider),
			logger.EventType(env.Event.EventType),
			logger.Duration(out.Duration),
		)
	}()

	out.Err = p.Deliver(ctx, env)
	return out
}
