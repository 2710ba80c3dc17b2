package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/arnsnotify/pkg/logger"
)

type ResultStatus string

const (
	ResultProcessed ResultStatus = "processed"
	ResultDuplicate ResultStatus = "duplicate"
	ResultInvalid   ResultStatus = "invalid"
	ResultFailed    ResultStatus = "failed"
)

// Result describes what ProcessEvent did with one event.
type Result struct {
	Nonce      int64
	Status     ResultStatus
	Recipients int
	Report     Report
	Err        error
}

// Processor is the idempotent intake boundary. Each nonce is fanned out at
// most once, however many times and however concurrently it is submitted.
type Processor struct {
	store   EventStore
	matcher *Matcher
	handler Handler
	logger  *slog.Logger
	metrics Metrics
	now     func() time.Time
}

type ProcessorOption func(*Processor)

func WithProcessorLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithProcessorMetrics(m Metrics) ProcessorOption {
	return func(p *Processor) {
		if m != nil {
			p.metrics = m
		}
	}
}

func WithProcessorClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

func NewProcessor(store EventStore, matcher *Matcher, handler Handler, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:   store,
		matcher: matcher,
		handler: handler,
		logger:  slog.Default(),
		metrics: noopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessEvent claims the nonce, matches subscribers, fans out one envelope
// and marks the event processed. It never returns an error; failures are
// logged and reported in Result.
//
// The event is marked processed after fan-out even when deliveries failed.
func (p *Processor) ProcessEvent(ctx context.Context, e Event) Result {
	ctx, span := tracer.Start(ctx, "notify.Processor.ProcessEvent", trace.WithAttributes(eventAttrs(e)...))
	defer span.End()

	res := p.process(ctx, e)

	span.SetAttributes(attribute.String("notify.result", string(res.Status)))
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, string(res.Status))
	}
	p.metrics.RecordEvent(string(e.EventType), string(res.Status))
	return res
}

func (p *Processor) process(ctx context.Context, e Event) Result {
	res := Result{Nonce: e.Nonce}
	log := p.logger.With(logger.EventType(e.EventType), logger.Nonce(e.Nonce))

	if err := e.Validate(); err != nil {
		res.Status = ResultInvalid
		res.Err = err
		log.WarnContext(ctx, "rejected event", logger.Error(res.Err))
		return res
	}

	// Fast path for replays; the claim below is what enforces uniqueness.
	if _, err := p.store.GetEvent(ctx, e.Nonce); err == nil {
		res.Status = ResultDuplicate
		log.DebugContext(ctx, "event already processed")
		return res
	} else if !errors.Is(err, ErrEventNotFound) {
		return p.fail(ctx, log, res, fmt.Errorf("get event: %w", err))
	}

	claimed, err := p.store.ClaimEvent(ctx, e, p.now())
	if err != nil {
		return p.fail(ctx, log, res, fmt.Errorf("claim event: %w", err))
	}
	if !claimed {
		res.Status = ResultDuplicate
		log.DebugContext(ctx, "event claimed by a concurrent call")
		return res
	}

	subs, err := p.matcher.FindSubscribersByEvent(ctx, e.EventType)
	if err != nil {
		if relErr := p.store.ReleaseEvent(context.WithoutCancel(ctx), e.Nonce); relErr != nil {
			err = errors.Join(err, fmt.Errorf("release event: %w", relErr))
		}
		return p.fail(ctx, log, res, err)
	}

	res.Recipients = len(subs)
	res.Report = p.handler.Handle(ctx, Envelope{
		Event:      e,
		Recipients: Recipients(subs),
	})

	res.Status = ResultProcessed
	if err := p.store.MarkEventProcessed(context.WithoutCancel(ctx), e.Nonce, p.now()); err != nil {
		res.Err = fmt.Errorf("mark event processed: %w", err)
		log.ErrorContext(ctx, "failed to mark event processed", logger.Error(res.Err))
		return res
	}

	log.InfoContext(ctx, "event processed",
		logger.Count("recipients", res.Recipients),
		logger.Count("delivered", res.Report.Delivered()),
		logger.Count("failed", res.Report.Failed()),
	)
	return res
}

func (p *Processor) fail(ctx context.Context, log *slog.Logger, res Result, err error) Result {
	res.Status = ResultFailed
	res.Err = err
	log.ErrorContext(ctx, "event processing failed", logger.Error(err))
	return res
}

// ProcessEvents processes events one after another. A failing event never
// stops the batch.
func (p *Processor) ProcessEvents(ctx context.Context, events []Event) []Result {
	out := make([]Result, 0, len(events))
	for _, e := range events {
		if ctx.Err() != nil {
			out = append(out, Result{Nonce: e.Nonce, Status: ResultFailed, Err: ctx.Err()})
			continue
		}
		out = append(out, p.ProcessEvent(ctx, e))
	}
	return out
}
