package arns

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dmitrymomot/arnsnotify/pkg/logger"
	"github.com/dmitrymomot/arnsnotify/svc/notify"
)

const monitorLockKey = "arns:expiration-monitor"

// Locker is a cross-process mutex. pkg/redis.Locker implements it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}

type NoticeStatus string

const (
	NoticeSent      NoticeStatus = "sent"
	NoticeDuplicate NoticeStatus = "duplicate"
	NoticeErrored   NoticeStatus = "errored"
)

// NoticeResult is the outcome for one (name, notice type) pair of a run.
type NoticeResult struct {
	Name         string
	Type         NoticeType
	EndTimestamp time.Time
	Status       NoticeStatus
	Recipients   int
	Err          error
}

// RunResult summarises one expiration scan.
type RunResult struct {
	AlreadyRunning bool
	Scanned        int
	Sent           int
	Duplicates     int
	Errored        int
	Notices        []NoticeResult
}

// ExpirationMonitor sends each expiration notice once per (name, type, end).
// At most one scan runs at a time per instance, and per deployment when a
// Locker is configured.
type ExpirationMonitor struct {
	store   Store
	matcher *notify.Matcher
	handler notify.Handler
	policy  WindowPolicy
	locker  Locker
	lockTTL time.Duration
	logger  *slog.Logger
	metrics Metrics
	now     func() time.Time
	running atomic.Bool
}

type MonitorOption func(*ExpirationMonitor)

func WithWindowPolicy(p WindowPolicy) MonitorOption {
	return func(m *ExpirationMonitor) {
		m.policy = p
	}
}

// WithLocker adds a distributed lock held for at most ttl per scan.
func WithLocker(l Locker, ttl time.Duration) MonitorOption {
	return func(m *ExpirationMonitor) {
		m.locker = l
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

func WithMonitorLogger(l *slog.Logger) MonitorOption {
	return func(m *ExpirationMonitor) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithMonitorMetrics(mt Metrics) MonitorOption {
	return func(m *ExpirationMonitor) {
		if mt != nil {
			m.metrics = mt
		}
	}
}

func WithMonitorClock(now func() time.Time) MonitorOption {
	return func(m *ExpirationMonitor) {
		if now != nil {
			m.now = now
		}
	}
}

func NewExpirationMonitor(store Store, matcher *notify.Matcher, handler notify.Handler, opts ...MonitorOption) *ExpirationMonitor {
	m := &ExpirationMonitor{
		store:   store,
		matcher: matcher,
		handler: handler,
		policy:  DefaultWindowPolicy(),
		lockTTL: 10 * time.Minute,
		logger:  slog.Default(),
		metrics: noopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Running reports whether a scan is in flight on this instance.
func (m *ExpirationMonitor) Running() bool {
	return m.running.Load()
}

// Start runs a scan in the background. It returns false, without queueing,
// when a scan is already running.
func (m *ExpirationMonitor) Start(ctx context.Context) bool {
	if !m.running.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer m.running.Store(false)
		_, _ = m.run(context.WithoutCancel(ctx))
	}()
	return true
}

// ProcessExpirationEvents scans names in any notice window, records a
// receipt per due notice and dispatches only the notices whose receipt is
// new. A call made while another scan runs returns AlreadyRunning and no
// error.
func (m *ExpirationMonitor) ProcessExpirationEvents(ctx context.Context) (RunResult, error) {
	if !m.running.CompareAndSwap(false, true) {
		m.logger.DebugContext(ctx, "expiration scan already in progress")
		m.metrics.RecordExpirationRun("skipped")
		return RunResult{AlreadyRunning: true}, nil
	}
	defer m.running.Store(false)
	return m.run(ctx)
}

func (m *ExpirationMonitor) run(ctx context.Context) (res RunResult, err error) {
	ctx, span := tracer.Start(ctx, "arns.ExpirationMonitor.ProcessExpirationEvents")
	defer func() {
		span.SetAttributes(
			attribute.Int("arns.scanned", res.Scanned),
			attribute.Int("arns.sent", res.Sent),
			attribute.Bool("arns.already_running", res.AlreadyRunning),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "expiration scan failed")
		}
		span.End()
	}()

	log := m.logger.With(logger.Component("arns-expiration"))

	if m.locker != nil {
		unlock, ok, lockErr := m.locker.TryLock(ctx, monitorLockKey, m.lockTTL)
		if lockErr != nil {
			m.metrics.RecordExpirationRun("failed")
			return res, fmt.Errorf("acquire monitor lock: %w", lockErr)
		}
		if !ok {
			log.DebugContext(ctx, "expiration scan running on another instance")
			m.metrics.RecordExpirationRun("skipped")
			return RunResult{AlreadyRunning: true}, nil
		}
		defer unlock()
	}

	now := m.now().UTC()
	from, to := m.policy.ScanRange(now)
	names, err := m.store.ListNamesEndingBetween(ctx, from, to)
	if err != nil {
		m.metrics.RecordExpirationRun("failed")
		log.ErrorContext(ctx, "failed to list names nearing expiration", logger.Error(err))
		return res, fmt.Errorf("list names nearing expiration: %w", err)
	}
	res.Scanned = len(names)

	for _, n := range names {
		for _, t := range m.policy.Notices(n.EndTimestamp, now) {
			if ctx.Err() != nil {
				m.metrics.RecordExpirationRun("failed")
				return res, ctx.Err()
			}
			nr := m.notify(ctx, log, n, t, now)
			res.Notices = append(res.Notices, nr)
			switch nr.Status {
			case NoticeSent:
				res.Sent++
			case NoticeDuplicate:
				res.Duplicates++
			case NoticeErrored:
				res.Errored++
			}
		}
	}

	m.metrics.RecordExpirationRun("completed")
	log.InfoContext(ctx, "expiration scan finished",
		logger.Count("scanned", res.Scanned),
		logger.Count("sent", res.Sent),
		logger.Count("duplicates", res.Duplicates),
		logger.Count("errored", res.Errored),
	)
	return res, nil
}

func (m *ExpirationMonitor) notify(ctx context.Context, log *slog.Logger, n LeasedName, t NoticeType, now time.Time) NoticeResult {
	nr := NoticeResult{Name: n.Name, Type: t, EndTimestamp: n.EndTimestamp}
	log = log.With(logger.Name(n.Name), slog.String("notice", string(t)))

	inserted, err := m.store.InsertExpirationReceiptIfAbsent(ctx, ExpirationReceipt{
		Name:         n.Name,
		Type:         t,
		EndTimestamp: n.EndTimestamp,
		SentAt:       now,
	})
	if err != nil {
		nr.Status, nr.Err = NoticeErrored, fmt.Errorf("insert receipt: %w", err)
		log.ErrorContext(ctx, "failed to record expiration receipt", logger.Error(err))
		return nr
	}
	m.metrics.RecordExpirationNotice(string(t), inserted)
	if !inserted {
		nr.Status = NoticeDuplicate
		log.DebugContext(ctx, "expiration notice already sent")
		return nr
	}

	subs, err := m.matcher.FindForExpiration(ctx, t.EventType(), n.Name)
	if err != nil {
		nr.Status, nr.Err = NoticeErrored, err
		if delErr := m.store.DeleteExpirationReceipt(context.WithoutCancel(ctx), n.Name, t, n.EndTimestamp); delErr != nil {
			log.ErrorContext(ctx, "failed to roll back expiration receipt", logger.Error(delErr))
		}
		log.ErrorContext(ctx, "failed to resolve expiration subscribers", logger.Error(err))
		return nr
	}

	nr.Recipients = len(subs)
	report := m.handler.Handle(ctx, notify.Envelope{
		Event:      m.event(n, t),
		Recipients: notify.Recipients(subs),
	})
	nr.Status = NoticeSent
	log.InfoContext(ctx, "expiration notice sent",
		logger.Count("recipients", nr.Recipients),
		logger.Count("failed", report.Failed()),
	)
	return nr
}

func (m *ExpirationMonitor) event(n LeasedName, t NoticeType) notify.Event {
	data := map[string]any{
		"name":           n.Name,
		"endTimestamp":   n.EndTimestamp.UnixMilli(),
		"gracePeriodEnd": m.policy.GracePeriodEnd(n.EndTimestamp).UnixMilli(),
	}
	if n.ProcessID != "" {
		data["processId"] = n.ProcessID
	}
	if n.Owner != "" {
		data["owner"] = n.Owner
	}
	return notify.Event{
		EventType: t.EventType(),
		EventData: data,
		ProcessID: n.ProcessID,
	}
}
