package arns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/arnsnotify/pkg/logger"
)

var tracer = otel.Tracer("github.com/dmitrymomot/arnsnotify/svc/arns")

const DefaultPageSize = 1000

// Registry pages through leased records.
type Registry interface {
	GetLeasedRecords(ctx context.Context, req PageRequest) (Page, error)
}

// Resolver enriches a name with its owner.
type Resolver interface {
	Resolve(ctx context.Context, name string) (Ownership, error)
}

type ItemStatus string

const (
	ItemSynced  ItemStatus = "synced"
	ItemSkipped ItemStatus = "skipped"
	ItemErrored ItemStatus = "errored"
)

// ItemResult is the outcome for one registry record. EnrichErr is set when
// the resolver failed but the record was still upserted.
type ItemResult struct {
	Name      string
	Status    ItemStatus
	Err       error
	EnrichErr error
}

// SyncStats summarises one SyncAllNames run. Failures lists only items that
// errored or could not be enriched.
type SyncStats struct {
	Pages        int
	Seen         int
	Synced       int
	Skipped      int
	Errored      int
	EnrichFailed int
	Failures     []ItemResult
}

func (s *SyncStats) add(r ItemResult) {
	switch r.Status {
	case ItemSynced:
		s.Synced++
	case ItemSkipped:
		s.Skipped++
	case ItemErrored:
		s.Errored++
	}
	if r.EnrichErr != nil {
		s.EnrichFailed++
	}
	if r.Err != nil || r.EnrichErr != nil {
		s.Failures = append(s.Failures, r)
	}
}

// SyncService mirrors leased registry names into the Store.
type SyncService struct {
	registry    Registry
	resolver    Resolver
	store       Store
	limiter     *rate.Limiter
	pageSize    int
	concurrency int
	logger      *slog.Logger
	metrics     Metrics
	now         func() time.Time
	running     atomic.Bool
}

type SyncOption func(*SyncService)

// WithPageSize sets the registry page limit. Default 1000.
func WithPageSize(n int) SyncOption {
	return func(s *SyncService) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithEnrichConcurrency bounds parallel resolver calls. Default 8.
func WithEnrichConcurrency(n int) SyncOption {
	return func(s *SyncService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithResolverRateLimit caps resolver calls per second. Default unlimited.
func WithResolverRateLimit(perSecond float64, burst int) SyncOption {
	return func(s *SyncService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

func WithSyncLogger(l *slog.Logger) SyncOption {
	return func(s *SyncService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithSyncMetrics(m Metrics) SyncOption {
	return func(s *SyncService) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithSyncClock(now func() time.Time) SyncOption {
	return func(s *SyncService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSyncService(registry Registry, resolver Resolver, store Store, opts ...SyncOption) *SyncService {
	s := &SyncService{
		registry:    registry,
		resolver:    resolver,
		store:       store,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		pageSize:    DefaultPageSize,
		concurrency: 8,
		logger:      slog.Default(),
		metrics:     noopMetrics{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Running reports whether a sync is in flight.
func (s *SyncService) Running() bool {
	return s.running.Load()
}

// Start runs SyncAllNames in the background and reports whether it started.
// It returns false when a sync is already running.
func (s *SyncService) Start(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer s.running.Store(false)
		_, _ = s.sync(context.WithoutCancel(ctx))
	}()
	return true
}

// SyncAllNames pulls every leased record page by page, enriches each name
// through the resolver and upserts it. Registry failures abort the run with
// an error; per-item failures are counted and logged.
func (s *SyncService) SyncAllNames(ctx context.Context) (SyncStats, error) {
	if !s.running.CompareAndSwap(false, true) {
		return SyncStats{}, ErrSyncInProgress
	}
	defer s.running.Store(false)
	return s.sync(ctx)
}

func (s *SyncService) sync(ctx context.Context) (stats SyncStats, err error) {
	ctx, span := tracer.Start(ctx, "arns.SyncService.SyncAllNames")
	start := s.now()
	log := s.logger.With(logger.Component("arns-sync"))

	defer func() {
		elapsed := s.now().Sub(start)
		s.metrics.RecordSyncRun(elapsed, err)
		s.metrics.RecordSyncItems(string(ItemSynced), stats.Synced)
		s.metrics.RecordSyncItems(string(ItemSkipped), stats.Skipped)
		s.metrics.RecordSyncItems(string(ItemErrored), stats.Errored)
		s.metrics.RecordSyncItems("enrich_failed", stats.EnrichFailed)

		span.SetAttributes(
			attribute.Int("arns.pages", stats.Pages),
			attribute.Int("arns.synced", stats.Synced),
			attribute.Int("arns.errored", stats.Errored),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "sync failed")
			log.ErrorContext(ctx, "arns sync failed",
				logger.Count("pages", stats.Pages),
				logger.Count("synced", stats.Synced),
				logger.Error(err))
		} else {
			log.InfoContext(ctx, "arns sync finished",
				logger.Count("pages", stats.Pages),
				logger.Count("seen", stats.Seen),
				logger.Count("synced", stats.Synced),
				logger.Count("skipped", stats.Skipped),
				logger.Count("errored", stats.Errored),
				logger.Count("enrich_failed", stats.EnrichFailed),
				logger.Duration(elapsed))
		}
		span.End()
	}()

	visited := make(map[string]struct{})
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		page, err := s.registry.GetLeasedRecords(ctx, PageRequest{
			Cursor:    cursor,
			Limit:     s.pageSize,
			SortBy:    "name",
			SortOrder: "asc",
			Type:      RecordLease,
		})
		if err != nil {
			return stats, fmt.Errorf("fetch page %d: %w", stats.Pages+1, err)
		}
		stats.Pages++
		stats.Seen += len(page.Items)

		for _, r := range s.syncPage(ctx, page.Items) {
			stats.add(r)
		}

		if !page.HasMore || page.NextCursor == "" {
			return stats, nil
		}
		if _, seen := visited[page.NextCursor]; seen {
			return stats, fmt.Errorf("%w: %q", ErrCursorLoop, page.NextCursor)
		}
		visited[page.NextCursor] = struct{}{}
		cursor = page.NextCursor
	}
}

// syncPage processes one page with bounded parallelism. Results keep the
// page order.
func (s *SyncService) syncPage(ctx context.Context, items []Record) []ItemResult {
	results := make([]ItemResult, len(items))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, r := range items {
		if !r.Leased() {
			results[i] = ItemResult{Name: r.Name, Status: ItemSkipped}
			continue
		}
		g.Go(func() error {
			results[i] = s.syncRecord(ctx, r)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *SyncService) syncRecord(ctx context.Context, r Record) ItemResult {
	res := ItemResult{Name: r.Name}

	ownership, err := s.enrich(ctx, r.Name)
	if err != nil {
		res.EnrichErr = err
		s.logger.WarnContext(ctx, "arns owner enrichment failed",
			logger.Name(r.Name),
			logger.Error(err))
	}

	err = s.store.UpsertLeasedName(ctx, NameUpsert{
		Name:           r.Name,
		ProcessID:      r.ProcessID,
		StartTimestamp: time.UnixMilli(r.StartTimestamp).UTC(),
		EndTimestamp:   time.UnixMilli(*r.EndTimestamp).UTC(),
		Ownership:      ownership,
		SyncedAt:       s.now().UTC(),
	})
	if err != nil {
		res.Status = ItemErrored
		res.Err = fmt.Errorf("upsert %s: %w", r.Name, err)
		s.logger.ErrorContext(ctx, "arns name upsert failed",
			logger.Name(r.Name),
			logger.Error(err))
		return res
	}

	res.Status = ItemSynced
	return res
}

// enrich returns nil ownership on any failure.
func (s *SyncService) enrich(ctx context.Context, name string) (*Ownership, error) {
	if s.resolver == nil {
		return nil, nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", ErrResolverFailed, err)
	}

	start := s.now()
	o, err := s.resolver.Resolve(ctx, name)
	s.metrics.RecordResolverCall(s.now().Sub(start), err)
	if err != nil {
		if !errors.Is(err, ErrResolverFailed) {
			err = fmt.Errorf("%w: %w", ErrResolverFailed, err)
		}
		return nil, err
	}
	return &o, nil
}
