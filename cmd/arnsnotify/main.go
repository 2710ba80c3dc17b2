package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/arnsnotify/modules/admin"
	"github.com/dmitrymomot/arnsnotify/pkg/config"
	"github.com/dmitrymomot/arnsnotify/pkg/email"
	"github.com/dmitrymomot/arnsnotify/pkg/httpserver"
	"github.com/dmitrymomot/arnsnotify/pkg/logger"
	"github.com/dmitrymomot/arnsnotify/pkg/metrics"
	"github.com/dmitrymomot/arnsnotify/pkg/pg"
	"github.com/dmitrymomot/arnsnotify/pkg/redis"
	"github.com/dmitrymomot/arnsnotify/pkg/requestid"
	"github.com/dmitrymomot/arnsnotify/pkg/schedule"
	"github.com/dmitrymomot/arnsnotify/pkg/tracing"
	"github.com/dmitrymomot/arnsnotify/pkg/webhook"
	"github.com/dmitrymomot/arnsnotify/storage/postgres"
	"github.com/dmitrymomot/arnsnotify/svc/arns"
	"github.com/dmitrymomot/arnsnotify/svc/notify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("arnsnotify stopped", logger.Error(err))
		os.Exit(1)
	}
}

type stores struct {
	notify notify.Store
	arns   arns.Store
	checks []httpserver.Check
	close  func()
}

func run(ctx context.Context) error {
	app := config.MustLoad[appConfig]()

	log := logger.New(
		logger.WithEnvironment(app.Env, app.Name),
		logger.WithLevelName(app.LogLevel),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	shutdownTracing, err := tracing.Setup(ctx, config.MustLoad[tracing.Config](), app.Name, app.Version, app.Env)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			log.Error("failed to flush traces", logger.Error(err))
		}
	}()

	st, err := openStores(ctx, app, log)
	if err != nil {
		return err
	}
	defer st.close()

	notifyCfg := config.MustLoad[notify.Config]()
	arnsCfg := config.MustLoad[arns.Config]()
	if err := arnsCfg.WindowPolicy().Validate(); err != nil {
		return err
	}

	prom := metrics.New(nil, "arnsnotify")

	dispatcher, err := newDispatcher(ctx, notifyCfg, st.notify, prom, log)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "dispatcher ready", slog.Any("providers", dispatcher.Providers()))

	matcher := notify.NewMatcher(st.notify)
	processor := notify.NewProcessor(st.notify, matcher, dispatcher,
		notify.WithProcessorLogger(log),
		notify.WithProcessorMetrics(prom),
	)

	syncSvc := arns.NewSyncService(
		arns.NewRegistryClient(arnsCfg.RegistryURL, nil),
		arns.NewResolverClient(arnsCfg.ResolverURL, arnsCfg.ResolverTimeout, nil),
		st.arns,
		arns.WithPageSize(arnsCfg.PageSize),
		arns.WithEnrichConcurrency(arnsCfg.EnrichConcurrency),
		arns.WithResolverRateLimit(arnsCfg.ResolverRPS, arnsCfg.ResolverBurst),
		arns.WithSyncLogger(log),
		arns.WithSyncMetrics(prom),
	)

	monitorOpts := []arns.MonitorOption{
		arns.WithWindowPolicy(arnsCfg.WindowPolicy()),
		arns.WithMonitorLogger(log),
		arns.WithMonitorMetrics(prom),
	}
	if app.RedisEnabled {
		redisCfg := config.MustLoad[redis.Config]()
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func() { _ = client.Close() }()

		monitorOpts = append(monitorOpts, arns.WithLocker(redis.NewLocker(client, redisCfg.KeyPrefix), arnsCfg.MonitorLockTTL))
		st.checks = append(st.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	}
	monitor := arns.NewExpirationMonitor(st.arns, matcher, dispatcher, monitorOpts...)

	router := admin.Router(admin.RouterOptions{
		Processor:   processor,
		Sync:        syncSvc,
		Expirations: monitor,
		Names:       st.arns,
		Token:       app.AdminToken,
		Liveness:    httpserver.HealthHandler(log, 0),
		Readiness:   httpserver.HealthHandler(log, app.ReadinessTimeout, st.checks...),
		Metrics:     prom.Handler(),
		Logger:      log,
	})

	server := httpserver.NewFromConfig(config.MustLoad[httpserver.Config](), httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, router)
	})

	if app.SchedulerEnabled {
		runner, err := newRunner(arnsCfg, syncSvc, monitor, log)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return runner.Start(ctx)
		})
	}

	log.InfoContext(ctx, "arnsnotify started",
		slog.String("storage", app.Storage),
		slog.Bool("scheduler", app.SchedulerEnabled),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openStores(ctx context.Context, app appConfig, log *slog.Logger) (stores, error) {
	switch app.Storage {
	case storageMemory:
		log.WarnContext(ctx, "using in-memory storage, state is lost on restart")
		return stores{
			notify: notify.NewMemoryStore(),
			arns:   arns.NewMemoryStore(),
			close:  func() {},
		}, nil

	case storagePostgres:
		cfg := config.MustLoad[pg.Config]()
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return stores{}, fmt.Errorf("postgres: %w", err)
		}
		cfg.MigrationsPath = postgres.MigrationsDir
		if err := pg.Migrate(ctx, pool, cfg, log, postgres.Migrations); err != nil {
			pool.Close()
			return stores{}, err
		}
		s := postgres.New(pool)
		return stores{
			notify: s,
			arns:   s,
			checks: []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}},
			close:  pool.Close,
		}, nil

	default:
		return stores{}, fmt.Errorf("unknown STORAGE_DRIVER %q", app.Storage)
	}
}

func newDispatcher(ctx context.Context, cfg notify.Config, store notify.WebhookStore, m *metrics.Prometheus, log *slog.Logger) (*notify.Dispatcher, error) {
	sender := webhook.NewSenderWithClient(&http.Client{Timeout: cfg.WebhookTimeout})
	chatOpts := []webhook.SendOption{
		webhook.WithTimeout(cfg.WebhookTimeout),
		webhook.WithMaxRetries(cfg.WebhookMaxRetries),
	}

	providers := []notify.Provider{
		notify.NewSlackProvider(cfg.SlackWebhookURL, sender, chatOpts...),
		notify.NewDiscordProvider(cfg.DiscordWebhookURL, cfg.DiscordUsername, sender, chatOpts...),
	}

	if cfg.EmailEnabled {
		mailer, err := email.New(ctx, config.MustLoad[email.Config]())
		if err != nil {
			return nil, fmt.Errorf("email: %w", err)
		}
		providers = append(providers, notify.NewEmailProvider(mailer,
			notify.WithEmailConcurrency(cfg.EmailConcurrency),
		))
	}

	if cfg.WebhooksEnabled {
		providers = append(providers, notify.NewWebhookProvider(store, sender,
			notify.WithBreakers(webhook.NewBreakerSet(webhook.BreakerPolicy{Failures: cfg.BreakerFailures, Cooldown: cfg.BreakerCooldown})),
			notify.WithSendOptions(chatOpts...),
			notify.WithWebhookConcurrency(cfg.WebhookConcurrency),
			notify.WithWebhookLogger(log),
			notify.WithWebhookMetrics(m),
		))
	}

	return notify.NewDispatcher(providers,
		notify.WithMaxConcurrency(cfg.MaxConcurrency),
		notify.WithTimeout(cfg.DispatchTimeout),
		notify.WithDispatcherLogger(log),
		notify.WithDispatcherMetrics(m),
	), nil
}

// newRunner schedules the sync before the expiration scan so a fresh start
// scans freshly synced names.
func newRunner(cfg arns.Config, syncSvc *arns.SyncService, monitor *arns.ExpirationMonitor, log *slog.Logger) (*schedule.Runner, error) {
	runner := schedule.NewRunner(schedule.WithLogger(log))
	every := schedule.Every
	if cfg.AlignSchedules {
		every = func(d time.Duration) schedule.Schedule { return schedule.Aligned(d, 0) }
	}

	err := runner.Add("arns-sync", every(cfg.SyncInterval), func(ctx context.Context) error {
		_, err := syncSvc.SyncAllNames(ctx)
		if errors.Is(err, arns.ErrSyncInProgress) {
			return nil
		}
		return err
	}, schedule.RunOnStart())
	if err != nil {
		return nil, err
	}

	err = runner.Add("arns-expirations", every(cfg.ExpirationInterval), func(ctx context.Context) error {
		_, err := monitor.ProcessExpirationEvents(ctx)
		return err
	}, schedule.RunOnStart())
	if err != nil {
		return nil, err
	}
	return runner, nil
}
