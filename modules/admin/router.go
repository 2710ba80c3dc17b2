// Package admin is the HTTP surface: event intake, background triggers for
// the ArNS sync and expiration scan, name lookup, health and metrics.
package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/arnsnotify/handler"
	"github.com/dmitrymomot/arnsnotify/pkg/requestid"
	"github.com/dmitrymomot/arnsnotify/svc/arns"
	"github.com/dmitrymomot/arnsnotify/svc/notify"
)

// EventProcessor is satisfied by *notify.Processor.
type EventProcessor interface {
	ProcessEvents(ctx context.Context, events []notify.Event) []notify.Result
}

// Trigger starts background work and reports whether it started. It is
// satisfied by *arns.SyncService and *arns.ExpirationMonitor.
type Trigger interface {
	Start(ctx context.Context) bool
}

type NameLookup interface {
	GetLeasedName(ctx context.Context, name string) (arns.LeasedName, error)
}

// RouterOptions selects what to mount. Nil fields are not mounted.
type RouterOptions struct {
	Processor   EventProcessor
	Sync        Trigger
	Expirations Trigger
	Names       NameLookup

	// Token guards /events and /admin with "Authorization: Bearer <token>".
	// Empty disables the check.
	Token string

	Liveness  http.Handler
	Readiness http.Handler
	Metrics   http.Handler

	Logger *slog.Logger
	// MaxBatch caps events per intake request. Zero means DefaultMaxBatch.
	MaxBatch int
}

// DefaultMaxBatch keeps a sequential batch within the HTTP write timeout
// when most events dispatch quickly.
const DefaultMaxBatch = 100

// Router builds the service router.
//
//	r := admin.Router(admin.RouterOptions{
//		Processor:   processor,
//		Sync:        syncSvc,
//		Expirations: monitor,
//		Token:       cfg.AdminToken,
//	})
func Router(opts RouterOptions) chi.Router {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = DefaultMaxBatch
	}

	h := &handlers{opts: opts, errs: handler.NewErrorHandler(opts.Logger)}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)

	if opts.Liveness != nil {
		r.Method(http.MethodGet, "/healthz", opts.Liveness)
	}
	if opts.Readiness != nil {
		r.Method(http.MethodGet, "/readyz", opts.Readiness)
	}
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(opts.Token, h.errs))

		if opts.Processor != nil {
			r.Post("/events", h.intakeHandler())
		}

		r.Route("/admin/arns", func(r chi.Router) {
			if opts.Sync != nil {
				r.Post("/sync", h.triggerHandler(opts.Sync, "arns sync"))
			}
			if opts.Expirations != nil {
				r.Post("/expirations", h.triggerHandler(opts.Expirations, "expiration scan"))
			}
			if opts.Names != nil {
				r.Get("/names/{name}", h.nameHandler())
			}
		})
	})

	return r
}

func bearerAuth(token string, errs handler.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := []byte(token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				errs(handler.NewContext(w, r), handler.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
