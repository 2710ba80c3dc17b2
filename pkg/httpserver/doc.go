// Package httpserver runs an http.Handler until its context is cancelled and
// then drains in-flight requests within a shutdown deadline.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("http server stopped", logger.Error(err))
//	}
//
// Run wraps listen errors with ErrStart and Shutdown wraps drain errors with
// ErrShutdown. Signal handling belongs to the caller (signal.NotifyContext).
//
// HealthHandler serves liveness and readiness probes from named checks.
package httpserver
