package handler

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/arnsnotify/pkg/logger"
	"github.com/dmitrymomot/arnsnotify/pkg/requestid"
)

// NewErrorHandler logs the error with request details and writes a JSON
// error envelope. Client errors log at warn, the rest at error.
func NewErrorHandler(log *slog.Logger) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx Context, err error) {
		r := ctx.Request()
		status, detail := ErrorToDetail(err)

		level := slog.LevelError
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("http"),
		)

		resp := &jsonResponse{status: status, body: Envelope{Error: detail}}
		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response", logger.Error(renderErr))
		}
	}
}
