// Package logger builds *slog.Logger instances for the notification service.
//
// New assembles a JSON or text handler, attaches static attributes and wraps
// the result with a context-aware handler so values carried in a context.Context
// (request id, run id) land on every record logged with that context.
//
// Attribute helpers in attr.go keep key names consistent across packages:
//
//	log.LogAttrs(ctx, slog.LevelError, "channel delivery failed",
//	    logger.Provider("slack"),
//	    logger.EventType("buy-name-notice"),
//	    logger.Error(err),
//	)
package logger
