package schedule

import (
	"log/slog"
	"time"
)

type Option func(*runnerOptions)

type runnerOptions struct {
	checkInterval time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// WithCheckInterval sets how often the runner looks for due jobs. Default 30s.
func WithCheckInterval(d time.Duration) Option {
	return func(o *runnerOptions) {
		if d > 0 {
			o.checkInterval = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *runnerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *runnerOptions) {
		if now != nil {
			o.now = now
		}
	}
}

type JobOption func(*jobOptions)

type jobOptions struct {
	runOnStart bool
}

// RunOnStart makes the job run on the first check after Start.
func RunOnStart() JobOption {
	return func(o *jobOptions) {
		o.runOnStart = true
	}
}
