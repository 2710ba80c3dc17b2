package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/arnsnotify/pkg/logger"
)

// JobFunc is the work a scheduled job performs.
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	schedule Schedule
	fn       JobFunc
	nextRun  time.Time
	runNow   bool
}

// Runner executes registered jobs when they are due. Due jobs run one after
// another in registration order, so a job never overlaps itself or a job
// registered before it.
type Runner struct {
	mu       sync.Mutex
	jobs     []*job
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewRunner(opts ...Option) *Runner {
	options := &runnerOptions{
		checkInterval: 30 * time.Second,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Runner{
		interval: options.checkInterval,
		now:      options.now,
		logger:   options.logger,
	}
}

// Add registers a job. With RunOnStart the job runs on the first check,
// otherwise it first runs at schedule.Next(now).
func (r *Runner) Add(name string, schedule Schedule, fn JobFunc, opts ...JobOption) error {
	if name == "" || schedule == nil || fn == nil {
		return ErrInvalidJob
	}

	jo := &jobOptions{}
	for _, opt := range opts {
		opt(jo)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, j := range r.jobs {
		if j.name == name {
			return fmt.Errorf("%w: %s", ErrJobAlreadyRegistered, name)
		}
	}

	r.jobs = append(r.jobs, &job{
		name:     name,
		schedule: schedule,
		fn:       fn,
		nextRun:  schedule.Next(r.now()),
		runNow:   jo.runOnStart,
	})

	r.logger.Info("registered periodic job",
		slog.String("job", name),
		slog.String("schedule", schedule.String()))

	return nil
}

// Jobs returns registered job names in registration order.
func (r *Runner) Jobs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.jobs))
	for _, j := range r.jobs {
		names = append(names, j.name)
	}
	return names
}

// Start blocks, checking for due jobs every check interval until ctx is done.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	count := len(r.jobs)
	r.mu.Unlock()

	if count == 0 {
		return ErrNoJobs
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunDue(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("schedule runner shutting down")
			return ctx.Err()
		case <-ticker.C:
			r.RunDue(ctx)
		}
	}
}

// RunDue runs every job whose next run time has passed and returns how many ran.
// A failing job is logged and rescheduled like a successful one.
func (r *Runner) RunDue(ctx context.Context) int {
	r.mu.Lock()
	due := make([]*job, 0, len(r.jobs))
	now := r.now()
	for _, j := range r.jobs {
		if j.runNow || !j.nextRun.After(now) {
			due = append(due, j)
		}
	}
	r.mu.Unlock()

	ran := 0
	for _, j := range due {
		if ctx.Err() != nil {
			break
		}
		r.run(ctx, j)
		ran++
	}
	return ran
}

func (r *Runner) run(ctx context.Context, j *job) {
	start := r.now()
	err := r.safeRun(ctx, j)
	elapsed := r.now().Sub(start)

	r.mu.Lock()
	j.runNow = false
	j.nextRun = j.schedule.Next(start)
	next := j.nextRun
	r.mu.Unlock()

	if err != nil {
		r.logger.ErrorContext(ctx, "periodic job failed",
			slog.String("job", j.name),
			logger.Duration(elapsed),
			logger.Error(err))
		return
	}
	r.logger.DebugContext(ctx, "periodic job finished",
		slog.String("job", j.name),
		logger.Duration(elapsed),
		slog.Time("next_run", next))
}

func (r *Runner) safeRun(ctx context.Context, j *job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, p)
		}
	}()
	return j.fn(ctx)
}
