// Package runner executes background tasks on cron schedules, decoupled
// from request handling.
package runner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is a periodic background job.
type Task interface {
	// Name identifies the task in logs and metrics.
	Name() string
	// Schedule returns a six-field cron expression (with seconds).
	Schedule() string
	// Timeout bounds a single run.
	Timeout() time.Duration
	// Run executes the task once.
	Run(ctx context.Context) error
}

// Runner schedules and executes registered tasks.
type Runner struct {
	cron   *cron.Cron
	logger *log.Logger
}

// Option applies configuration to the runner.
type Option func(*Runner)

// WithLogger injects a custom logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithLocation sets the scheduler timezone.
func WithLocation(loc *time.Location) Option {
	return func(r *Runner) {
		r.cron = cron.New(cron.WithSeconds(), cron.WithLocation(loc))
	}
}

// New creates a stopped runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		cron:   cron.New(cron.WithSeconds()),
		logger: log.New(log.Writer(), "[RUNNER] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a task to the schedule. Task failures are logged, never
// fatal: a failing sweep only leaves stale data for the next run.
func (r *Runner) Register(task Task) error {
	_, err := r.cron.AddFunc(task.Schedule(), func() {
		ctx := context.Background()
		if timeout := task.Timeout(); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		if err := task.Run(ctx); err != nil {
			r.logger.Printf("task %s failed after %v: %v", task.Name(), time.Since(start), err)
			return
		}
	})
	if err != nil {
		return fmt.Errorf("register task %s: %w", task.Name(), err)
	}
	r.logger.Printf("registered task %s (%s)", task.Name(), task.Schedule())
	return nil
}

// Start begins executing schedules in a background goroutine.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts scheduling and returns a context that completes when running
// jobs have finished.
func (r *Runner) Stop() context.Context {
	return r.cron.Stop()
}
