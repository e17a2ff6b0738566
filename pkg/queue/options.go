package queue

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring a queue
type Option func(*options)

type options struct {
	concurrency  int
	maxRetries   int
	backoff      BackoffFunc
	historyLimit int
	historyTTL   time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// WithConcurrency sets the maximum number of tasks running at once
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMaxRetries sets the default retry budget for new tasks
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithRetryDelay sets a fixed delay between retries
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.backoff = FixedBackoff(d)
		}
	}
}

// WithBackoff replaces the retry delay policy
func WithBackoff(fn BackoffFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.backoff = fn
		}
	}
}

// WithHistoryLimit caps the number of finished tasks kept in memory. Zero keeps all of them.
func WithHistoryLimit(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.historyLimit = n
		}
	}
}

// WithHistoryTTL drops finished tasks older than d. Zero disables age-based eviction.
func WithHistoryTTL(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.historyTTL = d
		}
	}
}

// WithLogger sets the logger for the queue
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source used for task timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithConfig applies all values from cfg
func WithConfig(cfg Config) Option {
	return func(o *options) {
		WithConcurrency(cfg.Concurrency)(o)
		WithMaxRetries(cfg.MaxRetries)(o)
		WithRetryDelay(cfg.RetryDelay)(o)
		WithHistoryLimit(cfg.HistoryLimit)(o)
		WithHistoryTTL(cfg.HistoryTTL)(o)
	}
}

// EnqueueOption configures a single task
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	name       string
	priority   Priority
	maxRetries int
}

// WithPriority sets the task priority class
func WithPriority(p Priority) EnqueueOption {
	return func(o *enqueueOptions) {
		o.priority = p
	}
}

// WithTaskMaxRetries overrides the queue retry budget for one task
func WithTaskMaxRetries(n int) EnqueueOption {
	return func(o *enqueueOptions) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithName attaches a human readable description to the task
func WithName(name string) EnqueueOption {
	return func(o *enqueueOptions) {
		o.name = name
	}
}
