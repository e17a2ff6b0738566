package background

import (
	"log/slog"
	"time"

	"github.com/pedalpoint/taskcore/pkg/lifecycle"
)

// Option is a functional option for configuring a Manager
type Option func(*options)

type options struct {
	notifier      Notifier
	lifecycle     lifecycle.Source
	tickInterval  time.Duration
	cleanupAge    time.Duration
	maxAttempts   int
	tasksKey      string
	foregroundKey string
	logger        *slog.Logger
	now           func() time.Time
}

// WithNotifier sets the notification collaborator
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithLifecycle subscribes the manager to application state transitions
func WithLifecycle(src lifecycle.Source) Option {
	return func(o *options) {
		if src != nil {
			o.lifecycle = src
		}
	}
}

// WithTickInterval sets how often due tasks are processed
func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tickInterval = d
		}
	}
}

// WithCleanupAge sets the default age used by CleanupTasks
func WithCleanupAge(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cleanupAge = d
		}
	}
}

// WithMaxAttempts sets how many times a failing handler is invoked before the task fails.
// The default of 1 means failures are terminal and retrying is left to the caller.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithStorageKeys overrides the keys used for the task map and the last foreground time
func WithStorageKeys(tasksKey, foregroundKey string) Option {
	return func(o *options) {
		if tasksKey != "" {
			o.tasksKey = tasksKey
		}
		if foregroundKey != "" {
			o.foregroundKey = foregroundKey
		}
	}
}

// WithLogger sets the logger for the manager
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source
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
		WithTickInterval(cfg.TickInterval)(o)
		WithCleanupAge(cfg.CleanupAge)(o)
		WithMaxAttempts(cfg.MaxAttempts)(o)
		WithStorageKeys(cfg.TasksKey, cfg.ForegroundKey)(o)
	}
}
