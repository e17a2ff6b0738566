package rental

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/pedalpoint/taskcore/pkg/background"
	"github.com/pedalpoint/taskcore/pkg/logger"
)

// Scheduler is the part of *background.Manager the tracker depends on.
type Scheduler interface {
	Notifier
	RegisterTaskHandler(taskType background.TaskType, h background.Handler) error
	ScheduleTask(ctx context.Context, taskType background.TaskType, data map[string]any) (string, error)
	GetTasksByType(taskType background.TaskType) []background.Task
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithTrackerLogger sets the logger.
func WithTrackerLogger(log *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if log != nil {
			t.logger = log
		}
	}
}

// WithInterval sets how often Track re-checks the timer task. Default is one minute.
func WithInterval(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithTrackerClock overrides the time source.
func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Tracker keeps exactly one RENTAL_TIMER task pending while a rental is active.
type Tracker struct {
	scheduler Scheduler
	storage   background.Storage
	logger    *slog.Logger
	interval  time.Duration
	now       func() time.Time

	scheduleMu sync.Mutex

	mu     sync.Mutex
	active *ActiveRental
	stop   context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewTracker registers the RENTAL_TIMER handler on scheduler and returns a tracker.
func NewTracker(scheduler Scheduler, storage background.Storage, opts ...TrackerOption) (*Tracker, error) {
	if scheduler == nil {
		return nil, ErrNilScheduler
	}
	if storage == nil {
		return nil, ErrNilStorage
	}

	t := &Tracker{
		scheduler: scheduler,
		storage:   storage,
		logger:    slog.Default(),
		interval:  time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(logger.Component("rental"))

	handler := NewTimerHandler(scheduler, storage, t.logger, t.now)
	if err := scheduler.RegisterTaskHandler(background.TaskTypeRentalTimer, handler); err != nil {
		return nil, err
	}

	return t, nil
}

// EnsureScheduled schedules a RENTAL_TIMER task for r unless one is already
// scheduled or running. It reports the id of the new task, or "" when nothing was scheduled.
func (t *Tracker) EnsureScheduled(ctx context.Context, r ActiveRental) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	t.scheduleMu.Lock()
	defer t.scheduleMu.Unlock()

	pending := 0
	for _, task := range t.scheduler.GetTasksByType(background.TaskTypeRentalTimer) {
		if task.Status.IsActive() {
			pending++
		}
	}
	if pending > 0 {
		t.logger.DebugContext(ctx, "rental timer task already pending", slog.Int("tasks", pending))
		return "", nil
	}

	id, err := t.scheduler.ScheduleTask(ctx, background.TaskTypeRentalTimer, map[string]any{
		"rental":      r,
		"scheduledAt": t.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", err
	}

	t.logger.DebugContext(ctx, "rental timer task scheduled",
		logger.TaskID(id),
		slog.String("bike_id", r.BikeID))

	return id, nil
}

// Track calls EnsureScheduled now and then on every interval until ctx is done.
// Scheduling errors are logged and do not stop tracking.
func (t *Tracker) Track(ctx context.Context, r ActiveRental) error {
	if err := r.Validate(); err != nil {
		return err
	}

	t.logger.InfoContext(ctx, "tracking active rental",
		slog.String("bike_id", r.BikeID),
		slog.Time("start_time", r.StartTime))

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		if _, err := t.EnsureScheduled(ctx, r); err != nil {
			t.logger.ErrorContext(ctx, "failed to schedule rental timer task", logger.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Start tracks r in the background, replacing any rental tracked before.
func (t *Tracker) Start(r ActiveRental) error {
	if err := r.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTrackerClosed
	}
	if t.stop != nil {
		t.stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.active = &r
	t.stop = cancel

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		_ = t.Track(ctx, r)
	}()

	return nil
}

// Stop ends background tracking. Already scheduled timer tasks are left alone.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
	t.active = nil
}

// Active returns the rental being tracked.
func (t *Tracker) Active() (ActiveRental, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return ActiveRental{}, false
	}
	return *t.active, true
}

// LastProcessedTime returns when a timer task last ran.
func (t *Tracker) LastProcessedTime(ctx context.Context) (time.Time, bool, error) {
	raw, found, err := t.storage.Get(ctx, LastProcessedKey)
	if err != nil || !found {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms), true, nil
}

// Close stops tracking and waits for the tracking goroutine to exit.
func (t *Tracker) Close() error {
	t.mu.Lock()
	t.closed = true
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
	t.active = nil
	t.mu.Unlock()

	t.wg.Wait()
	return nil
}
