package background

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pedalpoint/taskcore/pkg/lifecycle"
	"github.com/pedalpoint/taskcore/pkg/logger"
	"github.com/pedalpoint/taskcore/pkg/notifications"
)

// Manager is a durable registry of typed background tasks.
// It runs registered handlers on a fixed tick, right after scheduling, and when
// the application returns to the foreground, persisting every change.
type Manager struct {
	storage   Storage
	notifier  Notifier
	lifecycle lifecycle.Source

	mu             sync.RWMutex
	handlers       map[TaskType]Handler
	tasks          map[string]*Task
	order          []string
	initialized    bool
	closed         bool
	appState       lifecycle.State
	lastForeground time.Time

	passMu    sync.Mutex
	persistMu sync.Mutex
	loaded    bool // guarded by persistMu

	tickInterval  time.Duration
	cleanupAge    time.Duration
	maxAttempts   int
	tasksKey      string
	foregroundKey string
	logger        *slog.Logger
	now           func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// storageTimeout bounds each storage call made on behalf of a pass, so a write
// started before Close still lands after the manager context is cancelled.
const storageTimeout = 10 * time.Second

// NewManager creates a manager backed by storage. Call Init to load persisted state
// and start the tick loop.
func NewManager(storage Storage, opts ...Option) (*Manager, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	options := &options{
		tickInterval:  15 * time.Second,
		cleanupAge:    24 * time.Hour,
		maxAttempts:   1,
		tasksKey:      "background_tasks",
		foregroundKey: "last_foreground_time",
		logger:        slog.Default(),
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(options)
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		storage:       storage,
		notifier:      options.notifier,
		lifecycle:     options.lifecycle,
		handlers:      make(map[TaskType]Handler),
		tasks:         make(map[string]*Task),
		appState:      lifecycle.StateActive,
		tickInterval:  options.tickInterval,
		cleanupAge:    options.cleanupAge,
		maxAttempts:   options.maxAttempts,
		tasksKey:      options.tasksKey,
		foregroundKey: options.foregroundKey,
		logger:        options.logger.With(logger.Component("background")),
		now:           options.now,
		ctx:           ctx,
		cancel:        cancel,
	}

	if m.lifecycle != nil {
		states := m.lifecycle.Subscribe(ctx)
		m.wg.Add(1)
		go m.watchLifecycle(states)
	}

	return m, nil
}

// Init loads persisted tasks, configures the notifier and starts the tick loop.
// Calling it again is a no-op. Storage failures are logged, not returned.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	if m.initialized {
		m.mu.Unlock()
		return nil
	}
	m.initialized = true
	m.mu.Unlock()

	m.loadForeground(ctx)

	m.persistMu.Lock()
	pending := m.pendingBeforeLoad()
	if m.ensureLoadedLocked(ctx) && pending {
		m.writeLocked(ctx)
	}
	m.persistMu.Unlock()

	if c, ok := m.notifier.(Configurer); ok {
		if err := c.Configure(ctx); err != nil {
			m.logger.WarnContext(ctx, "failed to configure notifications", logger.Error(err))
		}
	}

	m.mu.Lock()
	if !m.closed {
		m.wg.Add(1)
		go m.tick()
	}
	count := len(m.tasks)
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "background task manager initialized",
		slog.Int("tasks", count),
		slog.Duration("tick_interval", m.tickInterval))

	return nil
}

// RegisterTaskHandler sets the handler for taskType, replacing any previous one.
func (m *Manager) RegisterTaskHandler(taskType TaskType, h Handler) error {
	if taskType == "" {
		return ErrEmptyTaskType
	}
	if h == nil {
		return ErrNilHandler
	}

	m.mu.Lock()
	_, replaced := m.handlers[taskType]
	m.handlers[taskType] = h
	m.mu.Unlock()

	m.logger.Info("task handler registered",
		logger.TaskType(taskType),
		slog.Bool("replaced", replaced))

	return nil
}

// ScheduleTask creates a scheduled task and persists it. If a handler is registered
// for taskType, a processing pass starts right away instead of waiting for the next tick.
func (m *Manager) ScheduleTask(ctx context.Context, taskType TaskType, data map[string]any) (string, error) {
	if taskType == "" {
		return "", ErrEmptyTaskType
	}

	now := m.now()
	task := &Task{
		ID:        uuid.NewString(),
		Type:      taskType,
		Status:    StatusScheduled,
		Data:      maps.Clone(data),
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrManagerClosed
	}
	m.tasks[task.ID] = task
	m.order = append(m.order, task.ID)
	_, hasHandler := m.handlers[taskType]
	m.mu.Unlock()

	m.logger.DebugContext(ctx, "task scheduled",
		logger.TaskID(task.ID),
		logger.TaskType(taskType))

	m.persist(ctx)

	if hasHandler {
		m.trigger()
	}

	return task.ID, nil
}

// CancelTask cancels a scheduled or running task. A running handler is not interrupted;
// its outcome is discarded.
func (m *Manager) CancelTask(ctx context.Context, id string) bool {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok || !t.Status.IsActive() {
		m.mu.Unlock()
		return false
	}
	t.Status = StatusCancelled
	t.UpdatedAt = m.now()
	taskType := t.Type
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "task cancelled",
		logger.TaskID(id),
		logger.TaskType(taskType))

	m.persist(ctx)
	return true
}

// GetTask returns a copy of the task with the given id.
func (m *Manager) GetTask(id string) (Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[id]
	if !ok {
		return Task{}, false
	}
	return t.Clone(), true
}

// GetAllTasks returns copies of all tasks in scheduling order.
func (m *Manager) GetAllTasks() []Task {
	return m.filter(func(*Task) bool { return true })
}

// GetTasksByType returns copies of the tasks of the given type in scheduling order.
func (m *Manager) GetTasksByType(taskType TaskType) []Task {
	return m.filter(func(t *Task) bool { return t.Type == taskType })
}

// GetTasksByStatus returns copies of the tasks in the given status in scheduling order.
func (m *Manager) GetTasksByStatus(status Status) []Task {
	return m.filter(func(t *Task) bool { return t.Status == status })
}

// CleanupTasks removes finished tasks last updated at least olderThan ago and returns
// how many were removed. Scheduled and running tasks are always kept. A non-positive
// olderThan uses the configured cleanup age.
func (m *Manager) CleanupTasks(ctx context.Context, olderThan time.Duration) int {
	if olderThan <= 0 {
		olderThan = m.cleanupAge
	}

	m.mu.Lock()
	now := m.now()
	removed := 0
	m.order = slices.DeleteFunc(m.order, func(id string) bool {
		t := m.tasks[id]
		if t.Status.IsActive() || now.Sub(t.UpdatedAt) < olderThan {
			return false
		}
		delete(m.tasks, id)
		removed++
		return true
	})
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "cleaned up background tasks",
		slog.Int("removed", removed),
		slog.Duration("older_than", olderThan))

	m.persist(ctx)
	return removed
}

// SendNotification delivers an immediate notification. Failures are logged only.
func (m *Manager) SendNotification(ctx context.Context, title, body string, data map[string]any) {
	if m.notifier == nil {
		m.logger.DebugContext(ctx, "no notifier configured, dropping notification",
			slog.String("title", title))
		return
	}

	err := m.notifier.Send(ctx, notifications.Notification{
		Title: title,
		Body:  body,
		Data:  data,
	})
	if err != nil {
		m.logger.WarnContext(ctx, "failed to send notification",
			slog.String("title", title),
			logger.Error(err))
	}
}

// Process runs one processing pass over all scheduled and running tasks and then
// persists the task map. Passes never overlap.
func (m *Manager) Process(ctx context.Context) {
	m.passMu.Lock()
	defer m.passMu.Unlock()

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return
	}
	var due []string
	for _, id := range m.order {
		if m.tasks[id].Status.IsActive() {
			due = append(due, id)
		}
	}
	m.mu.RUnlock()

	if len(due) == 0 {
		return
	}

	start := m.now()
	for _, id := range due {
		if ctx.Err() != nil {
			break
		}
		m.runTask(ctx, id)
	}

	m.logger.DebugContext(ctx, "processing pass finished",
		slog.Int("tasks", len(due)),
		logger.Duration(m.now().Sub(start)))

	m.persist(ctx)
}

// AppState returns the last observed application state.
func (m *Manager) AppState() lifecycle.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.appState
}

// LastForegroundTime returns when the application last left the foreground.
func (m *Manager) LastForegroundTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastForeground
}

// Close stops the tick loop and the lifecycle subscription and waits for running passes.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()

	m.logger.Info("background task manager stopped")
	return nil
}

// Run returns a function suitable for errgroup. It initializes the manager,
// blocks until ctx is done and then closes it.
func (m *Manager) Run(ctx context.Context) func() error {
	return func() error {
		if err := m.Init(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return m.Close()
	}
}

func (m *Manager) runTask(ctx context.Context, id string) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok || !t.Status.IsActive() {
		m.mu.Unlock()
		return
	}

	h := m.handlers[t.Type]
	if h == nil {
		t.Status = StatusFailed
		t.Error = fmt.Sprintf("%s: %s", ErrNoHandler, t.Type)
		t.UpdatedAt = m.now()
		taskType := t.Type
		m.mu.Unlock()

		m.logger.WarnContext(ctx, "no handler registered for task type",
			logger.TaskID(id),
			logger.TaskType(taskType))
		return
	}

	t.Status = StatusRunning
	t.Attempts++
	t.UpdatedAt = m.now()
	snapshot := t.Clone()
	m.mu.Unlock()

	start := m.now()
	result, err := m.invoke(ctx, h, snapshot)
	elapsed := m.now().Sub(start)

	m.mu.Lock()
	t, ok = m.tasks[id]
	if !ok || t.Status != StatusRunning {
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "discarding outcome of task no longer running",
			logger.TaskID(id),
			logger.TaskType(snapshot.Type))
		return
	}

	now := m.now()
	t.UpdatedAt = now
	switch {
	case err == nil:
		t.Status = StatusCompleted
		t.Error = ""
		t.CompletedAt = &now
		if result != nil {
			data := maps.Clone(t.Data)
			if data == nil {
				data = make(map[string]any, 1)
			}
			data["result"] = result
			t.Data = data
		}
	case t.Attempts < m.maxAttempts:
		t.Status = StatusScheduled
		t.Error = err.Error()
	default:
		t.Status = StatusFailed
		t.Error = err.Error()
	}
	status, attempts := t.Status, t.Attempts
	m.mu.Unlock()

	switch status {
	case StatusCompleted:
		m.logger.DebugContext(ctx, "task completed",
			logger.TaskID(id),
			logger.TaskType(snapshot.Type),
			logger.Duration(elapsed))
	case StatusScheduled:
		m.logger.WarnContext(ctx, "task failed, will retry on next pass",
			logger.TaskID(id),
			logger.TaskType(snapshot.Type),
			logger.RetryCount(attempts),
			logger.Error(err))
	case StatusFailed:
		m.logger.ErrorContext(ctx, "task failed",
			logger.TaskID(id),
			logger.TaskType(snapshot.Type),
			logger.RetryCount(attempts),
			logger.Error(err))
	case StatusRunning, StatusCancelled:
	}
}

func (m *Manager) invoke(ctx context.Context, h Handler, task Task) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanicked, r)
		}
	}()

	return h.Handle(ctx, task)
}

// trigger starts an asynchronous processing pass bound to the manager lifetime.
func (m *Manager) trigger() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.Process(m.ctx)
	}()
}

func (m *Manager) tick() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.Process(m.ctx)
		}
	}
}

func (m *Manager) watchLifecycle(states <-chan lifecycle.State) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			m.handleAppStateChange(m.ctx, s)
		}
	}
}

func (m *Manager) handleAppStateChange(ctx context.Context, next lifecycle.State) {
	m.mu.Lock()
	prev := m.appState
	m.appState = next

	switch {
	case !prev.IsForeground() && next.IsForeground():
		last := m.lastForeground
		m.mu.Unlock()

		attrs := []any{logger.AppState(next)}
		if !last.IsZero() {
			attrs = append(attrs, slog.Duration("background_for", m.now().Sub(last)))
		}
		m.logger.InfoContext(ctx, "app returned to foreground", attrs...)

		m.Process(ctx)

	case prev.IsForeground() && !next.IsForeground():
		now := m.now()
		m.lastForeground = now
		m.mu.Unlock()

		m.logger.InfoContext(ctx, "app moved to background", logger.AppState(next))

		sctx, cancel := storageContext(ctx)
		err := m.storage.Set(sctx, m.foregroundKey, encodeTimestamp(now))
		cancel()
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to persist last foreground time", logger.Error(err))
		}

	default:
		m.mu.Unlock()
	}
}

func (m *Manager) filter(match func(*Task) bool) []Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Task
	for _, id := range m.order {
		if t := m.tasks[id]; match(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// persist writes the full task map. Errors are logged; in-memory state stays authoritative.
// Nothing is written until the stored tasks have been merged in, so an early write
// cannot replace state saved by a previous run.
func (m *Manager) persist(ctx context.Context) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	if !m.ensureLoadedLocked(ctx) {
		m.logger.WarnContext(ctx, "stored background tasks not loaded yet, skipping persist")
		return
	}
	m.writeLocked(ctx)
}

func (m *Manager) writeLocked(ctx context.Context) {
	raw, err := encodeTasks(m.GetAllTasks())
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to encode background tasks", logger.Error(err))
		return
	}

	sctx, cancel := storageContext(ctx)
	defer cancel()

	if err := m.storage.Set(sctx, m.tasksKey, raw); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist background tasks", logger.Error(err))
	}
}

// pendingBeforeLoad reports whether tasks were created before the stored ones were read.
func (m *Manager) pendingBeforeLoad() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order) > 0
}

// ensureLoadedLocked merges the stored tasks into memory once. It reports false
// when storage could not be read; the next persist retries. Corrupt state is
// logged and treated as empty. Stored tasks are placed ahead of tasks created
// in this process, and in-memory tasks win on id collisions.
func (m *Manager) ensureLoadedLocked(ctx context.Context) bool {
	if m.loaded {
		return true
	}

	sctx, cancel := storageContext(ctx)
	defer cancel()

	raw, found, err := m.storage.Get(sctx, m.tasksKey)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to load background tasks", logger.Error(err))
		return false
	}
	m.loaded = true

	if !found {
		return true
	}
	tasks, err := decodeTasks(raw)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to decode background tasks", logger.Error(err))
		return true
	}

	m.mu.Lock()
	stored := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if _, exists := m.tasks[t.ID]; exists {
			continue
		}
		task := t
		m.tasks[t.ID] = &task
		stored = append(stored, t.ID)
	}
	m.order = append(stored, m.order...)
	m.mu.Unlock()

	return true
}

// loadForeground restores the last time the application left the foreground.
func (m *Manager) loadForeground(ctx context.Context) {
	raw, found, err := m.storage.Get(ctx, m.foregroundKey)
	switch {
	case err != nil:
		m.logger.ErrorContext(ctx, "failed to load last foreground time", logger.Error(err))
	case found:
		ts, err := decodeTimestamp(raw)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to decode last foreground time", logger.Error(err))
			break
		}
		m.mu.Lock()
		m.lastForeground = ts
		m.mu.Unlock()
	}
}

func storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storageTimeout)
}
