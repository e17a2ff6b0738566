package queue

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pedalpoint/taskcore/pkg/logger"
)

// entry is the mutable record behind a Task snapshot. All fields are guarded by Queue.mu.
type entry struct {
	task    Task
	fn      Func
	seq     uint64
	waiting bool // retry delay has not elapsed yet
	timer   *time.Timer
	done    chan struct{}
}

// Queue is an in-process, priority ordered executor with bounded concurrency and retries.
type Queue struct {
	mu        sync.Mutex
	entries   []*entry
	index     map[string]*entry
	seq       uint64
	running   int
	paused    bool
	closed    bool
	listeners map[string]Listener
	order     []string

	concurrency  int
	maxRetries   int
	backoff      BackoffFunc
	historyLimit int
	historyTTL   time.Duration
	logger       *slog.Logger
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a queue ready to accept tasks.
func New(opts ...Option) *Queue {
	options := &options{
		concurrency:  3,
		maxRetries:   3,
		backoff:      FixedBackoff(time.Second),
		historyLimit: 1000,
		logger:       slog.Default(),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(options)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Queue{
		index:        make(map[string]*entry),
		listeners:    make(map[string]Listener),
		concurrency:  options.concurrency,
		maxRetries:   options.maxRetries,
		backoff:      options.backoff,
		historyLimit: options.historyLimit,
		historyTTL:   options.historyTTL,
		logger:       options.logger.With(logger.Component("queue")),
		now:          options.now,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Enqueue registers fn as a new pending task and returns its id.
// It never blocks; fn runs on its own goroutine once a slot is free.
func (q *Queue) Enqueue(fn Func, opts ...EnqueueOption) (string, error) {
	if fn == nil {
		return "", ErrNilFunc
	}

	o := &enqueueOptions{
		priority:   PriorityNormal,
		maxRetries: -1,
	}
	for _, opt := range opts {
		opt(o)
	}

	if !o.priority.Valid() {
		return "", ErrInvalidPriority
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return "", ErrQueueClosed
	}

	maxRetries := o.maxRetries
	if maxRetries < 0 {
		maxRetries = q.maxRetries
	}

	q.seq++
	e := &entry{
		task: Task{
			ID:         uuid.NewString(),
			Name:       o.name,
			Priority:   o.priority,
			Status:     StatusPending,
			CreatedAt:  q.now(),
			MaxRetries: maxRetries,
		},
		fn:   fn,
		seq:  q.seq,
		done: make(chan struct{}),
	}
	q.insertLocked(e)
	id := e.task.ID

	var started []*entry
	if !q.paused {
		started = q.startLocked()
	}
	q.mu.Unlock()

	q.logger.Debug("task enqueued",
		logger.TaskID(id),
		logger.TaskName(o.name),
		logger.Priority(o.priority),
		slog.Int("max_retries", maxRetries))

	q.launch(started)
	return id, nil
}

// CancelTask cancels a pending task. Running and finished tasks are not affected.
func (q *Queue) CancelTask(id string) bool {
	q.mu.Lock()
	e, ok := q.index[id]
	if !ok || e.task.Status != StatusPending {
		q.mu.Unlock()
		return false
	}

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.waiting = false
	q.finishLocked(e, StatusCancelled, nil, nil)
	snapshot := e.task
	q.evictLocked()
	q.mu.Unlock()

	q.logger.Info("task cancelled", logger.TaskID(id))
	q.notify(snapshot)
	return true
}

// Pause stops new tasks from starting. Running tasks are not interrupted.
func (q *Queue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()

	q.logger.Info("queue paused")
}

// Resume lifts a pause and immediately starts eligible tasks.
func (q *Queue) Resume() {
	q.mu.Lock()
	q.paused = false
	q.mu.Unlock()

	q.logger.Info("queue resumed")
	q.process()
}

// Paused reports whether the queue is paused.
func (q *Queue) Paused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// ClearCompletedTasks drops completed, failed and cancelled tasks and returns how many were removed.
func (q *Queue) ClearCompletedTasks() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := q.removeLocked(func(e *entry) bool {
		return e.task.Status.IsTerminal()
	})

	if removed > 0 {
		q.logger.Debug("cleared finished tasks", slog.Int("count", removed))
	}
	return removed
}

// GetTask returns a snapshot of the task with the given id.
func (q *Queue) GetTask(id string) (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.index[id]
	if !ok {
		return Task{}, false
	}
	return e.task, true
}

// GetAllTasks returns snapshots of every known task in scheduling order.
func (q *Queue) GetAllTasks() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	tasks := make([]Task, 0, len(q.entries))
	for _, e := range q.entries {
		tasks = append(tasks, e.task)
	}
	return tasks
}

// GetTasksByStatus returns snapshots of tasks in the given status, in scheduling order.
func (q *Queue) GetTasksByStatus(status Status) []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	var tasks []Task
	for _, e := range q.entries {
		if e.task.Status == status {
			tasks = append(tasks, e.task)
		}
	}
	return tasks
}

// GetStats returns task counters.
func (q *Queue) GetStats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := Stats{Running: q.running, Total: len(q.entries)}
	for _, e := range q.entries {
		switch e.task.Status {
		case StatusPending:
			stats.Pending++
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		case StatusCancelled:
			stats.Cancelled++
		case StatusRunning:
		}
	}
	return stats
}

// AddListener subscribes fn to task status changes under id, replacing any listener with the same id.
func (q *Queue) AddListener(id string, fn Listener) {
	if fn == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.listeners[id]; !ok {
		q.order = append(q.order, id)
	}
	q.listeners[id] = fn
}

// RemoveListener unsubscribes the listener registered under id.
func (q *Queue) RemoveListener(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.listeners[id]; !ok {
		return
	}
	delete(q.listeners, id)
	q.order = slices.DeleteFunc(q.order, func(s string) bool { return s == id })
}

// Wait blocks until the task reaches a terminal status or ctx is done.
func (q *Queue) Wait(ctx context.Context, id string) (Task, error) {
	q.mu.Lock()
	e, ok := q.index[id]
	q.mu.Unlock()
	if !ok {
		return Task{}, ErrTaskNotFound
	}

	select {
	case <-e.done:
	case <-ctx.Done():
		return Task{}, ctx.Err()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return e.task, nil
}

// Shutdown stops accepting tasks, cancels pending ones and waits for running tasks to return.
// If ctx expires first, the context passed to running functions is cancelled and ctx.Err is returned.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true

	var cancelled []Task
	for _, e := range q.entries {
		if e.task.Status != StatusPending {
			continue
		}
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		e.waiting = false
		q.finishLocked(e, StatusCancelled, nil, nil)
		cancelled = append(cancelled, e.task)
	}
	running := q.running
	q.mu.Unlock()

	q.logger.Info("queue shutting down",
		slog.Int("running", running),
		slog.Int("cancelled", len(cancelled)))

	q.notify(cancelled...)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		q.logger.Info("queue stopped")
		return nil
	case <-ctx.Done():
		q.cancel()
		q.logger.Warn("queue shutdown timed out, running tasks were cancelled")
		return ctx.Err()
	}
}

// Run returns a function suitable for errgroup. It blocks until ctx is done and then
// shuts the queue down, giving running tasks up to timeout to return.
func (q *Queue) Run(ctx context.Context, timeout time.Duration) func() error {
	return func() error {
		<-ctx.Done()

		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return q.Shutdown(sctx)
	}
}

// insertLocked places e according to (priority, createdAt, seq).
func (q *Queue) insertLocked(e *entry) {
	i, _ := slices.BinarySearchFunc(q.entries, e, compareEntries)
	q.entries = slices.Insert(q.entries, i, e)
	q.index[e.task.ID] = e
}

func compareEntries(a, b *entry) int {
	if a.task.Priority != b.task.Priority {
		return int(a.task.Priority) - int(b.task.Priority)
	}
	if c := a.task.CreatedAt.Compare(b.task.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	default:
		return 0
	}
}

// startLocked marks eligible pending tasks as running until the concurrency limit is reached.
// The caller must pass the result to launch after releasing the lock.
func (q *Queue) startLocked() []*entry {
	if q.paused || q.closed {
		return nil
	}

	var started []*entry
	for _, e := range q.entries {
		if q.running >= q.concurrency {
			break
		}
		if e.task.Status != StatusPending || e.waiting {
			continue
		}

		now := q.now()
		e.task.Status = StatusRunning
		e.task.StartedAt = &now
		e.task.CompletedAt = nil
		q.running++
		q.wg.Add(1)
		started = append(started, e)
	}
	return started
}

// launch notifies listeners about started tasks and runs them.
func (q *Queue) launch(started []*entry) {
	for _, e := range started {
		q.mu.Lock()
		snapshot := e.task
		q.mu.Unlock()

		q.logger.Debug("task started",
			logger.TaskID(snapshot.ID),
			logger.TaskName(snapshot.Name),
			logger.RetryCount(snapshot.Retries))

		q.notify(snapshot)
		go q.run(e)
	}
}

// process starts as many eligible tasks as the concurrency limit allows.
func (q *Queue) process() {
	q.mu.Lock()
	started := q.startLocked()
	q.mu.Unlock()

	q.launch(started)
}

func (q *Queue) run(e *entry) {
	defer q.wg.Done()

	result, err := q.execute(e.fn)
	q.settle(e, result, err)
}

func (q *Queue) execute(fn Func) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()

	return fn(q.ctx)
}

// settle applies the outcome of one attempt and schedules the next pass.
func (q *Queue) settle(e *entry, result any, err error) {
	q.mu.Lock()
	q.running--

	if e.task.Status != StatusRunning {
		started := q.startLocked()
		q.mu.Unlock()
		q.launch(started)
		return
	}

	var retryIn time.Duration
	switch {
	case err == nil:
		q.finishLocked(e, StatusCompleted, result, nil)
	case e.task.Retries < e.task.MaxRetries && !q.closed:
		e.task.Retries++
		e.task.Status = StatusPending
		e.task.Err = nil
		e.task.Result = nil
		retryIn = q.backoff(e.task.Retries)
		// Held back until the PENDING notification below has been sent.
		e.waiting = true
		if retryIn > 0 {
			e.timer = time.AfterFunc(retryIn, func() { q.wake(e) })
		}
	default:
		q.finishLocked(e, StatusFailed, nil, err)
	}

	snapshot := e.task
	q.evictLocked()
	started := q.startLocked()
	q.mu.Unlock()

	switch snapshot.Status {
	case StatusCompleted:
		q.logger.Debug("task completed",
			logger.TaskID(snapshot.ID),
			logger.TaskName(snapshot.Name),
			logger.Duration(snapshot.Duration()))
	case StatusPending:
		q.logger.Warn("task failed, retrying",
			logger.TaskID(snapshot.ID),
			logger.TaskName(snapshot.Name),
			logger.RetryCount(snapshot.Retries),
			slog.Int("max_retries", snapshot.MaxRetries),
			slog.Duration("retry_in", retryIn),
			logger.Error(err))
	case StatusFailed:
		q.logger.Error("task failed",
			logger.TaskID(snapshot.ID),
			logger.TaskName(snapshot.Name),
			logger.RetryCount(snapshot.Retries),
			logger.Error(err))
	case StatusRunning, StatusCancelled:
	}

	q.notify(snapshot)
	q.launch(started)

	if snapshot.Status == StatusPending && retryIn <= 0 {
		q.wake(e)
	}
}

// wake makes a retried task eligible again once its delay has elapsed.
func (q *Queue) wake(e *entry) {
	q.mu.Lock()
	e.timer = nil
	e.waiting = false
	q.mu.Unlock()

	q.process()
}

// finishLocked moves e into a terminal status.
func (q *Queue) finishLocked(e *entry, status Status, result any, err error) {
	now := q.now()
	e.task.Status = status
	e.task.Result = result
	e.task.Err = err
	e.task.CompletedAt = &now
	close(e.done)
}

// evictLocked drops the oldest finished tasks beyond the history limit or TTL.
func (q *Queue) evictLocked() {
	if q.historyTTL > 0 {
		cutoff := q.now().Add(-q.historyTTL)
		q.removeLocked(func(e *entry) bool {
			return e.task.Status.IsTerminal() && e.task.CompletedAt.Before(cutoff)
		})
	}

	if q.historyLimit <= 0 {
		return
	}

	var finished []*entry
	for _, e := range q.entries {
		if e.task.Status.IsTerminal() {
			finished = append(finished, e)
		}
	}

	excess := len(finished) - q.historyLimit
	if excess <= 0 {
		return
	}

	slices.SortStableFunc(finished, func(a, b *entry) int {
		return a.task.CompletedAt.Compare(*b.task.CompletedAt)
	})

	drop := make(map[*entry]struct{}, excess)
	for _, e := range finished[:excess] {
		drop[e] = struct{}{}
	}
	q.removeLocked(func(e *entry) bool {
		_, ok := drop[e]
		return ok
	})
}

func (q *Queue) removeLocked(match func(*entry) bool) int {
	before := len(q.entries)
	q.entries = slices.DeleteFunc(q.entries, func(e *entry) bool {
		if match(e) {
			delete(q.index, e.task.ID)
			return true
		}
		return false
	})
	return before - len(q.entries)
}

// notify calls listeners outside the queue lock so they may call back into the queue.
func (q *Queue) notify(tasks ...Task) {
	if len(tasks) == 0 {
		return
	}

	q.mu.Lock()
	listeners := make([]Listener, 0, len(q.order))
	ids := make([]string, 0, len(q.order))
	for _, id := range q.order {
		listeners = append(listeners, q.listeners[id])
		ids = append(ids, id)
	}
	q.mu.Unlock()

	for _, task := range tasks {
		for i, fn := range listeners {
			q.callListener(ids[i], fn, task)
		}
	}
}

func (q *Queue) callListener(id string, fn Listener, task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task listener panicked",
				slog.String("listener", id),
				logger.TaskID(task.ID),
				slog.Any("panic", r))
		}
	}()

	fn(task)
}
