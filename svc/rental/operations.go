package rental

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/pedalpoint/taskcore/pkg/logger"
	"github.com/pedalpoint/taskcore/pkg/queue"
)

// OperationsOption configures Operations.
type OperationsOption func(*Operations)

// OnComplete is called with the id and result of every completed task.
func OnComplete(fn func(id string, result any)) OperationsOption {
	return func(o *Operations) {
		o.onComplete = fn
	}
}

// OnFail is called with the id and last error of every task that ran out of retries.
func OnFail(fn func(id string, err error)) OperationsOption {
	return func(o *Operations) {
		o.onFail = fn
	}
}

// WithOperationsLogger sets the logger.
func WithOperationsLogger(log *slog.Logger) OperationsOption {
	return func(o *Operations) {
		if log != nil {
			o.logger = log
		}
	}
}

// Operations runs user-facing rental operations (unlocks, payments, fare quotes)
// on a shared queue and reports their outcome through callbacks.
type Operations struct {
	q          *queue.Queue
	listenerID string
	onComplete func(id string, result any)
	onFail     func(id string, err error)
	logger     *slog.Logger
}

// NewOperations subscribes to q. Call Close to unsubscribe.
func NewOperations(q *queue.Queue, opts ...OperationsOption) (*Operations, error) {
	if q == nil {
		return nil, ErrNilQueue
	}

	o := &Operations{
		q:          q,
		listenerID: "rental-operations-" + uuid.NewString(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	q.AddListener(o.listenerID, o.dispatch)
	return o, nil
}

// Execute enqueues fn under description.
func (o *Operations) Execute(description string, fn queue.Func, opts ...queue.EnqueueOption) (string, error) {
	if description != "" {
		o.logger.Debug("enqueueing operation", slog.String("description", description))
		opts = append([]queue.EnqueueOption{queue.WithName(description)}, opts...)
	}
	return o.q.Enqueue(fn, opts...)
}

func (o *Operations) Cancel(id string) bool {
	return o.q.CancelTask(id)
}

// Clear drops finished tasks from the queue history.
func (o *Operations) Clear() int {
	return o.q.ClearCompletedTasks()
}

func (o *Operations) Pause() {
	o.q.Pause()
}

func (o *Operations) Resume() {
	o.q.Resume()
}

func (o *Operations) Stats() queue.Stats {
	return o.q.GetStats()
}

func (o *Operations) Tasks() []queue.Task {
	return o.q.GetAllTasks()
}

// IsProcessing reports whether any task is running.
func (o *Operations) IsProcessing() bool {
	return o.q.GetStats().Running > 0
}

// Close removes the queue listener. The queue itself keeps running.
func (o *Operations) Close() {
	o.q.RemoveListener(o.listenerID)
}

func (o *Operations) dispatch(task queue.Task) {
	switch task.Status {
	case queue.StatusCompleted:
		if o.onComplete != nil {
			o.onComplete(task.ID, task.Result)
		}
	case queue.StatusFailed:
		o.logger.Warn("operation failed",
			logger.TaskID(task.ID),
			logger.TaskName(task.Name),
			logger.Error(task.Err))
		if o.onFail != nil {
			o.onFail(task.ID, task.Err)
		}
	case queue.StatusPending, queue.StatusRunning, queue.StatusCancelled:
	}
}
