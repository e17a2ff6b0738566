package queue

import (
	"context"
	"time"
)

// Priority is a closed set of priority classes. Lower value starts first.
type Priority int

const (
	PriorityHigh   Priority = 0
	PriorityNormal Priority = 1
	PriorityLow    Priority = 2
)

// Valid reports whether p is one of the declared priority classes.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityNormal, PriorityLow:
		return true
	default:
		return false
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// MarshalText encodes p by name.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, ErrInvalidPriority
	}
	return []byte(p.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (p *Priority) UnmarshalText(text []byte) error {
	v, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePriority converts a priority name into a Priority value.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "high":
		return PriorityHigh, nil
	case "normal", "":
		return PriorityNormal, nil
	case "low":
		return PriorityLow, nil
	default:
		return 0, ErrInvalidPriority
	}
}

// Status represents the status of a task
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	case StatusPending, StatusRunning:
		return false
	default:
		return false
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Func is the unit of work executed by the queue.
// The context is cancelled only when the queue is shut down past its grace period;
// cancelling a task never interrupts a running Func.
type Func func(ctx context.Context) (any, error)

// Listener is notified on every task status change except the initial enqueue.
type Listener func(task Task)

// Task is a point-in-time snapshot of a queued task.
type Task struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Result      any        `json:"result,omitempty"`
	Err         error      `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Retries     int        `json:"retries"`
	MaxRetries  int        `json:"max_retries"`
}

// Error returns the task error message or an empty string.
func (t Task) Error() string {
	if t.Err == nil {
		return ""
	}
	return t.Err.Error()
}

// Latency is the time the task spent waiting before its last start.
func (t Task) Latency() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return t.StartedAt.Sub(t.CreatedAt)
}

// Duration is the run time of the last attempt of a finished task.
func (t Task) Duration() time.Duration {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.Sub(*t.StartedAt)
}

// ResultAs returns the task result converted to T.
func ResultAs[T any](t Task) (T, bool) {
	v, ok := t.Result.(T)
	return v, ok
}

// Stats holds task counters. Running is a live counter, the rest are derived from the task list.
type Stats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
	Total     int `json:"total"`
}
