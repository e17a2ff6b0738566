package background

import (
	"encoding/json"
	"maps"
	"strings"
	"time"
)

// TaskType names a kind of background work. Exactly one handler serves each type.
type TaskType string

const (
	TaskTypeRentalTimer      TaskType = "RENTAL_TIMER"
	TaskTypeLocationTracking TaskType = "LOCATION_TRACKING"
	TaskTypeDataSync         TaskType = "DATA_SYNC"
)

// Status represents the status of a background task
type Status string

const (
	StatusScheduled Status = "scheduled"
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
	case StatusScheduled, StatusRunning:
		return false
	default:
		return false
	}
}

// IsActive reports whether the task is still due for processing.
func (s Status) IsActive() bool {
	switch s {
	case StatusScheduled, StatusRunning:
		return true
	case StatusCompleted, StatusFailed, StatusCancelled:
		return false
	default:
		return false
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s.IsActive() || s.IsTerminal()
}

// UnmarshalText accepts statuses in any case, so state written as "SCHEDULED"
// loads as StatusScheduled. Unknown values are kept and rejected by Valid.
func (s *Status) UnmarshalText(text []byte) error {
	*s = Status(strings.ToLower(strings.TrimSpace(string(text))))
	return nil
}

// Task is a durable unit of domain work.
type Task struct {
	ID          string         `json:"id"`
	Type        TaskType       `json:"type"`
	Status      Status         `json:"status"`
	Data        map[string]any `json:"data,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	Error       string         `json:"error,omitempty"`
	Attempts    int            `json:"attempts,omitempty"`
}

// Clone returns a copy that shares no mutable state with t.
func (t Task) Clone() Task {
	c := t
	c.Data = maps.Clone(t.Data)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return c
}

// DecodeData unmarshals the task payload into v.
// Payloads restored from storage hold JSON-decoded values, so typed access goes through this.
func (t Task) DecodeData(v any) error {
	raw, err := json.Marshal(t.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
