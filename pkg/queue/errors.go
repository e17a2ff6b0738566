package queue

import "errors"

// Common errors
var (
	// ErrNilFunc is returned when attempting to enqueue a nil function
	ErrNilFunc = errors.New("task function cannot be nil")

	// ErrInvalidPriority is returned when priority is not one of the declared classes
	ErrInvalidPriority = errors.New("priority must be high, normal or low")

	// ErrQueueClosed is returned when enqueueing into a queue that has been shut down
	ErrQueueClosed = errors.New("queue is closed")

	// ErrTaskNotFound is returned when a task id is unknown or was evicted
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskPanicked wraps a panic recovered from a task function
	ErrTaskPanicked = errors.New("task panicked")
)
