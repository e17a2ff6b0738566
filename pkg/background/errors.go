package background

import "errors"

// Common errors
var (
	// ErrStorageNil is returned when a nil storage is provided
	ErrStorageNil = errors.New("storage cannot be nil")

	// ErrManagerClosed is returned after Close has been called
	ErrManagerClosed = errors.New("background task manager is closed")

	// ErrEmptyTaskType is returned when a task type is empty
	ErrEmptyTaskType = errors.New("task type cannot be empty")

	// ErrNilHandler is returned when registering a nil handler
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrNoHandler is recorded on tasks whose type has no registered handler
	ErrNoHandler = errors.New("no handler registered for task type")

	// ErrHandlerPanicked wraps a panic recovered from a handler
	ErrHandlerPanicked = errors.New("handler panicked")

	// ErrTaskNotFound is reported for lookups of unknown task ids
	ErrTaskNotFound = errors.New("background task not found")

	// ErrCorruptState is returned when persisted tasks cannot be decoded
	ErrCorruptState = errors.New("persisted task state is corrupt")
)
