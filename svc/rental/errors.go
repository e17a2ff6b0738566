package rental

import "errors"

var (
	ErrNoActiveRental   = errors.New("no active rental in task data")
	ErrMissingBikeID    = errors.New("rental bike id is required")
	ErrMissingStartTime = errors.New("rental start time is required")
	ErrNilScheduler     = errors.New("scheduler cannot be nil")
	ErrNilStorage       = errors.New("storage cannot be nil")
	ErrNilQueue         = errors.New("queue cannot be nil")
	ErrTrackerClosed    = errors.New("rental tracker is closed")
)
