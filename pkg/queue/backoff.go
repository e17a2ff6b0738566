package queue

import "time"

// BackoffFunc returns the delay before the given retry attempt (1-based).
type BackoffFunc func(retry int) time.Duration

// FixedBackoff waits the same delay before every retry.
func FixedBackoff(delay time.Duration) BackoffFunc {
	if delay < 0 {
		delay = 0
	}
	return func(int) time.Duration {
		return delay
	}
}

// LinearBackoff grows the delay by step per retry, capped at limit when limit > 0.
func LinearBackoff(step, limit time.Duration) BackoffFunc {
	return func(retry int) time.Duration {
		if retry < 1 {
			retry = 1
		}
		d := step * time.Duration(retry)
		if limit > 0 && d > limit {
			return limit
		}
		return d
	}
}
