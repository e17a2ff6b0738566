package notifications

import "errors"

var (
	// ErrEmptyNotification is returned when both title and body are empty.
	ErrEmptyNotification = errors.New("notification title or body is required")

	// ErrInvalidConfig is returned when a deliverer cannot be built from its configuration.
	ErrInvalidConfig = errors.New("invalid notification configuration")

	// ErrDeliveryFailed is returned by deliverers that could not hand off a notification.
	ErrDeliveryFailed = errors.New("notification delivery failed")
)
