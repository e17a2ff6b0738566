package lifecycle

import "errors"

var (
	ErrInvalidState  = errors.New("invalid lifecycle state: must be active, inactive or background")
	ErrEmitterClosed = errors.New("lifecycle emitter is closed")
)
