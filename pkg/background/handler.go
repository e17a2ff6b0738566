package background

import "context"

// Handler performs the work of one task type.
// A nil error completes the task and a non-nil result is stored under Data["result"].
// A returned error fails the task.
type Handler interface {
	Handle(ctx context.Context, task Task) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, task Task) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, task Task) (any, error) {
	return f(ctx, task)
}
