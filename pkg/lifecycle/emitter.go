package lifecycle

import (
	"context"
	"sync"
)

// Source delivers lifecycle transitions to subscribers.
type Source interface {
	// Subscribe returns a channel receiving every state change until ctx is done.
	Subscribe(ctx context.Context) <-chan State
}

type subscriber struct {
	ch     chan State
	closed bool
}

// Emitter is an in-memory Source. Slow subscribers miss transitions instead of blocking Emit.
// All methods are safe for concurrent use.
type Emitter struct {
	mu          sync.RWMutex
	current     State
	subscribers map[*subscriber]struct{}
	bufferSize  int
	closed      bool
	done        chan struct{}
	cleanupWg   sync.WaitGroup
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithBufferSize sets the per-subscriber channel buffer. Minimum is 1.
func WithBufferSize(n int) EmitterOption {
	return func(e *Emitter) {
		e.bufferSize = max(n, 1)
	}
}

// WithInitialState sets the state reported by Current before the first Emit.
func WithInitialState(s State) EmitterOption {
	return func(e *Emitter) {
		if s.Valid() {
			e.current = s
		}
	}
}

// NewEmitter creates an emitter in the active state.
func NewEmitter(opts ...EmitterOption) *Emitter {
	e := &Emitter{
		current:     StateActive,
		subscribers: make(map[*subscriber]struct{}),
		bufferSize:  16,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers a subscriber. The channel is closed when ctx is done or the emitter is closed.
func (e *Emitter) Subscribe(ctx context.Context) <-chan State {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub := &subscriber{ch: make(chan State, e.bufferSize)}
	if e.closed {
		close(sub.ch)
		return sub.ch
	}
	e.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		e.cleanupWg.Add(1)
		go func() {
			defer e.cleanupWg.Done()
			select {
			case <-ctx.Done():
				e.unsubscribe(sub)
			case <-e.done:
			}
		}()
	}

	return sub.ch
}

// Emit records the new state and delivers it to subscribers when it differs from the current one.
func (e *Emitter) Emit(_ context.Context, s State) error {
	if !s.Valid() {
		return ErrInvalidState
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEmitterClosed
	}
	if e.current == s {
		return nil
	}
	e.current = s

	for sub := range e.subscribers {
		select {
		case sub.ch <- s:
		default:
		}
	}
	return nil
}

// Current returns the last emitted state.
func (e *Emitter) Current() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Close closes every subscriber channel. It is safe to call Close multiple times.
func (e *Emitter) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.done)

	for sub := range e.subscribers {
		sub.close()
	}
	clear(e.subscribers)
	e.mu.Unlock()

	e.cleanupWg.Wait()
	return nil
}

func (e *Emitter) unsubscribe(sub *subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.subscribers, sub)
	sub.close()
}

// close must be called with Emitter.mu held.
func (s *subscriber) close() {
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
}
