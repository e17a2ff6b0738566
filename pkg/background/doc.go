// Package background keeps a durable registry of typed background tasks and
// runs them with handlers registered per TaskType.
//
// Every change to the task map is written to a key-value Storage as one JSON
// document, so scheduled work survives restarts. Persistence failures are
// logged and never surface to callers; the in-memory map stays authoritative.
//
// # Processing
//
// A processing pass visits every scheduled or running task in scheduling
// order. Passes run on a fixed tick (15 seconds by default), right after a task
// is scheduled for a type that already has a handler, and whenever the
// application returns to the foreground. Passes never overlap.
//
// A task whose type has no handler fails with "no handler registered for task
// type: <TYPE>". A handler error fails the task unless WithMaxAttempts allows
// another attempt on a later pass. Cancelling a running task does not
// interrupt its handler; the outcome is discarded.
//
// # Usage
//
//	m, err := background.NewManager(store,
//	    background.WithLifecycle(emitter),
//	    background.WithNotifier(notifier),
//	)
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	m.RegisterTaskHandler(background.TaskTypeRentalTimer, rental.NewTimerHandler(m))
//	if err := m.Init(ctx); err != nil {
//	    return err
//	}
//
//	id, err := m.ScheduleTask(ctx, background.TaskTypeRentalTimer, map[string]any{"rentalId": "r-1"})
package background
