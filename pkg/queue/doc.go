// Package queue provides an in-process task queue that runs caller supplied
// functions with bounded concurrency, strict priority ordering, automatic
// retries and status change listeners.
//
// # Scheduling
//
// Tasks start in (priority, creation time) order: every PriorityHigh task
// starts before any PriorityNormal task, and tasks of the same class start in
// the order they were enqueued. Ordering applies to starts only; a slow high
// priority task may finish after a fast low priority one. A scheduling pass
// runs after every Enqueue, after every settled attempt, after Resume, and when
// a retry delay elapses.
//
// # Retries
//
// A failed attempt is retried while Retries < MaxRetries. The task goes back
// to StatusPending and becomes eligible again after the BackoffFunc delay
// (FixedBackoff by default). When the budget is spent the task ends in
// StatusFailed and Task.Err holds the error of the last attempt. Functions
// must be safe to run more than once.
//
// # Cancellation
//
// CancelTask only affects pending tasks. A running function is never
// interrupted; its context is cancelled only by Shutdown once the shutdown
// deadline has passed.
//
// # Listeners
//
// Listeners are called synchronously, outside the queue lock, for every
// transition after enqueue: start, completion, failure, cancellation and the
// move back to pending before a retry. They must not block and may call back
// into the queue.
//
// # Memory
//
// Finished tasks are kept for inspection until ClearCompletedTasks is called,
// or until they fall outside WithHistoryLimit or WithHistoryTTL.
//
// # Usage
//
//	q := queue.New(queue.WithConcurrency(2), queue.WithLogger(log))
//	defer q.Shutdown(context.Background())
//
//	id, err := q.Enqueue(func(ctx context.Context) (any, error) {
//	    return wallet.TopUp(ctx, userID, amount)
//	}, queue.WithPriority(queue.PriorityHigh), queue.WithName("top up"))
//	if err != nil {
//	    return err
//	}
//
//	task, err := q.Wait(ctx, id)
package queue
