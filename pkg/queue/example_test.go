package queue_test

import (
	"context"
	"fmt"

	"github.com/pedalpoint/taskcore/pkg/logger"
	"github.com/pedalpoint/taskcore/pkg/queue"
)

func ExampleQueue_Enqueue() {
	q := queue.New(queue.WithConcurrency(1), queue.WithLogger(logger.Discard()))
	defer q.Shutdown(context.Background())

	id, err := q.Enqueue(func(ctx context.Context) (any, error) {
		return 40, nil
	}, queue.WithPriority(queue.PriorityHigh), queue.WithName("compute fare"))
	if err != nil {
		fmt.Println(err)
		return
	}

	task, err := q.Wait(context.Background(), id)
	if err != nil {
		fmt.Println(err)
		return
	}

	fare, _ := queue.ResultAs[int](task)
	fmt.Println(task.Status, fare)
	// Output: completed 40
}

func ExampleQueue_AddListener() {
	q := queue.New(queue.WithLogger(logger.Discard()))
	defer q.Shutdown(context.Background())

	done := make(chan struct{})
	q.AddListener("printer", func(task queue.Task) {
		if task.Status.IsTerminal() {
			fmt.Println(task.Name, task.Status)
			close(done)
		}
	})

	_, _ = q.Enqueue(func(ctx context.Context) (any, error) {
		return nil, nil
	}, queue.WithName("process booking"))

	<-done
	// Output: process booking completed
}
