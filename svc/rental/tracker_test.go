package rental_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedalpoint/taskcore/pkg/background"
	"github.com/pedalpoint/taskcore/pkg/logger"
	"github.com/pedalpoint/taskcore/pkg/notifications"
	"github.com/pedalpoint/taskcore/svc/rental"
)

// fakeScheduler records scheduled tasks without running them.
type fakeScheduler struct {
	mu       sync.Mutex
	tasks    []background.Task
	handlers map[background.TaskType]background.Handler
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{handlers: make(map[background.TaskType]background.Handler)}
}

func (s *fakeScheduler) RegisterTaskHandler(taskType background.TaskType, h background.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[taskType] = h
	return nil
}

func (s *fakeScheduler) ScheduleTask(_ context.Context, taskType background.TaskType, data map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "task-" + string(rune('a'+len(s.tasks)))
	s.tasks = append(s.tasks, background.Task{ID: id, Type: taskType, Status: background.StatusScheduled, Data: data})
	return id, nil
}

func (s *fakeScheduler) GetTasksByType(taskType background.TaskType) []background.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []background.Task
	for _, task := range s.tasks {
		if task.Type == taskType {
			out = append(out, task)
		}
	}
	return out
}

func (s *fakeScheduler) SendNotification(context.Context, string, string, map[string]any) {}

func (s *fakeScheduler) finishAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		s.tasks[i].Status = background.StatusCompleted
	}
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

var bike = rental.ActiveRental{
	BikeID:      "B-12",
	BikeName:    "Trek FX 2",
	StationID:   "S-1",
	StartTime:   now.Add(-61 * time.Minute),
	CurrentCost: 20,
}

func TestNewTracker(t *testing.T) {
	t.Parallel()

	_, err := rental.NewTracker(nil, background.NewMemoryStorage())
	assert.ErrorIs(t, err, rental.ErrNilScheduler)

	_, err = rental.NewTracker(newFakeScheduler(), nil)
	assert.ErrorIs(t, err, rental.ErrNilStorage)

	scheduler := newFakeScheduler()
	_, err = rental.NewTracker(scheduler, background.NewMemoryStorage())
	require.NoError(t, err)
	assert.Contains(t, scheduler.handlers, background.TaskTypeRentalTimer)
}

func TestTracker_EnsureScheduled(t *testing.T) {
	t.Parallel()

	scheduler := newFakeScheduler()
	tracker, err := rental.NewTracker(scheduler, background.NewMemoryStorage(),
		rental.WithTrackerLogger(logger.Discard()), rental.WithTrackerClock(clock))
	require.NoError(t, err)

	id, err := tracker.EnsureScheduled(context.Background(), bike)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	again, err := tracker.EnsureScheduled(context.Background(), bike)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, 1, scheduler.count())

	task := scheduler.GetTasksByType(background.TaskTypeRentalTimer)[0]
	assert.Equal(t, bike, task.Data["rental"])
	assert.Equal(t, now.Format(time.RFC3339Nano), task.Data["scheduledAt"])

	scheduler.finishAll()
	id, err = tracker.EnsureScheduled(context.Background(), bike)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 2, scheduler.count())

	_, err = tracker.EnsureScheduled(context.Background(), rental.ActiveRental{})
	assert.ErrorIs(t, err, rental.ErrMissingBikeID)
}

func TestTracker_StartStop(t *testing.T) {
	t.Parallel()

	scheduler := newFakeScheduler()
	tracker, err := rental.NewTracker(scheduler, background.NewMemoryStorage(),
		rental.WithTrackerLogger(logger.Discard()), rental.WithInterval(5*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, tracker.Start(bike))
	active, ok := tracker.Active()
	require.True(t, ok)
	assert.Equal(t, "B-12", active.BikeID)

	require.Eventually(t, func() bool { return scheduler.count() == 1 }, time.Second, time.Millisecond)

	scheduler.finishAll()
	require.Eventually(t, func() bool { return scheduler.count() == 2 }, time.Second, time.Millisecond)

	tracker.Stop()
	_, ok = tracker.Active()
	assert.False(t, ok)

	require.NoError(t, tracker.Close())
	scheduler.finishAll()
	settled := scheduler.count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, scheduler.count())

	assert.ErrorIs(t, tracker.Start(bike), rental.ErrTrackerClosed)
}

func TestTracker_Track(t *testing.T) {
	t.Parallel()

	scheduler := newFakeScheduler()
	tracker, err := rental.NewTracker(scheduler, background.NewMemoryStorage(),
		rental.WithTrackerLogger(logger.Discard()), rental.WithInterval(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tracker.Track(ctx, bike) }()

	require.Eventually(t, func() bool { return scheduler.count() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)

	assert.ErrorIs(t, tracker.Track(context.Background(), rental.ActiveRental{BikeID: "B-1"}), rental.ErrMissingStartTime)
}

func TestTracker_WithManager(t *testing.T) {
	t.Parallel()

	storage := background.NewMemoryStorage()
	inbox := notifications.NewManager(nil, notifications.WithManagerLogger(logger.Discard()))

	manager, err := background.NewManager(storage,
		background.WithLogger(logger.Discard()),
		background.WithNotifier(inbox),
		background.WithTickInterval(time.Hour),
	)
	require.NoError(t, err)
	defer manager.Close()
	require.NoError(t, manager.Init(context.Background()))

	tracker, err := rental.NewTracker(manager, storage,
		rental.WithTrackerLogger(logger.Discard()), rental.WithTrackerClock(clock))
	require.NoError(t, err)
	defer tracker.Close()

	_, found, err := tracker.LastProcessedTime(context.Background())
	require.NoError(t, err)
	assert.False(t, found)

	id, err := tracker.EnsureScheduled(context.Background(), bike)
	require.NoError(t, err)

	var task background.Task
	require.Eventually(t, func() bool {
		task, _ = manager.GetTask(id)
		return task.Status == background.StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, rental.TimerResult{Cost: 40, Duration: "01:01:00", ProcessedAt: now}, task.Data["result"])

	last, found, err := tracker.LastProcessedTime(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, last.Equal(now))

	list := inbox.List(0)
	require.Len(t, list, 1)
	assert.Equal(t, "Bike Rental Update", list[0].Title)
	assert.Equal(t, "Your rental has been running for 01:01:00. Current cost: ₱40", list[0].Body)

	next, err := tracker.EnsureScheduled(context.Background(), bike)
	require.NoError(t, err)
	assert.NotEmpty(t, next)
}
