package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedalpoint/taskcore/pkg/background"
	"github.com/pedalpoint/taskcore/pkg/logger"
	"github.com/pedalpoint/taskcore/pkg/notifications"
	"github.com/pedalpoint/taskcore/pkg/queue"
	"github.com/pedalpoint/taskcore/svc/rental"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Split(strings.TrimSpace(b.buf.String()), "\n")
}

func testConfigs() configs {
	return configs{
		app: appConfig{StorageDriver: driverMemory, TrackRentals: true},
		queue: queue.Config{
			Concurrency:  2,
			MaxRetries:   1,
			RetryDelay:   time.Millisecond,
			HistoryLimit: 100,
		},
		background: background.Config{
			TickInterval:  time.Hour,
			CleanupAge:    24 * time.Hour,
			MaxAttempts:   1,
			TasksKey:      "background_tasks",
			ForegroundKey: "last_foreground_time",
		},
		notifications: notifications.Config{Platform: "server", InboxSize: 10},
	}
}

func TestNewApp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	out := &syncBuffer{}
	log := logger.New(logger.WithOutput(out), logger.WithLevel(slog.LevelDebug))

	store, err := openStorage(ctx, driverMemory, log)
	require.NoError(t, err)

	a, err := newApp(testConfigs(), log, store)
	require.NoError(t, err)
	t.Cleanup(func() {
		sctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		_ = a.queue.Shutdown(sctx)
		_ = a.manager.Close()
		a.close()
	})

	require.NotNil(t, a.deps.Tracker)
	require.NotNil(t, a.deps.Operations)
	require.NoError(t, a.manager.Init(ctx))

	id, err := a.queue.Enqueue(func(context.Context) (any, error) { return "ok", nil })
	require.NoError(t, err)
	_, err = a.queue.Wait(ctx, id)
	require.NoError(t, err)

	timerID, err := a.tracker.EnsureScheduled(ctx, rental.ActiveRental{
		BikeID:    "B-1",
		StartTime: time.Now().Add(-90 * time.Minute),
	})
	require.NoError(t, err)
	require.NotEmpty(t, timerID)

	t.Run("component is tagged once per record", func(t *testing.T) {
		seen := map[string]bool{}
		for _, line := range out.Lines() {
			assert.LessOrEqual(t, strings.Count(line, `"component"`), 1, line)
			for _, c := range []string{"queue", "background", "rental"} {
				if strings.Contains(line, `"component":"`+c+`"`) {
					seen[c] = true
				}
			}
		}
		assert.True(t, seen["queue"])
		assert.True(t, seen["background"])
		assert.True(t, seen["rental"])
	})
}

func TestNewApp_WithoutRentalTracking(t *testing.T) {
	t.Parallel()

	log := logger.Discard()
	store, err := openStorage(context.Background(), driverMemory, log)
	require.NoError(t, err)

	cfg := testConfigs()
	cfg.app.TrackRentals = false

	a, err := newApp(cfg, log, store)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.manager.Close()
		a.close()
	})

	assert.Nil(t, a.deps.Tracker)
	assert.Nil(t, a.deps.Operations)
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := openStorage(context.Background(), "sqlite", logger.Discard())
	assert.ErrorContains(t, err, `unknown storage driver "sqlite"`)
}
