package redis_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedalpoint/taskcore/pkg/background"
	"github.com/pedalpoint/taskcore/pkg/logger"
	"github.com/pedalpoint/taskcore/pkg/redis"
)

var _ background.Storage = (*redis.Storage)(nil)

func setup(t *testing.T, opts ...redis.StorageOption) (*miniredis.Miniredis, *redis.Storage) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return srv, redis.NewStorage(client, opts...)
}

func TestStorage_GetSetRemove(t *testing.T) {
	t.Parallel()

	srv, store := setup(t)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "background_tasks")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "background_tasks", `[]`))

	val, found, err := store.Get(ctx, "background_tasks")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, val)

	raw, err := srv.Get("taskcore:background_tasks")
	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)

	require.NoError(t, store.Remove(ctx, "background_tasks"))
	require.NoError(t, store.Remove(ctx, "background_tasks"))
	assert.False(t, srv.Exists("taskcore:background_tasks"))

	t.Run("empty value is stored", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "blank", ""))
		val, found, err := store.Get(ctx, "blank")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Empty(t, val)
	})

	t.Run("empty key", func(t *testing.T) {
		_, _, err := store.Get(ctx, "")
		assert.ErrorIs(t, err, redis.ErrEmptyKey)
		assert.ErrorIs(t, store.Set(ctx, "", "v"), redis.ErrEmptyKey)
		assert.ErrorIs(t, store.Remove(ctx, ""), redis.ErrEmptyKey)
	})
}

func TestStorage_TTL(t *testing.T) {
	t.Parallel()

	srv, store := setup(t, redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "last_foreground_time", "1700000000000"))
	assert.Equal(t, time.Minute, srv.TTL("taskcore:last_foreground_time"))

	srv.FastForward(2 * time.Minute)

	_, found, err := store.Get(ctx, "last_foreground_time")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStorage_KeysAndReset(t *testing.T) {
	t.Parallel()

	srv, store := setup(t, redis.WithKeyPrefix("fleet-a:"), redis.WithScanBatchSize(1))
	ctx := context.Background()

	require.NoError(t, srv.Set("other:key", "keep"))
	require.NoError(t, store.Set(ctx, "background_tasks", "[]"))
	require.NoError(t, store.Set(ctx, "last_foreground_time", "1"))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"background_tasks", "last_foreground_time"}, keys)

	require.NoError(t, store.Reset(ctx))

	keys, err = store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.True(t, srv.Exists("other:key"))
}

func TestStorage_WithManager(t *testing.T) {
	t.Parallel()

	_, store := setup(t)
	ctx := context.Background()

	first, err := background.NewManager(store, background.WithLogger(logger.Discard()))
	require.NoError(t, err)
	require.NoError(t, first.Init(ctx))

	id, err := first.ScheduleTask(ctx, background.TaskTypeLocationTracking, map[string]any{"bikeId": "B-3"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := background.NewManager(store, background.WithLogger(logger.Discard()))
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.Init(ctx))

	task, ok := second.GetTask(id)
	require.True(t, ok)
	assert.Equal(t, background.StatusScheduled, task.Status)
	assert.Equal(t, "B-3", task.Data["bikeId"])
}

func TestConnect(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)

	t.Run("success", func(t *testing.T) {
		client, err := redis.Connect(context.Background(), redis.Config{
			ConnectionURL:  "redis://" + srv.Addr() + "/0",
			RetryAttempts:  3,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: time.Second,
		})
		require.NoError(t, err)
		defer client.Close()

		assert.NoError(t, redis.Healthcheck(client)(context.Background()))
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := redis.Connect(context.Background(), redis.Config{ConnectionURL: "http://nope"})
		assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
	})

	t.Run("empty url", func(t *testing.T) {
		_, err := redis.Connect(context.Background(), redis.Config{})
		assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("unreachable", func(t *testing.T) {
		_, err := redis.Connect(context.Background(), redis.Config{
			ConnectionURL:  "redis://127.0.0.1:1/0",
			RetryAttempts:  2,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: time.Second,
		})
		assert.ErrorIs(t, err, redis.ErrRedisNotReady)
	})
}

func TestHealthcheck_Failure(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	defer client.Close()

	srv.Close()
	assert.ErrorIs(t, redis.Healthcheck(client)(context.Background()), redis.ErrHealthcheckFailed)
}
