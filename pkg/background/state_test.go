package background

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTasks(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		tasks, err := decodeTasks("  ")
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("array keeps order", func(t *testing.T) {
		t.Parallel()

		raw, err := encodeTasks([]Task{
			{ID: "2", Type: TaskTypeDataSync, Status: StatusScheduled},
			{ID: "1", Type: TaskTypeDataSync, Status: StatusCompleted},
		})
		require.NoError(t, err)

		tasks, err := decodeTasks(raw)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "2", tasks[0].ID)
		assert.Equal(t, "1", tasks[1].ID)
	})

	t.Run("object sorted by creation time", func(t *testing.T) {
		t.Parallel()

		tasks, err := decodeTasks(`{
			"late": {"type": "DATA_SYNC", "status": "scheduled", "createdAt": "2025-01-02T00:00:00Z"},
			"early": {"type": "DATA_SYNC", "status": "failed", "createdAt": "2025-01-01T00:00:00Z"}
		}`)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "early", tasks[0].ID)
		assert.Equal(t, "late", tasks[1].ID)
	})

	t.Run("uppercase statuses and millisecond timestamps", func(t *testing.T) {
		t.Parallel()

		tasks, err := decodeTasks(`{
			"task_1_abc": {"id": "task_1_abc", "type": "RENTAL_TIMER", "status": "SCHEDULED", "createdAt": "2025-06-01T08:00:00.000Z", "updatedAt": "2025-06-01T08:00:00.000Z"},
			"task_0_xyz": {"id": "task_0_xyz", "type": "DATA_SYNC", "status": "Cancelled", "createdAt": "2025-05-31T08:00:00.000Z", "updatedAt": "2025-05-31T08:00:00.000Z"}
		}`)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "task_0_xyz", tasks[0].ID)
		assert.Equal(t, StatusCancelled, tasks[0].Status)
		assert.Equal(t, "task_1_abc", tasks[1].ID)
		assert.Equal(t, StatusScheduled, tasks[1].Status)
		assert.True(t, tasks[1].CreatedAt.Equal(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)))
	})

	t.Run("invalid entries skipped", func(t *testing.T) {
		t.Parallel()

		tasks, err := decodeTasks(`[{"id":"a","type":"DATA_SYNC","status":"done"},{"id":"","type":"DATA_SYNC","status":"scheduled"},{"id":"b","type":"DATA_SYNC","status":"running"}]`)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "b", tasks[0].ID)
	})

	t.Run("corrupt", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"nope", "[{", `{"a": 1}`} {
			_, err := decodeTasks(raw)
			assert.ErrorIs(t, err, ErrCorruptState, raw)
		}
	})
}

func TestEncodeTasks_Nil(t *testing.T) {
	t.Parallel()

	raw, err := encodeTasks(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestTimestamp(t *testing.T) {
	t.Parallel()

	at := time.UnixMilli(1718000000123)
	got, err := decodeTimestamp(encodeTimestamp(at))
	require.NoError(t, err)
	assert.True(t, at.Equal(got))

	_, err = decodeTimestamp("soon")
	assert.ErrorIs(t, err, ErrCorruptState)
}

func TestStatus(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusScheduled.IsActive())
	assert.True(t, StatusRunning.IsActive())
	assert.False(t, StatusRunning.IsTerminal())
	for _, s := range []Status{StatusCompleted, StatusFailed, StatusCancelled} {
		assert.True(t, s.IsTerminal(), s)
		assert.False(t, s.IsActive(), s)
	}
	assert.False(t, Status("paused").Valid())
}

func TestTask_DecodeData(t *testing.T) {
	t.Parallel()

	task := Task{Data: map[string]any{"bikeId": "B-1", "startTime": float64(1700000000000)}}

	var payload struct {
		BikeID    string `json:"bikeId"`
		StartTime int64  `json:"startTime"`
	}
	require.NoError(t, task.DecodeData(&payload))
	assert.Equal(t, "B-1", payload.BikeID)
	assert.Equal(t, int64(1700000000000), payload.StartTime)
}
