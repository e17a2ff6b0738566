package rental_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pedalpoint/taskcore/svc/rental"
)

func TestCost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		duration time.Duration
		want     int
	}{
		{"not started", 0, 20},
		{"negative", -time.Hour, 20},
		{"under a minute", 45 * time.Second, 20},
		{"under an hour", 59*time.Minute + 59*time.Second, 20},
		{"exactly an hour", time.Hour, 20},
		{"one minute over", time.Hour + time.Minute, 40},
		{"seconds over an hour are ignored", time.Hour + 59*time.Second, 20},
		{"two hours", 2 * time.Hour, 40},
		{"two hours and one minute", 2*time.Hour + time.Minute, 60},
		{"full day", 24 * time.Hour, 480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, rental.Cost(tt.duration))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "00:00:00", rental.FormatDuration(0))
	assert.Equal(t, "00:00:00", rental.FormatDuration(-time.Minute))
	assert.Equal(t, "00:00:59", rental.FormatDuration(59*time.Second+900*time.Millisecond))
	assert.Equal(t, "01:02:03", rental.FormatDuration(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "27:00:05", rental.FormatDuration(27*time.Hour+5*time.Second))
}

func TestFormatCost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "₱40", rental.FormatCost(40))
}

func TestActiveRental_Validate(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	assert.NoError(t, rental.ActiveRental{BikeID: "B-1", StartTime: start}.Validate())
	assert.ErrorIs(t, rental.ActiveRental{StartTime: start}.Validate(), rental.ErrMissingBikeID)
	assert.ErrorIs(t, rental.ActiveRental{BikeID: "B-1"}.Validate(), rental.ErrMissingStartTime)

	r := rental.ActiveRental{BikeID: "B-1", StartTime: start}
	assert.Equal(t, 90*time.Minute, r.Elapsed(start.Add(90*time.Minute)))
	assert.Zero(t, r.Elapsed(start.Add(-time.Minute)))
}
