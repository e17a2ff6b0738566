package rental

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/pedalpoint/taskcore/pkg/background"
	"github.com/pedalpoint/taskcore/pkg/logger"
)

// LastProcessedKey stores the unix-ms time of the last timer run.
const LastProcessedKey = "last_rental_processed_time"

const notificationTitle = "Bike Rental Update"

// Notifier sends an immediate user notification. *background.Manager implements it.
type Notifier interface {
	SendNotification(ctx context.Context, title, body string, data map[string]any)
}

// TimerResult is stored under the task's "result" data key.
type TimerResult struct {
	Cost        int       `json:"cost"`
	Duration    string    `json:"duration"`
	ProcessedAt time.Time `json:"processedAt"`
}

type timerPayload struct {
	Rental *ActiveRental `json:"rental"`
}

// TimerHandler handles RENTAL_TIMER tasks. Each run prices the rental carried in
// the task data and notifies the rider when the price went up.
type TimerHandler struct {
	notifier Notifier
	storage  background.Storage
	logger   *slog.Logger
	now      func() time.Time
}

// NewTimerHandler creates the RENTAL_TIMER handler.
func NewTimerHandler(notifier Notifier, storage background.Storage, log *slog.Logger, now func() time.Time) *TimerHandler {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &TimerHandler{
		notifier: notifier,
		storage:  storage,
		logger:   log,
		now:      now,
	}
}

// Handle implements background.Handler.
func (h *TimerHandler) Handle(ctx context.Context, task background.Task) (any, error) {
	var payload timerPayload
	if err := task.DecodeData(&payload); err != nil {
		return nil, fmt.Errorf("decode rental timer data: %w", err)
	}
	if payload.Rental == nil {
		return nil, ErrNoActiveRental
	}
	r := *payload.Rental
	if err := r.Validate(); err != nil {
		return nil, err
	}

	now := h.now()
	elapsed := r.Elapsed(now)
	cost := Cost(elapsed)
	duration := FormatDuration(elapsed)

	if cost > r.CurrentCost && h.notifier != nil {
		h.notifier.SendNotification(ctx, notificationTitle,
			fmt.Sprintf("Your rental has been running for %s. Current cost: %s", duration, FormatCost(cost)),
			map[string]any{
				"bikeId": r.BikeID,
				"cost":   cost,
			})
	}

	if h.storage != nil {
		if err := h.storage.Set(ctx, LastProcessedKey, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
			return nil, fmt.Errorf("store last processed time: %w", err)
		}
	}

	h.logger.DebugContext(ctx, "rental timer processed",
		logger.TaskID(task.ID),
		slog.String("bike_id", r.BikeID),
		slog.Int("cost", cost),
		slog.String("duration", duration))

	return TimerResult{
		Cost:        cost,
		Duration:    duration,
		ProcessedAt: now,
	}, nil
}
