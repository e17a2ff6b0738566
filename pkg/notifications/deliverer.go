package notifications

import (
	"context"
	"log/slog"

	"github.com/pedalpoint/taskcore/pkg/logger"
)

// Deliverer hands a notification to a delivery channel.
type Deliverer interface {
	Deliver(ctx context.Context, notif Notification) error
}

// DelivererFunc adapts a function to the Deliverer interface.
type DelivererFunc func(ctx context.Context, notif Notification) error

func (f DelivererFunc) Deliver(ctx context.Context, notif Notification) error {
	return f(ctx, notif)
}

// MultiDeliverer combines multiple delivery channels.
type MultiDeliverer struct {
	deliverers []Deliverer
	logger     *slog.Logger
}

// MultiDelivererOption configures a MultiDeliverer.
type MultiDelivererOption func(*MultiDeliverer)

// WithMultiDelivererLogger sets the logger for the MultiDeliverer.
func WithMultiDelivererLogger(logger *slog.Logger) MultiDelivererOption {
	return func(m *MultiDeliverer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMultiDeliverer creates a new multi-channel deliverer. Nil deliverers are skipped.
func NewMultiDeliverer(deliverers []Deliverer, opts ...MultiDelivererOption) *MultiDeliverer {
	m := &MultiDeliverer{
		logger: slog.Default(),
	}
	for _, d := range deliverers {
		if d != nil {
			m.deliverers = append(m.deliverers, d)
		}
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Deliver sends notification through all configured channels.
// A failing channel is logged and does not stop the others.
func (m *MultiDeliverer) Deliver(ctx context.Context, notif Notification) error {
	for i, d := range m.deliverers {
		if err := d.Deliver(ctx, notif); err != nil {
			m.logger.LogAttrs(ctx, slog.LevelError, "failed to deliver notification",
				slog.String("notification_id", notif.ID),
				slog.Int("deliverer_index", i),
				logger.Error(err),
			)
		}
	}
	return nil
}

// NoOpDeliverer is a deliverer that does nothing.
type NoOpDeliverer struct{}

// Deliver does nothing and returns nil.
func (NoOpDeliverer) Deliver(context.Context, Notification) error {
	return nil
}

// LogDeliverer writes every notification to a logger.
type LogDeliverer struct {
	logger *slog.Logger
}

// NewLogDeliverer creates a deliverer that logs notifications at info level.
func NewLogDeliverer(log *slog.Logger) *LogDeliverer {
	if log == nil {
		log = slog.Default()
	}
	return &LogDeliverer{logger: log}
}

func (d *LogDeliverer) Deliver(ctx context.Context, notif Notification) error {
	d.logger.LogAttrs(ctx, slog.LevelInfo, "notification",
		slog.String("notification_id", notif.ID),
		slog.String("title", notif.Title),
		slog.String("body", notif.Body),
		slog.Any("data", notif.Data),
	)
	return nil
}
