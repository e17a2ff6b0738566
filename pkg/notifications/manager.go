package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pedalpoint/taskcore/pkg/logger"
)

// Manager records and delivers immediate notifications.
type Manager struct {
	deliverer    Deliverer
	inbox        *Inbox
	platform     Platform
	presentation Presentation
	logger       *slog.Logger
	now          func() time.Time

	configureOnce sync.Once
	configured    bool
	mu            sync.RWMutex
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithPlatform sets the platform. Sending is a no-op on PlatformWeb.
func WithPlatform(p Platform) ManagerOption {
	return func(m *Manager) {
		if p.Valid() {
			m.platform = p
		}
	}
}

// WithPresentation overrides DefaultPresentation.
func WithPresentation(p Presentation) ManagerOption {
	return func(m *Manager) {
		m.presentation = p
	}
}

// WithInbox replaces the default inbox.
func WithInbox(inbox *Inbox) ManagerOption {
	return func(m *Manager) {
		if inbox != nil {
			m.inbox = inbox
		}
	}
}

// WithManagerClock overrides the time source used for CreatedAt.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a new notification manager.
func NewManager(deliverer Deliverer, opts ...ManagerOption) *Manager {
	if deliverer == nil {
		deliverer = NoOpDeliverer{}
	}

	m := &Manager{
		deliverer:    deliverer,
		inbox:        NewInbox(100),
		platform:     PlatformServer,
		presentation: DefaultPresentation(),
		logger:       slog.Default(),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Configure applies the foreground presentation once. Later calls are no-ops.
func (m *Manager) Configure(ctx context.Context) error {
	m.configureOnce.Do(func() {
		m.mu.Lock()
		m.configured = true
		m.mu.Unlock()

		m.logger.LogAttrs(ctx, slog.LevelDebug, "notifications configured",
			slog.String("platform", string(m.platform)),
			slog.Bool("show_alert", m.presentation.ShowAlert),
			slog.Bool("play_sound", m.presentation.PlaySound),
			slog.Bool("set_badge", m.presentation.SetBadge),
		)
	})
	return nil
}

// Configured reports whether Configure has run.
func (m *Manager) Configured() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configured
}

// Send records the notification in the inbox and delivers it immediately.
// Delivery failures are returned; on PlatformWeb nothing happens.
func (m *Manager) Send(ctx context.Context, notif Notification) error {
	if notif.Title == "" && notif.Body == "" {
		return ErrEmptyNotification
	}

	if !m.platform.SupportsNotifications() {
		m.logger.LogAttrs(ctx, slog.LevelDebug, "notifications not supported on platform",
			slog.String("platform", string(m.platform)),
			slog.String("title", notif.Title),
		)
		return nil
	}

	if notif.ID == "" {
		notif.ID = uuid.NewString()
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = m.now()
	}

	m.inbox.Add(notif)

	if err := m.deliverer.Deliver(ctx, notif); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "failed to deliver notification",
			slog.String("notification_id", notif.ID),
			logger.Error(err),
		)
		return err
	}

	return nil
}

// List returns up to limit recent notifications, newest first.
func (m *Manager) List(limit int) []Notification {
	return m.inbox.List(limit)
}

// Platform returns the configured platform.
func (m *Manager) Platform() Platform {
	return m.platform
}

// Presentation returns the foreground presentation settings.
func (m *Manager) Presentation() Presentation {
	return m.presentation
}
