package background

import (
	"context"

	"github.com/pedalpoint/taskcore/pkg/notifications"
)

// Notifier delivers user-visible notifications. *notifications.Manager implements it.
type Notifier interface {
	Send(ctx context.Context, notif notifications.Notification) error
}

// Configurer is implemented by notifiers that need one-time setup during Init.
type Configurer interface {
	Configure(ctx context.Context) error
}
