package main

import (
	"log/slog"

	"github.com/pedalpoint/taskcore/pkg/background"
	"github.com/pedalpoint/taskcore/pkg/lifecycle"
	"github.com/pedalpoint/taskcore/pkg/logger"
	"github.com/pedalpoint/taskcore/pkg/notifications"
	"github.com/pedalpoint/taskcore/pkg/queue"
	"github.com/pedalpoint/taskcore/svc/api"
	"github.com/pedalpoint/taskcore/svc/rental"
)

// app holds the long-lived components served by taskcored.
type app struct {
	queue   *queue.Queue
	manager *background.Manager
	emitter *lifecycle.Emitter
	tracker *rental.Tracker
	deps    api.Deps
	closers []func()
}

// newApp builds the components on top of store. Packages that tag their own
// component attribute get the plain logger.
func newApp(cfg configs, log *slog.Logger, store *backend) (*app, error) {
	notifier, err := newNotifier(cfg.notifications, log)
	if err != nil {
		return nil, err
	}

	a := &app{emitter: lifecycle.NewEmitter()}
	a.closers = append(a.closers, func() { _ = a.emitter.Close() })

	a.queue = queue.New(
		queue.WithConfig(cfg.queue),
		queue.WithLogger(log),
	)

	a.manager, err = background.NewManager(store.storage,
		background.WithConfig(cfg.background),
		background.WithLifecycle(a.emitter),
		background.WithNotifier(notifier),
		background.WithLogger(log),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	a.deps = api.Deps{
		Queue:   a.queue,
		Manager: a.manager,
		Emitter: a.emitter,
		Inbox:   notifier,
		Checks:  store.checks,
		Logger:  log,
	}

	if cfg.app.TrackRentals {
		a.tracker, err = rental.NewTracker(a.manager, store.storage, rental.WithTrackerLogger(log))
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = a.tracker.Close() })

		ops, err := rental.NewOperations(a.queue, rental.WithOperationsLogger(log.With(logger.Component("operations"))))
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, ops.Close)

		a.deps.Tracker = a.tracker
		a.deps.Operations = ops
	}

	return a, nil
}

// close releases components in reverse creation order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// newNotifier always records and logs notifications; a Postmark copy is added
// when email settings are present.
func newNotifier(cfg notifications.Config, log *slog.Logger) (*notifications.Manager, error) {
	deliverers := []notifications.Deliverer{notifications.NewLogDeliverer(log.With(logger.Component("notifications")))}
	if cfg.EmailEnabled() {
		pd, err := notifications.NewPostmarkDeliverer(cfg)
		if err != nil {
			return nil, err
		}
		deliverers = append(deliverers, pd)
	}

	return notifications.NewManager(
		notifications.NewMultiDeliverer(deliverers, notifications.WithMultiDelivererLogger(log)),
		notifications.WithPlatform(notifications.Platform(cfg.Platform)),
		notifications.WithInbox(notifications.NewInbox(cfg.InboxSize)),
		notifications.WithManagerLogger(log.With(logger.Component("notifications"))),
	), nil
}
