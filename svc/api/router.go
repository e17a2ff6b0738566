package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pedalpoint/taskcore/pkg/background"
	"github.com/pedalpoint/taskcore/pkg/httpserver"
	"github.com/pedalpoint/taskcore/pkg/lifecycle"
	"github.com/pedalpoint/taskcore/pkg/notifications"
	"github.com/pedalpoint/taskcore/pkg/queue"
	"github.com/pedalpoint/taskcore/svc/rental"
)

// Inbox lists recently sent notifications. *notifications.Manager implements it.
type Inbox interface {
	List(limit int) []notifications.Notification
}

// Deps are the components exposed over HTTP. Queue, Manager and Emitter are required.
type Deps struct {
	Queue      *queue.Queue
	Operations *rental.Operations
	Manager    *background.Manager
	Emitter    *lifecycle.Emitter
	Tracker    *rental.Tracker
	Inbox      Inbox
	Checks     map[string]httpserver.Check
	Logger     *slog.Logger
}

type handler struct {
	Deps
}

// NewRouter builds the HTTP API.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &handler{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(d.Logger, d.Checks))

	r.Route("/queue", func(r chi.Router) {
		r.Get("/tasks", h.listQueueTasks)
		r.Get("/tasks/{id}", h.getQueueTask)
		r.Delete("/tasks/{id}", h.cancelQueueTask)
		r.Get("/stats", h.queueStats)
		r.Post("/pause", h.pauseQueue)
		r.Post("/resume", h.resumeQueue)
		r.Post("/clear", h.clearQueue)
	})

	r.Route("/background", func(r chi.Router) {
		r.Get("/tasks", h.listBackgroundTasks)
		r.Get("/tasks/{id}", h.getBackgroundTask)
		r.Delete("/tasks/{id}", h.cancelBackgroundTask)
		r.Post("/process", h.processBackground)
		r.Post("/cleanup", h.cleanupBackground)
	})

	r.Post("/lifecycle", h.setLifecycle)

	if d.Tracker != nil && d.Operations != nil {
		r.Route("/rentals/track", func(r chi.Router) {
			r.Post("/", h.startTracking)
			r.Get("/", h.trackingStatus)
			r.Delete("/", h.stopTracking)
		})
	}

	if d.Inbox != nil {
		r.Get("/notifications", h.listNotifications)
	}

	return r
}
