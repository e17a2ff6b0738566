// Command taskcored runs the task queue, the background task manager and the
// rental timer behind an HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/pedalpoint/taskcore/pkg/httpserver"
	"github.com/pedalpoint/taskcore/pkg/logger"
	"github.com/pedalpoint/taskcore/svc/api"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("taskcored stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfigs()
	if err != nil {
		return err
	}

	log, err := logger.NewFromConfig(cfg.log, logger.WithContextValue("request_id", middleware.RequestIDKey))
	if err != nil {
		return err
	}
	logger.SetAsDefault(log)

	store, err := openStorage(ctx, cfg.app.StorageDriver, log)
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := store.close(cctx); err != nil {
			log.Error("close storage", logger.Error(err))
		}
	}()

	a, err := newApp(cfg, log, store)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpserver.NewFromConfig(cfg.http, httpserver.WithLogger(log.With(logger.Component("http"))))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, api.NewRouter(a.deps)) })
	g.Go(a.manager.Run(gctx))
	g.Go(a.queue.Run(gctx, cfg.queue.ShutdownTimeout))

	log.Info("taskcored started",
		slog.String("addr", cfg.http.Addr),
		slog.String("storage", cfg.app.StorageDriver),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("taskcored stopped")
	return nil
}
