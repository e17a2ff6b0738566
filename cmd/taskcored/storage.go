package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pedalpoint/taskcore/pkg/background"
	"github.com/pedalpoint/taskcore/pkg/config"
	"github.com/pedalpoint/taskcore/pkg/httpserver"
	"github.com/pedalpoint/taskcore/pkg/logger"
	"github.com/pedalpoint/taskcore/pkg/mongo"
	"github.com/pedalpoint/taskcore/pkg/pg"
	"github.com/pedalpoint/taskcore/pkg/redis"
)

// backend is the selected key-value store plus its readiness check and teardown.
type backend struct {
	storage background.Storage
	checks  map[string]httpserver.Check
	close   func(context.Context) error
}

func openStorage(ctx context.Context, driver string, log *slog.Logger) (*backend, error) {
	switch driver {
	case driverMemory, "":
		return &backend{
			storage: background.NewMemoryStorage(),
			checks:  map[string]httpserver.Check{},
			close:   func(context.Context) error { return nil },
		}, nil

	case driverRedis:
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s := redis.NewStorageWithConfig(client, cfg)
		return &backend{
			storage: s,
			checks:  map[string]httpserver.Check{"redis": redis.Healthcheck(client)},
			close:   func(context.Context) error { return s.Close() },
		}, nil

	case driverPostgres:
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, cfg, log.With(logger.Component("migrations"))); err != nil {
			pool.Close()
			return nil, err
		}
		return &backend{
			storage: pg.NewStorage(pool),
			checks:  map[string]httpserver.Check{"postgres": pg.Healthcheck(pool)},
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case driverMongo:
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		s, client, err := mongo.NewStorageFromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &backend{
			storage: s,
			checks:  map[string]httpserver.Check{"mongo": mongo.Healthcheck(client)},
			close:   client.Disconnect,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", driver)
}
