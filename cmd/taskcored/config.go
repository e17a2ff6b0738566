package main

import (
	"github.com/pedalpoint/taskcore/pkg/background"
	"github.com/pedalpoint/taskcore/pkg/config"
	"github.com/pedalpoint/taskcore/pkg/httpserver"
	"github.com/pedalpoint/taskcore/pkg/logger"
	"github.com/pedalpoint/taskcore/pkg/notifications"
	"github.com/pedalpoint/taskcore/pkg/queue"
)

const (
	driverMemory   = "memory"
	driverRedis    = "redis"
	driverPostgres = "postgres"
	driverMongo    = "mongo"
)

type appConfig struct {
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"`
	TrackRentals  bool   `env:"RENTAL_TRACKING_ENABLED" envDefault:"true"`
}

type configs struct {
	app           appConfig
	log           logger.Config
	http          httpserver.Config
	queue         queue.Config
	background    background.Config
	notifications notifications.Config
}

func loadConfigs() (configs, error) {
	var c configs
	if err := config.Load(&c.app); err != nil {
		return c, err
	}
	if err := config.Load(&c.log); err != nil {
		return c, err
	}
	if err := config.Load(&c.http); err != nil {
		return c, err
	}
	if err := config.Load(&c.queue); err != nil {
		return c, err
	}
	if err := config.Load(&c.background); err != nil {
		return c, err
	}
	if err := config.Load(&c.notifications); err != nil {
		return c, err
	}
	return c, nil
}
