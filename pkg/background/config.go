package background

import "time"

// Config holds the configuration for the background task manager
type Config struct {
	TickInterval  time.Duration `env:"BACKGROUND_TICK_INTERVAL" envDefault:"15s"`
	CleanupAge    time.Duration `env:"BACKGROUND_CLEANUP_AGE" envDefault:"24h"`
	MaxAttempts   int           `env:"BACKGROUND_MAX_ATTEMPTS" envDefault:"1"`
	TasksKey      string        `env:"BACKGROUND_TASKS_KEY" envDefault:"background_tasks"`
	ForegroundKey string        `env:"BACKGROUND_FOREGROUND_KEY" envDefault:"last_foreground_time"`
}
