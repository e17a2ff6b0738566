package queue

import "time"

// Config holds the configuration for the task queue
type Config struct {
	Concurrency     int           `env:"QUEUE_CONCURRENCY" envDefault:"3"`
	MaxRetries      int           `env:"QUEUE_MAX_RETRIES" envDefault:"3"`
	RetryDelay      time.Duration `env:"QUEUE_RETRY_DELAY" envDefault:"1s"`
	HistoryLimit    int           `env:"QUEUE_HISTORY_LIMIT" envDefault:"1000"`
	HistoryTTL      time.Duration `env:"QUEUE_HISTORY_TTL" envDefault:"0s"`
	ShutdownTimeout time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}
