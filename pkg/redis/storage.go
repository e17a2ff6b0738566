package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage is a key-value store for background task state. All keys live under a
// common prefix so several deployments can share one database.
type Storage struct {
	db            redis.UniversalClient
	prefix        string
	ttl           time.Duration
	scanBatchSize int64
}

// StorageOption configures a Storage.
type StorageOption func(*Storage)

// WithKeyPrefix namespaces every key. Default is "taskcore:".
func WithKeyPrefix(prefix string) StorageOption {
	return func(s *Storage) {
		s.prefix = prefix
	}
}

// WithTTL expires values ttl after their last write. Zero keeps them forever.
func WithTTL(ttl time.Duration) StorageOption {
	return func(s *Storage) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithScanBatchSize sets the SCAN COUNT hint used by Keys and Reset.
func WithScanBatchSize(n int64) StorageOption {
	return func(s *Storage) {
		if n > 0 {
			s.scanBatchSize = n
		}
	}
}

// NewStorage wraps a go-redis client.
func NewStorage(client redis.UniversalClient, opts ...StorageOption) *Storage {
	s := &Storage{
		db:            client,
		prefix:        "taskcore:",
		scanBatchSize: 1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStorageWithConfig creates a Storage using the prefix and scan size from cfg.
func NewStorageWithConfig(client redis.UniversalClient, cfg Config) *Storage {
	return NewStorage(client, WithKeyPrefix(cfg.KeyPrefix), WithScanBatchSize(cfg.ScanBatchSize))
}

// Get returns found=false for missing keys (redis.Nil).
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}

	val, err := s.db.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.db.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

// Remove deletes a key. Missing keys are not an error.
func (s *Storage) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.db.Del(ctx, s.prefix+key).Err()
}

// Keys lists the stored keys without the prefix. SCAN is used to avoid blocking Redis.
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.scan(ctx, func(batch []string) error {
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Reset deletes every key under the prefix. Keys outside the prefix are untouched.
func (s *Storage) Reset(ctx context.Context) error {
	return s.scan(ctx, func(batch []string) error {
		if len(batch) == 0 {
			return nil
		}
		return s.db.Del(ctx, batch...).Err()
	})
}

// Conn returns the underlying client.
func (s *Storage) Conn() redis.UniversalClient {
	return s.db
}

// Close closes the underlying client.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) scan(ctx context.Context, fn func([]string) error) error {
	var cursor uint64
	for {
		batch, next, err := s.db.Scan(ctx, cursor, s.prefix+"*", s.scanBatchSize).Result()
		if err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
