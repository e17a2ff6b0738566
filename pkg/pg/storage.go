package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	getQuery    = `SELECT value FROM kv_store WHERE key = $1`
	upsertQuery = `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	deleteQuery = `DELETE FROM kv_store WHERE key = $1`
)

// DB is the subset of *pgxpool.Pool used by Storage. *pgx.Conn and pgx.Tx satisfy it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage keeps background task state in the kv_store table created by Migrate.
type Storage struct {
	db DB
}

// NewStorage wraps db.
func NewStorage(db DB) *Storage {
	return &Storage{db: db}
}

// Get returns found=false when the row does not exist.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}

	var value string
	err := s.db.QueryRow(ctx, getQuery, key).Scan(&value)
	if IsNotFoundError(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.db.Exec(ctx, upsertQuery, key, value)
	return err
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.db.Exec(ctx, deleteQuery, key)
	return err
}
