package pg_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pedalpoint/taskcore/pkg/background"
	"github.com/pedalpoint/taskcore/pkg/logger"
	"github.com/pedalpoint/taskcore/pkg/pg"
)

var _ background.Storage = (*pg.Storage)(nil)

// MockDB is a mock implementation of pg.DB
type MockDB struct {
	mock.Mock
}

func (m *MockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	called := m.Called(append([]any{ctx, sql}, args...)...)
	return pgconn.NewCommandTag(called.String(0)), called.Error(1)
}

func (m *MockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	called := m.Called(append([]any{ctx, sql}, args...)...)
	return called.Get(0).(pgx.Row)
}

type row struct {
	value string
	err   error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.value
	return nil
}

func TestStorage_Get(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		db := new(MockDB)
		db.On("QueryRow", mock.Anything, mock.Anything, "background_tasks").Return(row{value: "[]"})

		val, found, err := pg.NewStorage(db).Get(context.Background(), "background_tasks")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "[]", val)
		db.AssertExpectations(t)
	})

	t.Run("missing row", func(t *testing.T) {
		t.Parallel()

		db := new(MockDB)
		db.On("QueryRow", mock.Anything, mock.Anything, "background_tasks").Return(row{err: pgx.ErrNoRows})

		_, found, err := pg.NewStorage(db).Get(context.Background(), "background_tasks")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()

		db := new(MockDB)
		db.On("QueryRow", mock.Anything, mock.Anything, "k").Return(row{err: errors.New("conn reset")})

		_, found, err := pg.NewStorage(db).Get(context.Background(), "k")
		assert.EqualError(t, err, "conn reset")
		assert.False(t, found)
	})

	t.Run("empty key", func(t *testing.T) {
		t.Parallel()

		db := new(MockDB)
		_, _, err := pg.NewStorage(db).Get(context.Background(), "")
		assert.ErrorIs(t, err, pg.ErrEmptyKey)
		db.AssertNotCalled(t, "QueryRow")
	})
}

func TestStorage_SetRemove(t *testing.T) {
	t.Parallel()

	db := new(MockDB)
	db.On("Exec", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.HasPrefix(sql, "INSERT")
	}), "k", "v").Return("INSERT 0 1", nil).Once()
	db.On("Exec", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.HasPrefix(sql, "DELETE")
	}), "k").Return("DELETE 1", nil).Once()

	store := pg.NewStorage(db)
	require.NoError(t, store.Set(context.Background(), "k", "v"))
	require.NoError(t, store.Remove(context.Background(), "k"))
	assert.ErrorIs(t, store.Set(context.Background(), "", "v"), pg.ErrEmptyKey)
	assert.ErrorIs(t, store.Remove(context.Background(), ""), pg.ErrEmptyKey)

	db.AssertExpectations(t)
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.False(t, pg.IsNotFoundError(nil))
	assert.True(t, pg.IsNotFoundError(pgx.ErrNoRows))
	assert.True(t, pg.IsNotFoundError(errors.Join(errors.New("query"), pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(errors.New("other")))
}

func TestConnect_EmptyConnectionString(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(context.Background(), pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)

	_, err = pg.Connect(context.Background(), pg.Config{ConnectionString: "postgres://user@localhost:notaport/db"})
	assert.ErrorIs(t, err, pg.ErrFailedToParseDBConfig)
}

// TestStorage_Postgres runs against a real database when PG_TEST_URL is set.
func TestStorage_Postgres(t *testing.T) {
	url := os.Getenv("PG_TEST_URL")
	if url == "" {
		t.Skip("PG_TEST_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := pg.Config{
		ConnectionString: url,
		RetryAttempts:    1,
		RetryInterval:    time.Second,
		MigrationsTable:  "taskcore_test_migrations",
	}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, pg.Healthcheck(pool)(ctx))
	require.NoError(t, pg.Migrate(ctx, pool, cfg, logger.Discard()))
	require.NoError(t, pg.Migrate(ctx, pool, cfg, logger.Discard()))

	store := pg.NewStorage(pool)
	key := "test_" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { _ = store.Remove(context.Background(), key) })

	require.NoError(t, store.Set(ctx, key, "one"))
	require.NoError(t, store.Set(ctx, key, "two"))

	val, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "two", val)

	require.NoError(t, store.Remove(ctx, key))
	_, found, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}
