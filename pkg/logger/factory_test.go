package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedalpoint/taskcore/pkg/logger"
)

type ctxKey struct{}

func TestNew_JSONDefault(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf), logger.WithAttr(slog.String("service", "taskcored")))
	log.Debug("hidden")
	log.Info("task enqueued", logger.TaskID("t1"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "task enqueued", entry["msg"])
	assert.Equal(t, "t1", entry["task_id"])
	assert.Equal(t, "taskcored", entry["service"])
}

func TestNew_InvalidFormatPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		logger.New(logger.WithFormat("xml"))
	})
}

func TestWithContextValue(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextValue("request_id", ctxKey{}),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-42")
	log.InfoContext(ctx, "handled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["request_id"])
}

func TestWithContextValue_Missing(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextValue("request_id", ctxKey{}),
	)
	log.InfoContext(context.Background(), "handled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "request_id")
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("development uses text at debug", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment(logger.EnvDevelopment, "svc"))
		log.Debug("msg")
		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), "env=development")
	})

	t.Run("production uses json", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment("prod", "svc"))
		log.Info("msg")
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, logger.EnvProduction, entry["env"])
		assert.Equal(t, "svc", entry["service"])
	})

	t.Run("staging", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment(logger.EnvStaging, "svc"))
		log.Info("msg")
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, logger.EnvStaging, entry["env"])
	})
}

func TestWithEnvironment_Alias(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf), logger.WithEnvironment("unknown", ""))
	log.Debug("msg")
	assert.Contains(t, buf.String(), "env=development")
	assert.NotContains(t, buf.String(), "service=")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := logger.ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, logger.FormatJSON, f)

	_, err = logger.ParseFormat("xml")
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("overrides profile", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log, err := logger.NewFromConfig(logger.Config{
			Env:     logger.EnvProduction,
			Service: "taskcored",
			Level:   "warn",
			Format:  "text",
		}, logger.WithOutput(buf))
		require.NoError(t, err)

		log.Info("hidden")
		log.Warn("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "service=taskcored")
	})

	t.Run("invalid level", func(t *testing.T) {
		t.Parallel()

		_, err := logger.NewFromConfig(logger.Config{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()

		_, err := logger.NewFromConfig(logger.Config{Format: "xml"})
		assert.Error(t, err)
	})
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	log := logger.Discard()
	require.NotNil(t, log)
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
