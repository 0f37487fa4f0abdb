package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"tourbook/config"
	"tourbook/shared/logger"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, cfg *config.Config) *bytes.Buffer {
	t.Helper()

	original := log.Logger
	level := zerolog.GlobalLevel()

	t.Cleanup(func() {
		log.Logger = original
		zerolog.SetGlobalLevel(level)
	})

	var buf bytes.Buffer
	logger.Setup(cfg, &buf)

	return &buf
}

func TestSetup_JSONOutsideDevelopment(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Env = "production"
	cfg.Server.LogLevel = "debug"
	cfg.App.Name = "tourbook"

	buf := capture(t, cfg)

	log.Info().Str("booking_id", "b-1").Msg("booking created")

	entry := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tourbook", entry["app"])
	assert.Equal(t, "b-1", entry["booking_id"])
	assert.Equal(t, "booking created", entry["message"])
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestSetup_ConsoleInDevelopment(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Env = "development"

	buf := capture(t, cfg)

	log.Warn().Msg("reopened")

	assert.Contains(t, buf.String(), "reopened")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace": zerolog.TraceLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"":      zerolog.InfoLevel,
		"loud":  zerolog.InfoLevel,
	}

	for name, expected := range tests {
		assert.Equal(t, expected, logger.Level(name), name)
	}
}

func TestErrorWithStack(t *testing.T) {
	buf := capture(t, &config.Config{})

	logger.ErrorWithStack(errors.New("connection reset"))

	assert.Contains(t, buf.String(), "connection reset")
	assert.Contains(t, buf.String(), "logger_test")
}
