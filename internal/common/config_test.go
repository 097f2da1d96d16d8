package common

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.Server.GRPCAddr)
	assert.Equal(t, "nor+eng", cfg.OCR.Languages)
	assert.Equal(t, 2.0, cfg.OCR.Scale)
	assert.Equal(t, 3*time.Minute, cfg.Worker.Timeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("TRADESLIP_DATABASE_DRIVER", "pgx")
	t.Setenv("TRADESLIP_DATABASE_DSN", "postgres://u:p@localhost:5432/slips")
	t.Setenv("TRADESLIP_SERVER_RATE_BURST", "3")
	t.Setenv("TRADESLIP_WORKER_TIMEOUT", "45s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@localhost:5432/slips", cfg.Database.DSN)
	assert.Equal(t, 3, cfg.Server.RateBurst)
	assert.Equal(t, 45*time.Second, cfg.Worker.Timeout)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.Database.Driver = "mysql"

	err = cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
}

func TestNewLoggerConsoleDropsTimeAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogConfig{Level: "debug", Format: "console"})
	logger.Debug("hello", "k", "v")

	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "k=v")
	assert.NotContains(t, out, "level=")
	assert.NotContains(t, out, "time=")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
