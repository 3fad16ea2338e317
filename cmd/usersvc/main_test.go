package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-users/internal/infra/config"
)

//nolint:paralleltest
func TestConfig_Parse(t *testing.T) {
	t.Setenv("PORT", "3100")
	t.Setenv("USERSVC_PORT", "4000")
	t.Setenv("DB_PATH", "var/users.sqlite")
	t.Setenv("HTTP_WRITE_TIMEOUT", "30s")
	t.Setenv("LOG_LEVEL", "debug")

	var cfg Config
	require.NoError(t, config.Parse(context.Background(), &cfg, "USERSVC"))

	assert.Equal(t, 4000, cfg.HTTP.Port)
	assert.Equal(t, ":4000", cfg.HTTP.Addr())
	assert.Equal(t, 30*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, int64(1<<20), cfg.HTTP.MaxBodyBytes)
	assert.Equal(t, "var/users.sqlite", cfg.User.DatabasePath)
	assert.Equal(t, 5000, cfg.User.BusyTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}
