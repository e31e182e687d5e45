package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", cfg.ConfigPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "en", cfg.Lang)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Zero(t, cfg.MaxConcurrency)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PLAN_MCP_CONFIG", "/etc/plan/config.yaml")
	t.Setenv("PLAN_MCP_LOG_LEVEL", "debug")
	t.Setenv("PLAN_MCP_LANG", "ru")
	t.Setenv("PLAN_MCP_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("PLAN_MCP_MAX_CONCURRENCY", "2")
	t.Setenv("PLAN_MCP_EMBEDDED_CONFIG", "equity-assistant")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Config{
		ConfigPath:      "/etc/plan/config.yaml",
		LogLevel:        "debug",
		Lang:            "ru",
		ShutdownTimeout: 3 * time.Second,
		MaxConcurrency:  2,
		EmbeddedConfig:  "equity-assistant",
	}, cfg)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("PLAN_MCP_MAX_CONCURRENCY", "many")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsOutOfRange(t *testing.T) {
	t.Setenv("PLAN_MCP_MAX_CONCURRENCY", "-1")
	_, err := Load()
	assert.EqualError(t, err, "PLAN_MCP_MAX_CONCURRENCY must be >= 0")

	t.Setenv("PLAN_MCP_MAX_CONCURRENCY", "0")
	t.Setenv("PLAN_MCP_SHUTDOWN_TIMEOUT", "0s")
	_, err = Load()
	assert.EqualError(t, err, "PLAN_MCP_SHUTDOWN_TIMEOUT must be positive")
}
