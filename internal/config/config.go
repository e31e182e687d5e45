package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process settings read from PLAN_MCP_* variables. Everything
// about tools and plans lives in the YAML file it points to.
type Config struct {
	// ConfigPath is the path to the YAML configuration file.
	ConfigPath string `env:"PLAN_MCP_CONFIG" envDefault:"config.yaml"`
	// EmbeddedConfig selects a config shipped in the binary instead of ConfigPath.
	EmbeddedConfig string `env:"PLAN_MCP_EMBEDDED_CONFIG"`
	// LogLevel sets the logger level.
	LogLevel string `env:"PLAN_MCP_LOG_LEVEL" envDefault:"info"`
	// Lang picks the message bundle for user-facing texts.
	Lang string `env:"PLAN_MCP_LANG" envDefault:"en"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `env:"PLAN_MCP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// MaxConcurrency overrides server.plan.max_concurrency when positive.
	MaxConcurrency int `env:"PLAN_MCP_MAX_CONCURRENCY" envDefault:"0"`
}

// Load parses and checks the environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("PLAN_MCP_SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.MaxConcurrency < 0 {
		return Config{}, fmt.Errorf("PLAN_MCP_MAX_CONCURRENCY must be >= 0")
	}
	return cfg, nil
}
