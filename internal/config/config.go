// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration.
type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"games.db"`
	// WebDir serves static client files when set.
	WebDir string `env:"WEB_DIR"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	CheatsEnabled        bool `env:"CHEATS_ENABLED" envDefault:"false"`
	MaxContinuationDepth int  `env:"MAX_CONTINUATION_DEPTH" envDefault:"32"`
	UndoDepth            int  `env:"UNDO_DEPTH" envDefault:"10"`
	LogLimit             int  `env:"ACTION_LOG_LIMIT" envDefault:"200"`

	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1m"`
	SessionMaxAge   time.Duration `env:"SESSION_MAX_AGE" envDefault:"1h"`
}

// Addr is the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxContinuationDepth <= 0 {
		return Config{}, fmt.Errorf("MAX_CONTINUATION_DEPTH must be positive, got %d", cfg.MaxContinuationDepth)
	}
	if cfg.UndoDepth < 0 {
		return Config{}, fmt.Errorf("UNDO_DEPTH must not be negative, got %d", cfg.UndoDepth)
	}
	return cfg, nil
}
