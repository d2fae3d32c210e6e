// Package config provides shared configuration utilities.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/tomz197/chainbreaker/internal/game"
)

// Config is read from the environment. Each binary uses the fields it needs.
type Config struct {
	SSHHost        string `env:"SSH_HOST" envDefault:"::"`
	SSHPort        string `env:"SSH_PORT" envDefault:"2222" validate:"required,numeric"`
	HostKeyPath    string `env:"SSH_HOST_KEY" envDefault:"/app/keys/host_key"`
	SSHDisplayHost string `env:"SSH_DISPLAY_HOST" envDefault:"your-server.com"`

	WebHost string `env:"WEB_HOST" envDefault:"0.0.0.0"`
	WebPort string `env:"WEB_PORT" envDefault:"8080" validate:"required,numeric"`

	StatsBackend string `env:"STATS_BACKEND" envDefault:"file" validate:"oneof=file sqlite memory"`
	StatsPath    string `env:"STATS_PATH" envDefault:"chainbreaker_stats.json"`
	TiersFile    string `env:"TIERS_FILE"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error fatal"`
	LogFile  string `env:"LOG_FILE"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s" validate:"gt=0"`
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Table returns the difficulty table, applying TiersFile when set.
func (c Config) Table() (game.Table, error) {
	if c.TiersFile == "" {
		return game.DefaultTable(), nil
	}
	f, err := os.Open(c.TiersFile)
	if err != nil {
		return nil, fmt.Errorf("open tiers file: %w", err)
	}
	defer f.Close()

	table, err := game.LoadTable(f)
	if err != nil {
		return nil, fmt.Errorf("load tiers file %s: %w", c.TiersFile, err)
	}
	return table, nil
}
