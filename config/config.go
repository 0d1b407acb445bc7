// Package config loads the bot configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/wanderersguide/review-bot/api/validator"
)

// Relay backends.
const (
	BackendFunctions = "functions"
	BackendPostgres  = "postgres"
)

// Config holds every setting of the bot. Fields are filled from the
// environment variable named by their env tag, falling back to envDefault.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN" validate:"required"`
	ChannelID    string `env:"CHANNEL_ID" validate:"required"`
	RoleID       string `env:"ROLE_ID" validate:"required"`

	RelayBackend  string `env:"RELAY_BACKEND" envDefault:"functions" validate:"oneof=functions postgres"`
	RelayFunction string `env:"RELAY_FUNCTION" envDefault:"update-content-update" validate:"required"`
	RelaySecret   string `env:"CONTENT_UPDATE_KEY" validate:"required"`
	SupabaseURL   string `env:"SUPABASE_URL" validate:"required_if=RelayBackend functions"`
	SupabaseKey   string `env:"SUPABASE_KEY" validate:"required_if=RelayBackend functions"`
	DatabaseURL   string `env:"DATABASE_URL" validate:"required_if=RelayBackend postgres"`

	RedisAddr    string `env:"REDIS_ADDR"`
	RedisChannel string `env:"REDIS_CHANNEL" envDefault:"content-update-decisions"`

	LinkBase string `env:"CONTENT_UPDATE_URL" validate:"omitempty,url"`
	Addr     string `env:"ADDR" envDefault:":3000" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if errs := validator.New().ValidateStruct(&cfg); len(errs) > 0 {
		fields := make([]string, len(errs))
		for i, e := range errs {
			fields[i] = e.Field
		}
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
	}
	return cfg, nil
}

// Level returns the configured slog level.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
