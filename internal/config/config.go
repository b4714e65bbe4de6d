// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/keystreak/xpboard/internal/domain"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	RedisURL  string `env:"REDIS_URL"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	WeeklyXpEnabled        bool `env:"WEEKLY_XP_ENABLED" default:"true"`
	WeeklyXpExpirationDays int  `env:"WEEKLY_XP_EXPIRATION_DAYS" default:"15"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	// REDIS_URL may be empty: the leaderboard then runs with no store and
	// every operation follows its documented unavailable behavior.
	if cfg.RedisURL == "" && cfg.AppEnv != "development" {
		return fmt.Errorf("REDIS_URL is required outside development")
	}

	if cfg.WeeklyXpExpirationDays <= 0 {
		return fmt.Errorf("WEEKLY_XP_EXPIRATION_DAYS must be positive, got %d", cfg.WeeklyXpExpirationDays)
	}

	return nil
}

// WeeklyXp returns the leaderboard configuration snapshot passed to
// every engine call.
func (c *Config) WeeklyXp() domain.WeeklyXpConfig {
	return domain.WeeklyXpConfig{
		Enabled:              c.WeeklyXpEnabled,
		ExpirationTimeInDays: c.WeeklyXpExpirationDays,
	}
}
