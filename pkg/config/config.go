package config

import (
	"fmt"
	"time"

	"github.com/Proton-105/calc-bot/pkg/redis"
)

// Config holds runtime configuration for the calculator bot.
type Config struct {
	AppEnv      string            `mapstructure:"app_env"`
	Logger      LoggerConfig      `mapstructure:"logger" validate:"required"`
	Sentry      SentryConfig      `mapstructure:"sentry"`
	Bot         BotConfig         `mapstructure:"bot" validate:"required"`
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Redis       redis.Config      `mapstructure:"redis" validate:"required"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Session     SessionConfig     `mapstructure:"session" validate:"required"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Jobs        JobsConfig        `mapstructure:"jobs"`
}

// LoggerConfig configures the structured logger.
type LoggerConfig struct {
	Level  string        `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string        `mapstructure:"format" validate:"required,oneof=json text"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig enables a rotating log file next to stdout.
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path" validate:"required_if=Enabled true"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	DSN              string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment      string  `mapstructure:"environment"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate" validate:"gte=0,lte=1"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token      string        `mapstructure:"token" validate:"required"`
	Mode       string        `mapstructure:"mode" validate:"required,oneof=polling webhook"`
	WebhookURL string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ServerConfig configures the HTTP server exposing metrics and probes.
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	WebhookPort     string        `mapstructure:"webhook_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig configures the Postgres connection.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            int           `mapstructure:"port" validate:"required"`
	User            string        `mapstructure:"user" validate:"required"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name" validate:"required"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// DSN returns the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		sslMode,
	)
}

// RateLimitRule is a request budget over a window, e.g. {limit: 30, window: "1m"}.
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// RateLimitConfig configures per-user and per-command request budgets.
type RateLimitConfig struct {
	Enabled   bool                     `mapstructure:"enabled"`
	Global    RateLimitRule            `mapstructure:"global"`
	PerUser   RateLimitRule            `mapstructure:"per_user"`
	Commands  map[string]RateLimitRule `mapstructure:"commands"`
	Whitelist []int64                  `mapstructure:"whitelist"`
}

// SessionConfig configures calculator sessions stored in Redis.
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl" validate:"required"`
	LockTimeout   time.Duration `mapstructure:"lock_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	TimeLayout    string        `mapstructure:"time_layout"`
}

// IdempotencyConfig configures duplicate update suppression.
type IdempotencyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// JobsConfig configures the background maintenance worker.
type JobsConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Concurrency      int           `mapstructure:"concurrency" validate:"gte=0"`
	RateLimitSweep   time.Duration `mapstructure:"ratelimit_sweep"`
	IdempotencySweep time.Duration `mapstructure:"idempotency_sweep"`
}
