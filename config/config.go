package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env         string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port        string `env:"PORT" envDefault:"8080" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// Record store: the spreadsheet backing the subscriber list.
	SheetID           string `env:"SHEET_ID,required" validate:"required"`
	SheetName         string `env:"SHEET_NAME" envDefault:"Sheet1"`
	GoogleCredentials string `env:"GOOGLE_CREDENTIALS,required" validate:"required,json"`

	// Subscription policy.
	AllowedEmailDomain string   `env:"ALLOWED_EMAIL_DOMAIN" envDefault:"srmist.edu.in" validate:"required,fqdn"`
	VerifyBaseURL      string   `env:"VERIFY_BASE_URL" envDefault:"http://localhost:8080" validate:"required,url"`
	FallbackVerify     bool     `env:"FALLBACK_VERIFY" envDefault:"true"`
	CORSOrigins        []string `env:"CORS_ORIGINS" envDefault:"http://localhost:8080,http://localhost:3000"`

	// Delivery. SMTP settings are required outside local, where emails are
	// only logged.
	SMTPHost     string        `env:"SMTP_HOST" validate:"required_if=Env production,required_if=Env staging"`
	SMTPUser     string        `env:"SMTP_USER" validate:"required_if=Env production,required_if=Env staging"`
	SMTPPass     string        `env:"SMTP_PASS" validate:"required_if=Env production,required_if=Env staging"`
	EmailFrom    string        `env:"EMAIL_FROM" validate:"required_if=Env production,required_if=Env staging"`
	ResendAPIKey string        `env:"RESEND_API_KEY"`
	RetryDelay   time.Duration `env:"RETRY_DELAY" envDefault:"2s"`
	SMTPTimeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`

	// Sweeper schedule, standard cron spec.
	SweepSpec string `env:"SWEEP_SPEC" envDefault:"0 * * * *"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
