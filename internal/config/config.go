// Package config loads runtime configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"INKWELL_PORT" envDefault:"8080"`
	DBPath   string `env:"INKWELL_DB_PATH" envDefault:"inkwell.db"`
	LogLevel string `env:"INKWELL_LOG_LEVEL" envDefault:"info"`

	// Comma-separated list of emails allowed to sign in.
	AdminEmails []string `env:"INKWELL_ADMIN_EMAILS" envSeparator:","`

	PostmarkToken string `env:"INKWELL_POSTMARK_TOKEN"`
	FromEmail     string `env:"INKWELL_FROM_EMAIL"`

	ExportDir string `env:"INKWELL_EXPORT_DIR" envDefault:"export"`

	S3Endpoint  string `env:"INKWELL_S3_ENDPOINT"`
	S3Bucket    string `env:"INKWELL_S3_BUCKET"`
	S3Region    string `env:"INKWELL_S3_REGION" envDefault:"auto"`
	S3AccessKey string `env:"INKWELL_S3_ACCESS_KEY"`
	S3SecretKey string `env:"INKWELL_S3_SECRET_KEY"`
	S3Prefix    string `env:"INKWELL_S3_PREFIX"`
}

// Load reads configuration from the environment. A missing .env file is
// not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
