package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"estate-snapshots"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	// Provider credentials. An adapter whose key is missing is left out of
	// the fan-out instead of failing every request.
	RapidAPIKey     string `envconfig:"RAPIDAPI_KEY"`
	GoogleMapsKey   string `envconfig:"GOOGLE_MAPS_KEY"`
	LeboncoinAPIKey string `envconfig:"LEBONCOIN_API_KEY"`

	// FixturesDir switches outbound HTTP to recorded fixtures for offline runs.
	FixturesDir string `envconfig:"FIXTURES_DIR"`

	// Background rescan: re-run the persisted scan for these locations on a timer.
	ScanInterval  time.Duration `envconfig:"SCAN_INTERVAL" default:"0"`
	ScanLocations []string      `envconfig:"SCAN_LOCATIONS"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("ESTATE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

func (c *Config) HasRescan() bool {
	return c.ScanInterval > 0 && len(c.ScanLocations) > 0
}
