package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"prizewheel/database"
	"prizewheel/models"
)

// Claim strategies
const (
	ClaimStrategyConditional   = "conditional"
	ClaimStrategyTransactional = "transactional"
)

// Store backends
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`
	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres"`

	// HTTP configuration
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Prize wheel configuration
	PrizeTableRaw   string            `env:"PRIZE_TABLE"`
	PrizeTable      models.PrizeTable `env:"-"`
	ClaimStrategy   string            `env:"CLAIM_STRATEGY" envDefault:"conditional"`
	ClaimMaxRetries int               `env:"CLAIM_MAX_RETRIES" envDefault:"5"`
	SessionTTL      time.Duration     `env:"SESSION_TTL" envDefault:"30m"`

	// NATS configuration
	NATSEnabled bool     `env:"NATS_ENABLED" envDefault:"false"`
	NATSServers []string `env:"NATS_SERVERS" envSeparator:"," envDefault:"nats://localhost:4222"`

	// Discord announcements, disabled when the token is empty
	DiscordToken     string `env:"DISCORD_TOKEN"`
	DiscordChannelID string `env:"DISCORD_CHANNEL_ID"`

	// OpenTelemetry configuration
	OTelEnabled          bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelExporterType     string `env:"OTEL_EXPORTER_TYPE" envDefault:"stdout"` // "stdout" or "otlp"
	OTelOTLPEndpoint     string `env:"OTEL_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelServiceName      string `env:"OTEL_SERVICE_NAME" envDefault:"prizewheel"`
	OTelExportIntervalMS int    `env:"OTEL_EXPORT_INTERVAL_MS" envDefault:"10000"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "text" or "json"

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
}

// NewTestConfig returns a configuration suitable for tests
func NewTestConfig() *Config {
	return &Config{
		StoreBackend:         StoreBackendMemory,
		HTTPAddr:             ":0",
		PrizeTable:           models.DefaultPrizeTable,
		ClaimStrategy:        ClaimStrategyConditional,
		ClaimMaxRetries:      5,
		SessionTTL:           30 * time.Minute,
		OTelExporterType:     "stdout",
		OTelServiceName:      "prizewheel-test",
		OTelExportIntervalMS: 10000,
		LogLevel:             "debug",
		LogFormat:            "text",
		Environment:          "test",
	}
}

// GetDatabaseURL returns the full database URL including the database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// LoadDotEnv copies an optional .env file in the working directory into the
// environment. Variables already set are left alone.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Load reads configuration from an optional .env file and the environment
func Load() (*Config, error) {
	LoadDotEnv()
	return Parse()
}

// Parse reads the configuration from the process environment and validates it
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.PrizeTable = models.ParsePrizeTable(cfg.PrizeTableRaw)
	if cfg.PrizeTable == nil {
		cfg.PrizeTable = models.DefaultPrizeTable
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted
func (c *Config) Validate() error {
	if err := c.PrizeTable.Validate(); err != nil {
		return fmt.Errorf("PRIZE_TABLE is invalid: %w", err)
	}

	switch c.ClaimStrategy {
	case ClaimStrategyConditional, ClaimStrategyTransactional:
	default:
		return fmt.Errorf("CLAIM_STRATEGY must be %q or %q, got %q", ClaimStrategyConditional, ClaimStrategyTransactional, c.ClaimStrategy)
	}

	switch c.StoreBackend {
	case StoreBackendPostgres, StoreBackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreBackendPostgres, StoreBackendMemory, c.StoreBackend)
	}

	if c.ClaimMaxRetries < 1 {
		return fmt.Errorf("CLAIM_MAX_RETRIES must be at least 1")
	}

	if c.Environment != "test" && c.StoreBackend == StoreBackendPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.DiscordToken != "" && c.DiscordChannelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_TOKEN is set")
	}

	return nil
}
