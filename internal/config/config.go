package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store backends the service can run against.
const (
	StoreBackendRestTable = "resttable"
	StoreBackendPostgres  = "postgres"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the auth service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"AUTH_HTTP_PORT" envDefault:"8080"`

	// JWT
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"5m"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"1h"`

	// Argon2id cost parameters
	Argon2MemoryKiB   uint32 `env:"ARGON2_MEMORY_KIB" envDefault:"65536"`
	Argon2Iterations  uint32 `env:"ARGON2_ITERATIONS" envDefault:"1"`
	Argon2Parallelism uint8  `env:"ARGON2_PARALLELISM" envDefault:"4"`

	// User store selection. "resttable" talks to a hosted rows API,
	// "postgres" owns its own table.
	StoreBackend string        `env:"STORE_BACKEND" envDefault:"resttable"`
	StoreURL     string        `env:"STORE_URL" envDefault:"http://localhost:3000"`
	StoreAPIKey  string        `env:"STORE_API_KEY" envDefault:""`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`

	// PostgreSQL (used when STORE_BACKEND=postgres)
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"auth"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"auth_secret"`
	PostgresDB   string `env:"AUTH_DB_NAME" envDefault:"auth_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	TracingEnabled  bool    `env:"OTEL_TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampler  float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse auth config: %w", err)
	}

	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	switch cfg.StoreBackend {
	case StoreBackendRestTable, StoreBackendPostgres:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: must be %q or %q",
			cfg.StoreBackend, StoreBackendRestTable, StoreBackendPostgres)
	}

	if cfg.StoreBackend == StoreBackendRestTable && cfg.StoreURL == "" {
		return nil, fmt.Errorf("STORE_URL must be set when STORE_BACKEND=%s", StoreBackendRestTable)
	}

	if cfg.JWTAccessExpiry <= 0 || cfg.JWTRefreshExpiry <= 0 {
		return nil, fmt.Errorf("token expiries must be positive: access %s, refresh %s",
			cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if cfg.Environment != "development" {
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
	}

	// The token cookies are credentialed, so production must name the
	// origins it trusts instead of echoing any caller back.
	if cfg.IsProduction() && slices.Contains(cfg.CORSAllowedOrigins, "*") {
		return nil, fmt.Errorf("CORS_ALLOWED_ORIGINS must list explicit origins in production, not %q", "*")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production mode. Cookie
// security flags key off this.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
