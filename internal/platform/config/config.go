package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, loaded from the environment.
type Config struct {
	Server    Server
	Log       Log
	Redis     RedisConfig
	Database  Database
	Keys      Keys
	Ledger    Ledger
	Tenants   Tenants
	RateLimit RateLimit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string        `env:"GUARDIAN_ADDR" envDefault:":8080"`
	ReadHeaderTimeout time.Duration `env:"GUARDIAN_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"GUARDIAN_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"GUARDIAN_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"GUARDIAN_IDLE_TIMEOUT" envDefault:"60s"`
	RequestTimeout    time.Duration `env:"GUARDIAN_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout   time.Duration `env:"GUARDIAN_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AdminToken        string        `env:"GUARDIAN_ADMIN_TOKEN"`
	CleanupInterval   time.Duration `env:"GUARDIAN_CLEANUP_INTERVAL" envDefault:"1h"`
	// DeviceFingerprinting compares the user agent of a refresh against the
	// one the token was issued to.
	DeviceFingerprinting bool `env:"GUARDIAN_DEVICE_FINGERPRINTING" envDefault:"true"`
}

// Log selects the slog handler.
type Log struct {
	Level  string `env:"GUARDIAN_LOG_LEVEL" envDefault:"info"`
	Format string `env:"GUARDIAN_LOG_FORMAT" envDefault:"json"`
}

// RedisConfig configures the shared ordered key-value store.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"20"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	KeyPrefix    string        `env:"REDIS_KEY_PREFIX" envDefault:"guardian"`
}

// Database selects the relational store backing refresh and SSO tokens.
// Driver is "postgres" or "sqlite".
type Database struct {
	Driver       string `env:"DB_DRIVER" envDefault:"sqlite"`
	URL          string `env:"DATABASE_URL"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"guardian.db"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
}

// Keys configures the signing key. An empty PEM path generates a key at
// startup, which is only suitable for development.
//
// JWKSURL, when set, makes bearer verification fetch keys from a published
// JWKS instead of trusting the local signer.
type Keys struct {
	PrivateKeyPath string        `env:"SIGNING_KEY_PATH"`
	Algorithm      string        `env:"SIGNING_KEY_ALG" envDefault:"RS256"`
	JWKSURL        string        `env:"JWKS_URL"`
	JWKSCacheTTL   time.Duration `env:"JWKS_CACHE_TTL" envDefault:"10m"`
	Leeway         time.Duration `env:"TOKEN_LEEWAY" envDefault:"30s"`
}

// Ledger configures revocation bucketing.
type Ledger struct {
	Granularity string        `env:"REVOCATION_GRANULARITY" envDefault:"coarse"`
	Retention   time.Duration `env:"REVOCATION_RETENTION" envDefault:"1h"`
}

// Tenants points at the tenant seed file (JSON list of tenants and clients).
type Tenants struct {
	SeedPath string `env:"TENANT_SEED_PATH" envDefault:"tenants.json"`
}

// RateLimit throttles login accept, token and revoke per tenant and client
// IP. Zero requests disables it.
type RateLimit struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"60"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// FromEnv parses Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Database.Driver == "postgres" && cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required for postgres")
	}
	return cfg, nil
}
