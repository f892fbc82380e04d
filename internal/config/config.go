// Package config provides application configuration loaded from environment
// variables with defaults and validation. Settings are grouped by concern:
// HTTP server, logging, database, meal policy, identity, request guards,
// idempotency and observability.
//
// A malformed value (e.g. RATE_RPS=fast) is a load error rather than a
// silent fallback to the default.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Database drivers accepted in DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-meal-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AuthConfig controls how callers are identified.
type AuthConfig struct {
	JWTSecret     string // JWT_SECRET; enables HS256 bearer tokens when set
	AllowHeader   bool   // ALLOW_HEADER_IDENTITY; trust X-User-ID
	DefaultUserID string // DEFAULT_USER_ID; empty rejects anonymous calls
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH, SQLite file
	URL    string // DATABASE_URL, Postgres DSN
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverPostgres {
		return d.URL
	}
	return d.Path
}

func (d DatabaseConfig) validate() error {
	switch d.Driver {
	case DriverSQLite:
		if strings.TrimSpace(d.Path) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case DriverPostgres:
		if strings.TrimSpace(d.URL) == "" {
			return errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	return nil
}

// MealsConfig holds meal and listing policy.
type MealsConfig struct {
	AllowDeleteClosed bool // ALLOW_DELETE_CLOSED_MEALS
	PageSize          int  // DEFAULT_PAGE_SIZE, used when the client sends none
}

// IdempotencyConfig governs Idempotency-Key replays of order placement.
type IdempotencyConfig struct {
	TTL time.Duration // IDEMPOTENCY_TTL
	// PurgeInterval spaces expired-key cleanup runs; 0 disables.
	PurgeInterval time.Duration // IDEMPOTENCY_PURGE_INTERVAL
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // grace period for in-flight requests
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // trace|debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogRedact      bool   // scrub PII from access logs
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	Database    DatabaseConfig
	Meals       MealsConfig
	Auth        AuthConfig
	Idempotency IdempotencyConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	OTEL OTELConfig
}

// loadAuth reads the identity settings. Header identity and the fallback
// user are on by default only while no JWT secret is configured; with a
// secret they must be enabled explicitly.
func loadAuth(e *env) AuthConfig {
	secret := e.str("JWT_SECRET", "")
	noSecret := secret == ""
	fallback := ""
	if noSecret {
		fallback = "demo-user"
	}
	return AuthConfig{
		JWTSecret:     secret,
		AllowHeader:   e.bool("ALLOW_HEADER_IDENTITY", noSecret),
		DefaultUserID: e.strAllowEmpty("DEFAULT_USER_ID", fallback),
	}
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	var e env
	cfg := Config{
		Port:              e.str("PORT", "8080"),
		ReadTimeout:       e.dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.dur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       e.dur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   e.dur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    e.int("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(e.str("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(e.str("LOG_LEVEL", "info")),
		LogPretty:      e.bool("LOG_PRETTY", false),
		LogRedact:      e.bool("LOG_REDACT", true),
		SwaggerEnabled: e.bool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(e.str("API_BASE_PATH", "/api/v1")),

		Database: DatabaseConfig{
			Driver: strings.ToLower(e.str("DB_DRIVER", DriverSQLite)),
			Path:   e.str("DB_PATH", "meals.db"),
			URL:    e.str("DATABASE_URL", ""),
		},
		Meals: MealsConfig{
			AllowDeleteClosed: e.bool("ALLOW_DELETE_CLOSED_MEALS", true),
			PageSize:          e.int("DEFAULT_PAGE_SIZE", 20),
		},
		Auth: loadAuth(&e),
		Idempotency: IdempotencyConfig{
			TTL:           e.dur("IDEMPOTENCY_TTL", 24*time.Hour),
			PurgeInterval: e.dur("IDEMPOTENCY_PURGE_INTERVAL", time.Hour),
		},

		RateRPS:   e.float("RATE_RPS", 5.0),
		RateBurst: e.int("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(e.str("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: e.bool("ENABLE_HSTS", false),
			HSTSMaxAge: e.dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OTEL: OTELConfig{
			Enabled:     e.bool("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.bool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "go-meal-backend"),
			SampleRatio: e.float("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}
	if err := errors.Join(e.errs...); err != nil {
		return cfg, err
	}

	cfg.normalize()
	return cfg, cfg.validate()
}

func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	if c.Database.Driver == "postgresql" {
		c.Database.Driver = DriverPostgres
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
}

// validate returns the first violated rule.
func (c Config) validate() error {
	checks := []func() error{
		c.validateServer,
		c.Database.validate,
		c.validatePolicy,
		c.validateGuards,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) validateServer() error {
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be > 0")
	}
	if c.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	return nil
}

func (c Config) validatePolicy() error {
	if c.Meals.PageSize < 1 || c.Meals.PageSize > 100 {
		return errors.New("DEFAULT_PAGE_SIZE must be between 1 and 100")
	}
	if !c.Auth.AllowHeader && c.Auth.JWTSecret == "" && c.Auth.DefaultUserID == "" {
		return errors.New("no identity source: set JWT_SECRET, ALLOW_HEADER_IDENTITY or DEFAULT_USER_ID")
	}
	if c.Idempotency.TTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if c.Idempotency.PurgeInterval < 0 {
		return errors.New("IDEMPOTENCY_PURGE_INTERVAL must be >= 0")
	}
	return nil
}

func (c Config) validateGuards() error {
	if c.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if c.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if c.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// errInvalid formats a parse failure for key.
func errInvalid(key, raw, kind string) error {
	return fmt.Errorf("%s: %q is not a valid %s", key, raw, kind)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}
