// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings for the
// HTTP dashboard, the document store, the Telegram relay, rate limiting, and
// observability. Both binaries (dashboard and relay) share it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreDriverFile   = "file"
	StoreDriverSQLite = "sqlite"
)

// Trace exporters.
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
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

// StoreConfig selects where the gateway document lives.
type StoreConfig struct {
	Driver     string // STORE_DRIVER: file|sqlite
	Path       string // STORE_PATH: JSON document (file driver)
	SQLitePath string // SQLITE_PATH: database file (sqlite driver)
}

// TelegramConfig configures the Bot API client.
type TelegramConfig struct {
	Timeout     time.Duration // TELEGRAM_TIMEOUT: per-request HTTP timeout
	PollTimeout int           // TELEGRAM_POLL_TIMEOUT: long-poll wait in seconds
	Debug       bool          // TELEGRAM_DEBUG: log raw Bot API traffic
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Exporter    string  // OTEL_EXPORTER: otlp|stdout
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "telegram-gateway")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s; chat listing talks to Telegram per chat
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	Store        StoreConfig
	LogScanLimit int // LOG_SCAN_LIMIT: logs scanned for chat candidates
	Telegram     TelegramConfig
	NATSURL      string // NATS_URL: empty disables event publishing

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// IDEMPOTENCY_TTL: how long a completed POST can be replayed by key
	IdempotencyTTL time.Duration

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// LoadDotEnv loads .env and then .env.local from the working directory when
// they exist. Variables already present in the environment win.
func LoadDotEnv() {
	for _, f := range []string{".env", ".env.local"} {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", f, err)
		}
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

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// App
		Store: StoreConfig{
			Driver:     strings.ToLower(strings.TrimSpace(getenv("STORE_DRIVER", StoreDriverFile))),
			Path:       getenv("STORE_PATH", "data/telegram_gateway.json"),
			SQLitePath: getenv("SQLITE_PATH", "data/telegram_gateway.db"),
		},
		LogScanLimit: getint("LOG_SCAN_LIMIT", 10000),
		Telegram: TelegramConfig{
			Timeout:     getdur("TELEGRAM_TIMEOUT", 10*time.Second),
			PollTimeout: getint("TELEGRAM_POLL_TIMEOUT", 60),
			Debug:       getbool("TELEGRAM_DEBUG", false),
		},
		NATSURL: strings.TrimSpace(getenv("NATS_URL", "")),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Exporter:    strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER", ExporterOTLP))),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "telegram-gateway"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.Store.Driver {
	case StoreDriverFile:
		if strings.TrimSpace(cfg.Store.Path) == "" {
			return cfg, errors.New("STORE_PATH must not be empty")
		}
	case StoreDriverSQLite:
		if strings.TrimSpace(cfg.Store.SQLitePath) == "" {
			return cfg, errors.New("SQLITE_PATH must not be empty")
		}
	default:
		return cfg, errors.New("STORE_DRIVER must be one of: file, sqlite")
	}
	if cfg.LogScanLimit < 1 {
		return cfg, errors.New("LOG_SCAN_LIMIT must be >= 1")
	}
	if cfg.Telegram.Timeout <= 0 {
		return cfg, errors.New("TELEGRAM_TIMEOUT must be > 0")
	}
	if cfg.Telegram.PollTimeout < 0 {
		return cfg, errors.New("TELEGRAM_POLL_TIMEOUT must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	switch cfg.OTEL.Exporter {
	case ExporterOTLP, ExporterStdout:
	default:
		return cfg, errors.New("OTEL_EXPORTER must be one of: otlp, stdout")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
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
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
