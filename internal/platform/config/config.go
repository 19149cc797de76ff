// Package config builds the service configuration from the environment.
// The Config value is constructed once in main and passed down.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"relief/pkg/platform/middleware/metadata"
	strutil "relief/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr               string
	CORSAllowedOrigins []string
	// TrustedProxies are the peers allowed to name the client through
	// X-Forwarded-For. Empty means the TCP peer is always the client.
	TrustedProxies  metadata.TrustedProxies
	ShutdownTimeout time.Duration
}

// Database selects the store driver and how identifiers are allocated.
type Database struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	BootstrapSchema bool
	Allocator       string
}

// RedisConfig holds connection settings for the shared rate-limit store.
// An empty URL keeps the limiter in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RateLimit bounds requests per client IP. Requests of zero disables limiting.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Log selects the slog handler.
type Log struct {
	Level  string
	Format string
}

// Config is the complete service configuration.
type Config struct {
	Server        Server
	Database      Database
	Redis         RedisConfig
	RateLimit     RateLimit
	Log           Log
	CreateRetries int
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	AllocatorSequence = "sequence"
	AllocatorMax      = "max"
)

// FromEnv builds a Config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Server: Server{
			Addr:               envString("RELIEF_ADDR", ":5000"),
			CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: Database{
			Driver:    strings.ToLower(envString("DB_DRIVER", DriverPostgres)),
			DSN:       os.Getenv("DATABASE_URL"),
			Allocator: strings.ToLower(envString("ID_ALLOCATOR", AllocatorSequence)),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Log: Log{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "json"),
		},
	}

	var err error
	if cfg.Server.TrustedProxies, err = metadata.ParseTrustedProxies(envList("TRUSTED_PROXIES", nil)); err != nil {
		return Config{}, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	if cfg.Server.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Database.MaxOpenConns, err = envInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		return Config{}, err
	}
	if cfg.Database.BootstrapSchema, err = envBool("DB_BOOTSTRAP_SCHEMA", true); err != nil {
		return Config{}, err
	}
	if cfg.CreateRetries, err = envInt("CREATE_RETRIES", 3); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.Requests, err = envInt("RATE_LIMIT_REQUESTS", 300); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.Window, err = envDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Redis.PoolSize, err = envInt("REDIS_POOL_SIZE", 10); err != nil {
		return Config{}, err
	}
	if cfg.Redis.MinIdleConns, err = envInt("REDIS_MIN_IDLE_CONNS", 2); err != nil {
		return Config{}, err
	}
	if cfg.Redis.DialTimeout, err = envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Redis.ReadTimeout, err = envDuration("REDIS_READ_TIMEOUT", 3*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Redis.WriteTimeout, err = envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = defaultDSN(cfg.Database.Driver)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot start with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}
	switch c.Database.Allocator {
	case AllocatorSequence, AllocatorMax:
	default:
		return fmt.Errorf("ID_ALLOCATOR must be %q or %q, got %q", AllocatorSequence, AllocatorMax, c.Database.Allocator)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.CreateRetries < 1 {
		return fmt.Errorf("CREATE_RETRIES must be at least 1")
	}
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// defaultDSN assembles a connection string from the discrete DB_* variables.
func defaultDSN(driver string) string {
	if driver == DriverSQLite {
		return envString("DB_NAME", "relief.db")
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     host,
		Path:     "/" + envString("DB_NAME", "relief"),
		RawQuery: "sslmode=" + envString("DB_SSLMODE", "disable"),
	}
	if user := os.Getenv("DB_USER"); user != "" {
		if pass, ok := os.LookupEnv("DB_PASSWORD"); ok {
			u.User = url.UserPassword(user, pass)
		} else {
			u.User = url.User(user)
		}
	}
	return u.String()
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	out := strutil.SplitList(v, ",")
	if len(out) == 0 {
		return def
	}
	return out
}
