// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// AppName is shown in the page header.
	AppName string

	// LogLevel overrides the per-environment log level: "debug", "info", "warn", "error".
	LogLevel string

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string

	Database DatabaseConfig
	Redis    RedisConfig
	HTTP     HTTPConfig
	Activity ActivityConfig
}

// DatabaseConfig holds MariaDB connection parameters. If DATABASE_URL is
// set, it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host     string
	User     string
	Password string
	Name     string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built with the driver's
// Config.FormatDSN() so special characters in passwords are escaped.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	// Empty (the default) disables the name cache and the write rate
	// limiter.
	URL string
}

// HTTPConfig holds settings for the HTTP edge.
type HTTPConfig struct {
	// TrustedProxies lists CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string

	// AllowedOrigins lists origins allowed to call /api/v1 cross-origin.
	AllowedOrigins []string

	// WriteRateLimit is the number of POST /api/v1/activity calls one IP
	// may make per WriteRateWindow. Zero disables limiting.
	WriteRateLimit  int
	WriteRateWindow time.Duration
}

// ActivityConfig holds settings for the activity feed.
type ActivityConfig struct {
	// LookupConcurrency bounds parallel entity lookups per batch.
	LookupConcurrency int

	// NameCacheTTL is how long resolved names stay in Redis. Zero disables
	// the cache.
	NameCacheTTL time.Duration

	// DateLayout is the Go time layout used for every rendered date.
	DateLayout string

	// Timezone is the IANA zone dates are rendered in.
	Timezone string

	// Location is Timezone loaded by Load.
	Location *time.Location

	// DebugLookups logs every failed lookup at debug level.
	DebugLookups bool

	// QueueSize is the capacity of the async write queue.
	QueueSize int

	// Retention is how long records are kept. Zero keeps them forever.
	Retention time.Duration

	// PurgeInterval is how often the retention purge runs.
	PurgeInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if a value is present but unusable.
func Load() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnvInt("PORT", 8080),
		AppName:        getEnv("APP_NAME", "Bizledger"),
		LogLevel:       getEnv("LOG_LEVEL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "bizledger"),
			Password:        getEnv("DB_PASSWORD", "bizledger"),
			Name:            getEnv("DB_NAME", "bizledger"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},

		HTTP: HTTPConfig{
			TrustedProxies:  getEnvList("TRUSTED_PROXIES", []string{"127.0.0.1/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}),
			AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", nil),
			WriteRateLimit:  getEnvInt("WRITE_RATE_LIMIT", 300),
			WriteRateWindow: getEnvDuration("WRITE_RATE_WINDOW", time.Minute),
		},

		Activity: ActivityConfig{
			LookupConcurrency: getEnvInt("ACTIVITY_LOOKUP_CONCURRENCY", 8),
			NameCacheTTL:      getEnvDuration("ACTIVITY_NAME_CACHE_TTL", 10*time.Minute),
			DateLayout:        getEnv("ACTIVITY_DATE_LAYOUT", "02.01.2006 15:04"),
			Timezone:          getEnv("ACTIVITY_TIMEZONE", "Europe/Istanbul"),
			DebugLookups:      getEnvBool("ACTIVITY_DEBUG_LOOKUPS", false),
			QueueSize:         getEnvInt("ACTIVITY_QUEUE_SIZE", 1000),
			Retention:         getEnvDuration("ACTIVITY_RETENTION", 0),
			PurgeInterval:     getEnvDuration("ACTIVITY_PURGE_INTERVAL", 24*time.Hour),
		},
	}

	loc, err := time.LoadLocation(cfg.Activity.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ACTIVITY_TIMEZONE %q: %w", cfg.Activity.Timezone, err)
	}
	cfg.Activity.Location = loc

	if cfg.HTTP.WriteRateLimit > 0 && cfg.HTTP.WriteRateWindow < time.Second {
		return nil, fmt.Errorf("WRITE_RATE_WINDOW must be at least 1s when WRITE_RATE_LIMIT is set")
	}
	if cfg.Activity.LookupConcurrency < 1 {
		return nil, fmt.Errorf("ACTIVITY_LOOKUP_CONCURRENCY must be at least 1")
	}
	if cfg.Activity.Retention < 0 {
		return nil, fmt.Errorf("ACTIVITY_RETENTION must not be negative")
	}
	if cfg.Activity.Retention > 0 && cfg.Activity.PurgeInterval <= 0 {
		return nil, fmt.Errorf("ACTIVITY_PURGE_INTERVAL must be positive when retention is set")
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvBool reads a boolean env var ("1", "true", "yes"...) or returns the default.
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "720h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var or returns the default.
func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
