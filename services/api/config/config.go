package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort           = 8080
	defaultLimit          = 5000
	defaultDays           = 7
	defaultRequestTimeout = 15 * time.Second
	defaultMaxGapBuckets  = 100000
	defaultMaxBodyBytes   = 8 << 20
)

// Config holds environment-driven settings for the REST API.
type Config struct {
	// DatabaseURL enables the Postgres observation source. Optional.
	DatabaseURL string
	// SQLitePath enables the SQLite source when no DatabaseURL is set.
	SQLitePath     string
	CatalogPath    string
	DisplayTZ      *time.Location
	Port           int
	DefaultLimit   int
	DefaultDays    int
	LogLevel       slog.Level
	RequestTimeout time.Duration
	// MaxGapBuckets caps the gap-fill lattice of a single chart.
	MaxGapBuckets int
	MaxBodyBytes  int64
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		DisplayTZ:      time.UTC,
		Port:           defaultPort,
		DefaultLimit:   defaultLimit,
		DefaultDays:    defaultDays,
		LogLevel:       slog.LevelInfo,
		RequestTimeout: defaultRequestTimeout,
		MaxGapBuckets:  defaultMaxGapBuckets,
		MaxBodyBytes:   defaultMaxBodyBytes,
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.SQLitePath = strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	cfg.CatalogPath = strings.TrimSpace(os.Getenv("CATALOG_PATH"))

	if tz := strings.TrimSpace(os.Getenv("DISPLAY_TZ")); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("invalid DISPLAY_TZ: %w", err)
		}
		cfg.DisplayTZ = loc
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := os.Getenv("API_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid API_PORT: %s", portStr)
		}
	}

	if limitStr := os.Getenv("API_DEFAULT_LIMIT"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			cfg.DefaultLimit = limit
		} else {
			return cfg, fmt.Errorf("invalid API_DEFAULT_LIMIT: %s", limitStr)
		}
	}

	if daysStr := os.Getenv("API_DEFAULT_DAYS"); daysStr != "" {
		if days, err := strconv.Atoi(daysStr); err == nil && days > 0 {
			cfg.DefaultDays = days
		} else {
			return cfg, fmt.Errorf("invalid API_DEFAULT_DAYS: %s", daysStr)
		}
	}

	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		level, err := ParseLogLevel(v)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = level
	}

	if v := strings.TrimSpace(os.Getenv("REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return cfg, fmt.Errorf("invalid REQUEST_TIMEOUT: %s", v)
		}
		cfg.RequestTimeout = d
	}

	if v := os.Getenv("MAX_GAP_BUCKETS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxGapBuckets = n
		} else {
			return cfg, fmt.Errorf("invalid MAX_GAP_BUCKETS: %s", v)
		}
	}

	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxBodyBytes = n
		} else {
			return cfg, fmt.Errorf("invalid MAX_BODY_BYTES: %s", v)
		}
	}

	return cfg, nil
}

// ParseLogLevel accepts debug, info, warn or error.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
