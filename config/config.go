package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// ============================================================================
// Configuration
//
// All settings come from SCHEDHUB_* environment variables. An optional .env
// file in the working directory is loaded first; variables already present
// in the environment win over the file.
// ============================================================================

// Feed backends
const (
	FeedMemory = "memory"
	FeedRedis  = "redis"
)

// Config holds the runtime configuration of the dashboard server
type Config struct {
	Address     string // Listen address (SCHEDHUB_ADDRESS)
	DBDriver    string // duckdb or sqlite3 (SCHEDHUB_DB_DRIVER)
	DBPath      string // Database file (SCHEDHUB_DB_PATH)
	Feed        string // memory or redis (SCHEDHUB_FEED)
	RedisURL    string // redis://host:port/db (SCHEDHUB_REDIS_URL)
	FeedPrefix  string // Redis channel prefix (SCHEDHUB_FEED_PREFIX)
	RefreshCron string // Reconciliation schedule (SCHEDHUB_REFRESH_CRON)
	PrefsPath   string // Preferences YAML (SCHEDHUB_PREFS_PATH)
	JWTSecret   string // Room token secret (SCHEDHUB_JWT_SECRET)
	RoomCode    string // Household to bind at startup (SCHEDHUB_ROOM_CODE)
	LogLevel    string // debug, info, warn, error (SCHEDHUB_LOG_LEVEL)
}

// Defaults
const (
	DefaultAddress     = ":8000"
	DefaultDBDriver    = "duckdb"
	DefaultDBPath      = "./data/schedule.ddb"
	DefaultFeedPrefix  = "events"
	DefaultRefreshCron = "*/5 * * * *"
	DefaultPrefsPath   = "./data/prefs.yaml"
	DefaultLogLevel    = "info"

	minSecretLength = 32
)

// Load reads configuration from the environment, after loading .env if present
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, serr.Wrap(err, "failed to load .env file")
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment without touching .env
func FromEnv() *Config {
	return &Config{
		Address:     envOr("SCHEDHUB_ADDRESS", DefaultAddress),
		DBDriver:    envOr("SCHEDHUB_DB_DRIVER", DefaultDBDriver),
		DBPath:      envOr("SCHEDHUB_DB_PATH", DefaultDBPath),
		Feed:        envOr("SCHEDHUB_FEED", FeedMemory),
		RedisURL:    os.Getenv("SCHEDHUB_REDIS_URL"),
		FeedPrefix:  envOr("SCHEDHUB_FEED_PREFIX", DefaultFeedPrefix),
		RefreshCron: envOr("SCHEDHUB_REFRESH_CRON", DefaultRefreshCron),
		PrefsPath:   envOr("SCHEDHUB_PREFS_PATH", DefaultPrefsPath),
		JWTSecret:   os.Getenv("SCHEDHUB_JWT_SECRET"),
		RoomCode:    strings.TrimSpace(os.Getenv("SCHEDHUB_ROOM_CODE")),
		LogLevel:    strings.ToLower(envOr("SCHEDHUB_LOG_LEVEL", DefaultLogLevel)),
	}
}

// Validate fails fast on misconfiguration rather than at first use
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "duckdb", "sqlite3":
	default:
		return serr.New("SCHEDHUB_DB_DRIVER must be duckdb or sqlite3, got " + c.DBDriver)
	}
	if c.DBPath == "" {
		return serr.New("SCHEDHUB_DB_PATH is required")
	}

	switch c.Feed {
	case FeedMemory:
	case FeedRedis:
		if c.RedisURL == "" {
			return serr.New("SCHEDHUB_REDIS_URL is required when SCHEDHUB_FEED=redis")
		}
	default:
		return serr.New("SCHEDHUB_FEED must be memory or redis, got " + c.Feed)
	}

	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return serr.Wrap(err, "invalid SCHEDHUB_REFRESH_CRON")
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < minSecretLength {
		return serr.New("SCHEDHUB_JWT_SECRET must be at least 32 characters")
	}
	if c.JWTSecret == "" {
		logger.Info("SCHEDHUB_JWT_SECRET not set, using the development secret")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return serr.New("SCHEDHUB_LOG_LEVEL must be debug, info, warn or error")
	}
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
