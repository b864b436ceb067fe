package config

import (
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{
		"SCHEDHUB_ADDRESS", "SCHEDHUB_DB_DRIVER", "SCHEDHUB_DB_PATH", "SCHEDHUB_FEED",
		"SCHEDHUB_REDIS_URL", "SCHEDHUB_REFRESH_CRON", "SCHEDHUB_LOG_LEVEL", "SCHEDHUB_JWT_SECRET",
	} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	if cfg.Address != DefaultAddress {
		t.Errorf("Address = %q, want %q", cfg.Address, DefaultAddress)
	}
	if cfg.DBDriver != DefaultDBDriver {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, DefaultDBDriver)
	}
	if cfg.Feed != FeedMemory {
		t.Errorf("Feed = %q, want %q", cfg.Feed, FeedMemory)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SCHEDHUB_ADDRESS", "localhost:9000")
	t.Setenv("SCHEDHUB_DB_DRIVER", "sqlite3")
	t.Setenv("SCHEDHUB_ROOM_CODE", "  abcde ")
	t.Setenv("SCHEDHUB_LOG_LEVEL", "DEBUG")

	cfg := FromEnv()
	if cfg.Address != "localhost:9000" {
		t.Errorf("Address = %q", cfg.Address)
	}
	if cfg.DBDriver != "sqlite3" {
		t.Errorf("DBDriver = %q", cfg.DBDriver)
	}
	if cfg.RoomCode != "abcde" {
		t.Errorf("RoomCode = %q", cfg.RoomCode)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DBDriver:    "duckdb",
			DBPath:      "./data/x.ddb",
			Feed:        FeedMemory,
			RefreshCron: DefaultRefreshCron,
			LogLevel:    "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown driver", func(c *Config) { c.DBDriver = "postgres" }, true},
		{"missing path", func(c *Config) { c.DBPath = "" }, true},
		{"redis without url", func(c *Config) { c.Feed = FeedRedis }, true},
		{"redis with url", func(c *Config) { c.Feed = FeedRedis; c.RedisURL = "redis://localhost:6379/0" }, false},
		{"unknown feed", func(c *Config) { c.Feed = "kafka" }, true},
		{"bad cron", func(c *Config) { c.RefreshCron = "every five minutes" }, true},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
