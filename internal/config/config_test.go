package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Port:               "8501",
		ShutdownTimeout:    10 * time.Second,
		SQLiteDBPath:       "./finances.db",
		LogLevel:           "info",
		LogFormat:          "text",
		RateLimitPerMinute: 60,
		MetricsEnabled:     true,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range low",
			mutate:      func(c *Config) { c.Port = "0" },
			wantErr:     true,
			errorString: "invalid port 0: must be between 1 and 65535",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "empty database path",
			mutate:      func(c *Config) { c.SQLiteDBPath = "  " },
			wantErr:     true,
			errorString: "SQLite database path cannot be empty",
		},
		{
			name:        "unknown log level",
			mutate:      func(c *Config) { c.LogLevel = "verbose" },
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
		{
			name:   "log level is case-insensitive",
			mutate: func(c *Config) { c.LogLevel = "DEBUG" },
		},
		{
			name:        "unknown log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml'",
		},
		{
			name:        "rate limit too low",
			mutate:      func(c *Config) { c.RateLimitPerMinute = 0 },
			wantErr:     true,
			errorString: "invalid rate limit 0: must be at least 1 request per minute",
		},
		{
			name:        "rate limit too high",
			mutate:      func(c *Config) { c.RateLimitPerMinute = 10000 },
			wantErr:     true,
			errorString: "invalid rate limit 10000: must be at most 6000 requests per minute",
		},
		{
			name:        "shutdown timeout too short",
			mutate:      func(c *Config) { c.ShutdownTimeout = 100 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid shutdown timeout 100ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestConfig_ValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.LogFormat = "xml"
	cfg.RateLimitPerMinute = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port 'abc'")
	assert.Contains(t, err.Error(), "invalid log format 'xml'")
	assert.Contains(t, err.Error(), "invalid rate limit -1")
}

func TestConfig_ValidateDatabaseParentIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain-file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	cfg := validConfig()
	cfg.SQLiteDBPath = filepath.Join(file, "finances.db")

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, key := range []string{"PORT", "SQLITE_DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "RATE_LIMIT_PER_MINUTE", "METRICS_ENABLED", "SHUTDOWN_TIMEOUT"} {
			t.Setenv(key, "")
		}

		cfg := Load()
		assert.Equal(t, "8501", cfg.Port)
		assert.Equal(t, ":8501", cfg.Addr())
		assert.Equal(t, "./finances.db", cfg.SQLiteDBPath)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, 60, cfg.RateLimitPerMinute)
		assert.True(t, cfg.MetricsEnabled)
		assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("SQLITE_DB_PATH", "/tmp/ledger.db")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("LOG_FORMAT", "json")
		t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
		t.Setenv("METRICS_ENABLED", "false")
		t.Setenv("SHUTDOWN_TIMEOUT", "3s")

		cfg := Load()
		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, "/tmp/ledger.db", cfg.SQLiteDBPath)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, 30, cfg.RateLimitPerMinute)
		assert.False(t, cfg.MetricsEnabled)
		assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("unparseable values fall back to defaults", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")
		t.Setenv("METRICS_ENABLED", "maybe")
		t.Setenv("SHUTDOWN_TIMEOUT", "soon")

		cfg := Load()
		assert.Equal(t, 60, cfg.RateLimitPerMinute)
		assert.True(t, cfg.MetricsEnabled)
		assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	})
}
