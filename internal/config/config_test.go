package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads; empty values count as unset
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"PORT", "HOST", "TASKS_BASE_PATH", "CORS_ALLOWED_ORIGIN", "SHUTDOWN_TIMEOUT",
		"STORE_DRIVER", "MONGODB_URI", "MONGODB_USERNAME", "MONGODB_PASSWORD", "MONGODB_HOST",
		"MONGODB_PORT", "MONGODB_DATABASE", "MONGODB_COLLECTION", "MONGODB_AUTH_SOURCE",
		"SQLITE_PATH", "SWEEP_ENABLED", "SWEEP_SCHEDULE", "SWEEP_TIMEOUT", "SWEEP_ON_START",
		"INFLUXDB2_URL", "INFLUXDB2_TOKEN", "INFLUXDB2_ORG", "INFLUXDB2_BUCKET", "INFLUXDB2_MEASUREMENT",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "/", cfg.Server.BasePath)
	assert.Equal(t, "*", cfg.Server.AllowedOrigin)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, StoreDriverMongoDB, cfg.Store.Driver)
	assert.Equal(t, "tasks", cfg.MongoDB.Database)
	assert.Equal(t, "tasks", cfg.MongoDB.Collection)
	assert.Equal(t, "tasks.db", cfg.SQLite.Path)
	assert.True(t, cfg.Sweeper.Enabled)
	assert.Equal(t, "@every 1m", cfg.Sweeper.Schedule)
	assert.Equal(t, 30*time.Second, cfg.Sweeper.Timeout)
	assert.False(t, cfg.Sweeper.RunOnStart)
	assert.Empty(t, cfg.InfluxDB.URL)
	assert.Equal(t, "task_sweeps", cfg.InfluxDB.Measurement)
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("TASKS_BASE_PATH", "/api/tasks")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("SWEEP_SCHEDULE", "*/10 * * * * *")
	t.Setenv("SWEEP_TIMEOUT", "5s")
	t.Setenv("SWEEP_ON_START", "true")
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "/api/tasks", cfg.Server.BasePath)
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, ":memory:", cfg.SQLite.Path)
	assert.Equal(t, "*/10 * * * * *", cfg.Sweeper.Schedule)
	assert.Equal(t, 5*time.Second, cfg.Sweeper.Timeout)
	assert.True(t, cfg.Sweeper.RunOnStart)
	// Unparseable values fall back to the default
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{BasePath: "/", ShutdownTimeout: time.Second},
		Store:   StoreConfig{Driver: StoreDriverSQLite},
		SQLite:  SQLiteConfig{Path: "tasks.db"},
		Sweeper: SweeperConfig{Enabled: true, Schedule: "@every 1m", Timeout: time.Second},
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Store.Driver = "postgres" },
			wantErr: "unsupported STORE_DRIVER",
		},
		{
			name: "mongodb without host",
			mutate: func(c *Config) {
				c.Store.Driver = StoreDriverMongoDB
			},
			wantErr: "MONGODB_URI or MONGODB_HOST",
		},
		{
			name:    "base path without slash",
			mutate:  func(c *Config) { c.Server.BasePath = "tasks" },
			wantErr: "TASKS_BASE_PATH",
		},
		{
			name:    "empty schedule",
			mutate:  func(c *Config) { c.Sweeper.Schedule = " " },
			wantErr: "SWEEP_SCHEDULE",
		},
		{
			name: "disabled sweeper ignores schedule",
			mutate: func(c *Config) {
				c.Sweeper.Enabled = false
				c.Sweeper.Schedule = ""
			},
		},
		{
			name:    "non-positive sweep timeout",
			mutate:  func(c *Config) { c.Sweeper.Timeout = 0 },
			wantErr: "SWEEP_TIMEOUT",
		},
		{
			name:    "influx without token",
			mutate:  func(c *Config) { c.InfluxDB.URL = "http://localhost:8086" },
			wantErr: "INFLUXDB2_TOKEN",
		},
		{
			name: "complete influx config",
			mutate: func(c *Config) {
				c.InfluxDB = InfluxDBConfig{URL: "http://localhost:8086", Token: "t", Org: "o", Bucket: "b"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
