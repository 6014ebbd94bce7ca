package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported record store drivers
const (
	StoreDriverMongoDB = "mongodb"
	StoreDriverSQLite  = "sqlite"

	// DefaultSweepSchedule is used when SWEEP_SCHEDULE is unset or blank
	DefaultSweepSchedule = "@every 1m"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	MongoDB  MongoDBConfig
	SQLite   SQLiteConfig
	Sweeper  SweeperConfig
	InfluxDB InfluxDBConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	Host            string
	BasePath        string // Mount point of the task routes
	AllowedOrigin   string // Access-Control-Allow-Origin value
	ShutdownTimeout time.Duration
}

// StoreConfig selects the record store backend
type StoreConfig struct {
	Driver string
}

// MongoDBConfig holds MongoDB connection details
type MongoDBConfig struct {
	URI        string
	Username   string
	Password   string
	Host       string
	Port       string
	Database   string
	Collection string
	AuthSource string // Database to authenticate against (default: admin)
}

// SQLiteConfig holds the SQLite database location
type SQLiteConfig struct {
	Path string
}

// SweeperConfig controls the overdue task sweeper
type SweeperConfig struct {
	Enabled    bool
	Schedule   string // cron expression, seconds field optional (e.g. "@every 1m", "0 * * * * *")
	Timeout    time.Duration
	RunOnStart bool
}

// InfluxDBConfig holds InfluxDB connection details for sweep metrics.
// Metrics are disabled when URL is empty
type InfluxDBConfig struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8000"),
			Host:            getEnv("HOST", "0.0.0.0"),
			BasePath:        getEnv("TASKS_BASE_PATH", "/"),
			AllowedOrigin:   getEnv("CORS_ALLOWED_ORIGIN", "*"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverMongoDB)),
		},
		MongoDB: MongoDBConfig{
			URI:        getEnv("MONGODB_URI", ""),
			Username:   getEnv("MONGODB_USERNAME", ""),
			Password:   getEnv("MONGODB_PASSWORD", ""),
			Host:       getEnv("MONGODB_HOST", "localhost"),
			Port:       getEnv("MONGODB_PORT", "27017"),
			Database:   getEnv("MONGODB_DATABASE", "tasks"),
			Collection: getEnv("MONGODB_COLLECTION", "tasks"),
			AuthSource: getEnv("MONGODB_AUTH_SOURCE", "admin"),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "tasks.db"),
		},
		Sweeper: SweeperConfig{
			Enabled:    getEnvBool("SWEEP_ENABLED", true),
			Schedule:   getEnv("SWEEP_SCHEDULE", DefaultSweepSchedule),
			Timeout:    getEnvDuration("SWEEP_TIMEOUT", 30*time.Second),
			RunOnStart: getEnvBool("SWEEP_ON_START", false),
		},
		InfluxDB: InfluxDBConfig{
			URL:         getEnv("INFLUXDB2_URL", ""),
			Token:       getEnv("INFLUXDB2_TOKEN", ""),
			Org:         getEnv("INFLUXDB2_ORG", ""),
			Bucket:      getEnv("INFLUXDB2_BUCKET", ""),
			Measurement: getEnv("INFLUXDB2_MEASUREMENT", "task_sweeps"),
		},
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ValidateConfig validates that required configuration values are present
func ValidateConfig(config *Config) error {
	switch config.Store.Driver {
	case StoreDriverMongoDB:
		if config.MongoDB.URI == "" && config.MongoDB.Host == "" {
			return fmt.Errorf("MONGODB_URI or MONGODB_HOST is required when STORE_DRIVER=%s", StoreDriverMongoDB)
		}
	case StoreDriverSQLite:
		if config.SQLite.Path == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=%s", StoreDriverSQLite)
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q (expected %s or %s)", config.Store.Driver, StoreDriverMongoDB, StoreDriverSQLite)
	}

	if !strings.HasPrefix(config.Server.BasePath, "/") {
		return fmt.Errorf("TASKS_BASE_PATH must start with /")
	}
	if config.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}

	if config.Sweeper.Enabled {
		if strings.TrimSpace(config.Sweeper.Schedule) == "" {
			return fmt.Errorf("SWEEP_SCHEDULE is required when the sweeper is enabled")
		}
		if config.Sweeper.Timeout <= 0 {
			return fmt.Errorf("SWEEP_TIMEOUT must be positive")
		}
	}

	// InfluxDB is optional, but a partial configuration is a mistake
	if config.InfluxDB.URL != "" {
		if config.InfluxDB.Token == "" {
			return fmt.Errorf("INFLUXDB2_TOKEN is required when INFLUXDB2_URL is set")
		}
		if config.InfluxDB.Org == "" {
			return fmt.Errorf("INFLUXDB2_ORG is required when INFLUXDB2_URL is set")
		}
		if config.InfluxDB.Bucket == "" {
			return fmt.Errorf("INFLUXDB2_BUCKET is required when INFLUXDB2_URL is set")
		}
	}

	return nil
}

// Helper functions for environment variable access
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
