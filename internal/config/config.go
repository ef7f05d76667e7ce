package config

import (
	"os"
	"strconv"
	"time"

	"godna/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig `validate:"required"`
	Server    ServerConfig   `validate:"required"`
	Auth      AuthConfig     `validate:"required"`
	Data      DataConfig     `validate:"required"`
	Forecast  ForecastConfig
	Profiling ProfilingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string `validate:"required"`
	Reset   bool
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required"`
	OpsPort string
	GinMode string
}

// AuthConfig holds the analyst surface credentials
type AuthConfig struct {
	Username string
	Password string
}

// DataConfig holds data import and seeding settings
type DataConfig struct {
	ExcelFile string
	Seed      int64
}

// ForecastConfig holds engine tuning knobs
type ForecastConfig struct {
	AuditParallelism int
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	// Load database configuration
	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	config.Server = *loadServerConfig()
	config.Auth = *loadAuthConfig()
	config.Data = *loadDataConfig()
	config.Forecast = *loadForecastConfig()
	config.Profiling = *loadProfilingConfig()

	// Validate required fields
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		URL:     url,
		Reset:   getEnvBoolOrDefault("DB_RESET", false),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		OpsPort: getEnvOrDefault("OPS_PORT", "9090"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadAuthConfig() *AuthConfig {
	return &AuthConfig{
		Username: getEnvOrDefault("APP_USERNAME", "demo"),
		Password: getEnvOrDefault("APP_PASSWORD", "demo2026"),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		ExcelFile: getEnvOrDefault("EXCEL_FILE", ""),
		Seed:      getEnvInt64OrDefault("SEED", 42),
	}
}

func loadForecastConfig() *ForecastConfig {
	return &ForecastConfig{
		AuditParallelism: getEnvIntOrDefault("AUDIT_PARALLELISM", 4),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("database URL is required")
	}
	if config.Auth.Username == "" || config.Auth.Password == "" {
		return errors.ConfigInvalid("analyst credentials are required")
	}
	if config.Forecast.AuditParallelism < 1 {
		return errors.ConfigInvalid("audit parallelism must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// Duration parsing helper (for future use)
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
