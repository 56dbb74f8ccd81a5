package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration loaded from the environment
type Config struct {
	AppEnv string
	Port   string

	// DBPath is the sqlite DSN (file path or file: URI)
	DBPath string

	// JWTSecret verifies bearer tokens issued by the auth provider
	JWTSecret string

	LogLevel  string
	LogFormat string // text or json

	// MaxFileSize caps uploaded import files, in bytes
	MaxFileSize int64

	// ImportConcurrency is the number of in-flight inserts during commit (1 = sequential)
	ImportConcurrency int

	// SessionTTL is how long an untouched import session stays in memory
	SessionTTL time.Duration
}

// LoadConfig reads .env (if present) and environment variables, applying defaults
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DBPath:            getEnv("DB_PATH", "./data/employee-import.db"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		MaxFileSize:       int64(getEnvAsInt("IMPORT_MAX_FILE_SIZE", 5*1024*1024)),
		ImportConcurrency: getEnvAsInt("IMPORT_CONCURRENCY", 1),
		SessionTTL:        getEnvAsDuration("IMPORT_SESSION_TTL", 30*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted safely
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.AppEnv != "development" {
			return errors.New("JWT_SECRET is required outside development")
		}
		c.JWTSecret = "development-secret"
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("IMPORT_MAX_FILE_SIZE must be positive, got %d", c.MaxFileSize)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("IMPORT_SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.ImportConcurrency < 1 {
		return fmt.Errorf("IMPORT_CONCURRENCY must be at least 1, got %d", c.ImportConcurrency)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
