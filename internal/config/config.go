package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	BackendPebble   = "pebble"
	BackendPostgres = "postgres"
)

type Config struct {
	// Server configuration
	ServerPort      string `validate:"required,numeric"`
	Environment     string `validate:"oneof=development production test"`
	LogLevel        string `validate:"omitempty,oneof=trace debug info warn error"`
	FrontendAddress string `validate:"omitempty,url"`

	// Operation log storage
	StoreBackend string `validate:"oneof=pebble postgres"`
	PebbleDir    string `validate:"required_if=StoreBackend pebble"`

	// Database configuration, used by the postgres backend
	DBHost     string `validate:"required_if=StoreBackend postgres"`
	DBPort     string `validate:"required_if=StoreBackend postgres"`
	DBUser     string
	DBPassword string
	DBName     string `validate:"required_if=StoreBackend postgres"`

	// Redis configuration, empty disables the listing cache
	RedisAddress string

	// JWT configuration
	JWTSecret string `validate:"required,min=16"`

	// Decryption worker pool
	WorkerCount int `validate:"gt=0"`
	WorkerQueue int `validate:"gte=0"`

	// Hex encoded key for operations without a space
	PersonalKey string `validate:"omitempty,hexadecimal,len=64"`

	// Set when JWTSecret was generated at start
	GeneratedSecret bool `validate:"-"`
}

func (c *Config) Production() bool {
	return c.Environment == "production"
}

// LoadConfig loads configuration from environment variables, reading a
// .env file from the working directory or its parents first.
func LoadConfig() (*Config, error) {
	// Find .env file
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Try to find .env in parent directories
		envPath = filepath.Join("..", ".env")
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			envPath = filepath.Join("..", "..", ".env")
		}
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	cfg := &Config{
		ServerPort:      getEnv("PORT", "8080"),
		Environment:     getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		FrontendAddress: os.Getenv("FRONTEND_ADDRESS"),
		StoreBackend:    getEnv("STORE_BACKEND", BackendPebble),
		PebbleDir:       getEnv("PEBBLE_DIR", "data/oplog"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "encrypted_notes"),
		RedisAddress:    os.Getenv("REDIS_ADDRESS"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		PersonalKey:     os.Getenv("PERSONAL_KEY"),
	}

	var err error
	if cfg.WorkerCount, err = getEnvInt("WORKER_COUNT", 4); err != nil {
		return nil, err
	}
	if cfg.WorkerQueue, err = getEnvInt("WORKER_QUEUE", 256); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		// Tokens issued with a generated secret do not survive a restart.
		cfg.JWTSecret, err = generateRandomSecret(32)
		if err != nil {
			return nil, err
		}
		cfg.GeneratedSecret = true
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// generateRandomSecret returns length random bytes, hex encoded
func generateRandomSecret(length int) (string, error) {
	secret := make([]byte, length)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(secret), nil
}
