package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Storage driver names
const (
	StorageMemory   = "memory"
	StorageDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Storage configuration
	StorageDriver  string // memory or dynamodb
	StorageTimeout time.Duration

	// AWS configuration
	AWSRegion    string
	DraftsTable  string
	LedgerTable  string
	LocksTable   string
	EventBusName string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Commit coordination
	CommitLockDuration time.Duration
	CommitLockTimeout  time.Duration

	// Rate limiting
	RateLimitPerMinute int

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
	EnableEvents  bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StorageDriver:  getEnv("STORAGE_DRIVER", StorageMemory),
		StorageTimeout: getEnvDuration("STORAGE_TIMEOUT", 10*time.Second),

		AWSRegion:    getEnv("AWS_REGION", "ap-south-1"),
		DraftsTable:  getEnv("DRAFTS_TABLE", "eatclub-drafts"),
		LedgerTable:  getEnv("LEDGER_TABLE", "eatclub-ledger"),
		LocksTable:   getEnv("LOCKS_TABLE", "eatclub-locks"),
		EventBusName: getEnv("EVENT_BUS_NAME", "eatclub-events"),

		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		CommitLockDuration: getEnvDuration("COMMIT_LOCK_DURATION", 30*time.Second),
		CommitLockTimeout:  getEnvDuration("COMMIT_LOCK_TIMEOUT", 10*time.Second),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		EnableEvents:  getEnvBool("ENABLE_EVENTS", false),
	}
	cfg.IsLambda = getEnvBool("IS_LAMBDA", false) || cfg.LambdaFunctionName != ""

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageDynamoDB:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.IsProduction() {
		if c.StorageDriver != StorageDynamoDB {
			return fmt.Errorf("STORAGE_DRIVER must be dynamodb in production")
		}
		if c.DraftsTable == "" {
			return fmt.Errorf("DRAFTS_TABLE is required")
		}
		if c.LedgerTable == "" {
			return fmt.Errorf("LEDGER_TABLE is required")
		}
		if c.EnableEvents && c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
