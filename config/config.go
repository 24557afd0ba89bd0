package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"fireworks/database"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated), empty disables publishing

	// Ledger configuration
	StoreRetryMaxElapsedMillis int // Upper bound for retrying serialization conflicts
	RewardCreditTimeoutMillis  int // Per-reward ledger deadline, detached from the session

	// Session configuration
	SessionTickMillis        int // Engine simulation tick
	SessionEventQueueSize    int // Events buffered per session before the oldest are dropped
	SessionIdleTimeoutMillis int // Sessions untouched this long are stopped, 0 keeps them forever
	SessionMaxTotal          int // 0 means unlimited
	SessionMaxPerUser        int // Per signed-in user, 0 means unlimited
	SessionMaxAnonymous      int // Across all anonymous callers, 0 means unlimited

	// Logging configuration
	LogLevel  string
	LogFormat string // "text" or "json"

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelServiceName          string
	OTelExportIntervalMillis int

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// NATSEnabled reports whether committed events should be forwarded to NATS
func (c *Config) NATSEnabled() bool {
	return strings.TrimSpace(c.NATSServers) != ""
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// HTTP
		HTTPAddr: getEnvWithDefault("HTTP_ADDR", ":8080"),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Ledger
		StoreRetryMaxElapsedMillis: getEnvIntWithDefault("STORE_RETRY_MAX_ELAPSED_MS", 2000),
		RewardCreditTimeoutMillis:  getEnvIntWithDefault("REWARD_CREDIT_TIMEOUT_MS", 5000),

		// Sessions
		SessionTickMillis:        getEnvIntWithDefault("SESSION_TICK_MS", 16),
		SessionEventQueueSize:    getEnvIntWithDefault("SESSION_EVENT_QUEUE_SIZE", 512),
		SessionIdleTimeoutMillis: getEnvIntWithDefault("SESSION_IDLE_TIMEOUT_MS", 120000),
		SessionMaxTotal:          getEnvIntWithDefault("SESSION_MAX_TOTAL", 2000),
		SessionMaxPerUser:        getEnvIntWithDefault("SESSION_MAX_PER_USER", 4),
		SessionMaxAnonymous:      getEnvIntWithDefault("SESSION_MAX_ANONYMOUS", 500),

		// Logging
		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		// OpenTelemetry
		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "fireworks"),
		OTelExportIntervalMillis: getEnvIntWithDefault("OTEL_EXPORT_INTERVAL_MS", 30000),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	if config.SessionTickMillis <= 0 {
		return nil, fmt.Errorf("SESSION_TICK_MS must be positive, got %d", config.SessionTickMillis)
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:                "test",
		HTTPAddr:                   ":0",
		StoreRetryMaxElapsedMillis: 200,
		RewardCreditTimeoutMillis:  1000,
		SessionTickMillis:          16,
		SessionEventQueueSize:      64,
		SessionIdleTimeoutMillis:   60000,
		SessionMaxTotal:            100,
		SessionMaxPerUser:          4,
		SessionMaxAnonymous:        20,
		LogLevel:                   "debug",
		LogFormat:                  "text",
		OTelExporterType:           "none",
		OTelServiceName:            "fireworks-test",
		OTelExportIntervalMillis:   1000,
	}
}
