package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendS3    = "s3"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Store       StoreConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	S3          S3Config
	Assistant   AssistantConfig
	Log         LogConfig
	OTEL        OTELConfig
	Idempotency IdempotencyConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string
	BodyLimitKB    int64
	RequestTimeout time.Duration
}

// StoreConfig selects the key-value backend the ledger is flushed to
type StoreConfig struct {
	Backend   string
	KeyPrefix string
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// S3Config holds S3-compatible object store configuration
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// AssistantConfig holds the chat-completions endpoint configuration
type AssistantConfig struct {
	Enabled      bool
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration
	SystemPrompt string
}

// LogConfig holds logrus configuration
type LogConfig struct {
	Level    string
	JSON     bool
	FileName string
	Stdout   bool
}

// OTELConfig holds OpenTelemetry exporter configuration
type OTELConfig struct {
	Enabled        bool
	Endpoint       string
	PathPrefix     string // e.g. "/otlp" for Grafana Cloud
	Insecure       bool
	Headers        map[string]string
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// IdempotencyConfig controls X-Correlation-ID replay of mutating requests
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

const defaultSystemPrompt = "You are an virtual personal trainer. Provide fitness advice, workout tips, and nutrition guidance using clear, concise, and supportive language."

// Load reads configuration from environment variables
// It attempts to load from .env file first, then falls back to system env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "3000"),
			BodyLimitKB:    getEnvAsInt64("BODY_LIMIT_KB", 512),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Backend:   strings.ToLower(getEnv("STORE_BACKEND", BackendRedis)),
			KeyPrefix: getEnv("STORE_KEY_PREFIX", "workout-assistant:"),
		},
		MongoDB: MongoDBConfig{
			URI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:   getEnv("MONGODB_DATABASE", "workout_assistant"),
			Collection: getEnv("MONGODB_COLLECTION", "kv"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       int(getEnvAsInt64("REDIS_DB", 0)),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", "http://localhost:8333"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", "workout-assistant"),
			AccessKey: getEnv("S3_ACCESS_KEY", "any"),
			SecretKey: getEnv("S3_SECRET_KEY", "any"),
		},
		Assistant: AssistantConfig{
			Enabled:      getEnvAsBool("ASSISTANT_ENABLED", true),
			BaseURL:      getEnv("ASSISTANT_BASE_URL", "https://api.openai.com/v1/chat/completions"),
			APIKey:       getEnv("CHATBOT_API_KEY", ""),
			Model:        getEnv("ASSISTANT_MODEL", "gpt-4o-mini-2024-07-18"),
			Timeout:      getEnvAsDuration("ASSISTANT_TIMEOUT", 60*time.Second),
			SystemPrompt: getEnv("ASSISTANT_SYSTEM_PROMPT", defaultSystemPrompt),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			JSON:     getEnvAsBool("LOG_JSON", false),
			FileName: getEnv("LOG_FILE", ""),
			Stdout:   getEnvAsBool("LOG_STDOUT", true),
		},
		OTEL: OTELConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			PathPrefix:     getEnv("OTEL_EXPORTER_OTLP_PATH_PREFIX", ""),
			Insecure:       getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			Headers:        parseHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", "")),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "workout-assistant"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    getEnv("OTEL_ENVIRONMENT", "local"),
		},
		Idempotency: IdempotencyConfig{
			Enabled: getEnvAsBool("IDEMPOTENCY_ENABLED", true),
			TTL:     getEnvAsDuration("IDEMPOTENCY_TTL", 10*time.Minute),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendRedis, BackendMongo, BackendS3:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of redis, mongo, s3 (got %q)", c.Store.Backend)
	}
	if c.Assistant.Enabled {
		if c.Assistant.APIKey == "" {
			return fmt.Errorf("CHATBOT_API_KEY is required when the assistant is enabled")
		}
		if c.Assistant.Model == "" {
			return fmt.Errorf("ASSISTANT_MODEL is required")
		}
	}
	if c.Store.Backend == BackendS3 && c.S3.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required for the s3 backend")
	}
	return nil
}

// UsesRedis reports whether a Redis connection is needed at all
func (c *Config) UsesRedis() bool {
	return c.Store.Backend == BackendRedis || c.Idempotency.Enabled
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// parseHeaders reads "k1=v1,k2=v2" into a map
func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		headers[k] = v
	}
	return headers
}
