// Package config centralizes environment-driven configuration. Values are
// loaded once from the process environment (optionally seeded by a .env file
// in development) and exposed as a typed struct.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration
type Config struct {
	Environment string
	Port        string

	LogLevel string
	LogFile  string

	DatabaseURL string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret string

	GoogleClientID     string
	GoogleClientSecret string

	AWSRegion  string
	AWSBucket  string
	CDNBaseURL string
	SESSender  string

	OTLPEndpoint   string
	TracingEnabled bool
	SamplingRate   float64

	// Origin patterns accepted on WebSocket upgrades
	WSAllowedOrigins []string

	// Feed tuning
	FeedPageSize      int
	FeedAnonymousCap  int
	FeedMinCandidates int
	FeedEagerBatch    int
	FeedDebounce      time.Duration
}

// Load reads configuration from the environment. A missing .env file is not
// an error outside development.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		Port:        getEnvOrDefault("PORT", "8686"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  getEnvOrDefault("LOG_FILE", "server.log"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		AWSRegion:  getEnvOrDefault("AWS_REGION", "ap-south-1"),
		AWSBucket:  os.Getenv("AWS_BUCKET"),
		CDNBaseURL: os.Getenv("CDN_BASE_URL"),
		SESSender:  os.Getenv("SES_SENDER"),

		OTLPEndpoint:   getEnvOrDefault("OTLP_ENDPOINT", "localhost:4318"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		SamplingRate:   getEnvFloat("TRACING_SAMPLING_RATE", 0.1),

		WSAllowedOrigins: getEnvList("WS_ALLOWED_ORIGINS", []string{"*"}),

		FeedPageSize:      getEnvInt("FEED_PAGE_SIZE", 10),
		FeedAnonymousCap:  getEnvInt("FEED_ANONYMOUS_CAP", 10),
		FeedMinCandidates: getEnvInt("FEED_MIN_CANDIDATES", 60),
		FeedEagerBatch:    getEnvInt("FEED_EAGER_BATCH", 2),
		FeedDebounce:      getEnvDuration("FEED_DEBOUNCE", 300*time.Millisecond),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
