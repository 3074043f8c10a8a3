package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// MetricsAPIKey guards /metrics when set
	MetricsAPIKey string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Advisory service (OpenAI-compatible chat completions)
	AdvisoryAPIKey  string
	AdvisoryBaseURL string
	AdvisoryModel   string
	AdvisoryTimeout time.Duration

	// Market prices
	PriceProvider    string // "brapi" or "yahoo"
	PriceAPIURL      string
	PriceAPIKey      string
	PriceTimeout     time.Duration
	PriceConcurrency int

	// Price cache; disabled when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PriceCacheTTL time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		MetricsAPIKey: getEnv("METRICS_API_KEY", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "wealthplan"),
		DBPassword: getEnv("DB_PASSWORD", "wealthplan"),
		DBName:     getEnv("DB_NAME", "wealthplan"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		JWTExpirationDur: getDuration("JWT_EXPIRES_IN", 24*time.Hour),

		AdvisoryAPIKey:  getEnv("ADVISORY_API_KEY", ""),
		AdvisoryBaseURL: getEnv("ADVISORY_BASE_URL", ""),
		AdvisoryModel:   getEnv("ADVISORY_MODEL", "gpt-4o-mini"),
		AdvisoryTimeout: getDuration("ADVISORY_TIMEOUT", 60*time.Second),

		PriceProvider:    getEnv("PRICE_PROVIDER", "brapi"),
		PriceAPIURL:      getEnv("PRICE_API_URL", ""),
		PriceAPIKey:      getEnv("PRICE_API_KEY", ""),
		PriceTimeout:     getDuration("PRICE_TIMEOUT", 10*time.Second),
		PriceConcurrency: getInt("PRICE_CONCURRENCY", 8),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		PriceCacheTTL: getDuration("PRICE_CACHE_TTL", 15*time.Minute),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a time.Duration variable, falling back on invalid input.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

// getInt parses an integer variable, falling back on invalid input.
func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}
