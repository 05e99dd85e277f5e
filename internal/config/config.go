package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AdminJWTSecret string

	// Booking engine tuning
	FieldAttempts    int
	SessionIdleTTL   time.Duration
	SessionCapacity  int
	AppointmentsFile string

	// Transcript retention
	TranscriptMaxMessages int
	TranscriptTTL         time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		FieldAttempts:    getEnvAsInt("FIELD_ATTEMPTS", 3),
		SessionIdleTTL:   getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute),
		SessionCapacity:  getEnvAsInt("SESSION_CAPACITY", 10000),
		AppointmentsFile: getEnv("APPOINTMENTS_FILE", ""),

		TranscriptMaxMessages: getEnvAsInt("TRANSCRIPT_MAX_MESSAGES", 250),
		TranscriptTTL:         getEnvAsDuration("TRANSCRIPT_TTL", 72*time.Hour),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
