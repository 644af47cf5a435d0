package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Gemini AI (evaluator agent)
	GeminiAPIKey         string
	GeminiConcurrentReqs int

	// Session timeouts
	PendingTimeoutMinutes  int
	UnjoinedTimeoutMinutes int

	// Defaults
	DefaultSessionMinutes int

	// Workers
	EvaluationWorkers int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                   getEnvOrDefault("PORT", "8080"),
		Env:                    getEnvOrDefault("ENV", "development"),
		DatabaseURL:            mustGetEnv("DATABASE_URL"),
		RedisURL:               mustGetEnv("REDIS_URL"),
		JWTSecret:              mustGetEnv("JWT_SECRET"),
		GeminiAPIKey:           mustGetEnv("GEMINI_API_KEY"),
		GeminiConcurrentReqs:   getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		PendingTimeoutMinutes:  getEnvAsIntOrDefault("PENDING_SESSION_TIMEOUT_MINUTES", 5),
		UnjoinedTimeoutMinutes: getEnvAsIntOrDefault("UNJOINED_SESSION_TIMEOUT_MINUTES", 60),
		DefaultSessionMinutes:  getEnvAsIntOrDefault("DEFAULT_SESSION_MINUTES", 60),
		EvaluationWorkers:      getEnvAsIntOrDefault("EVALUATION_WORKERS", 3),
		FrontendURL:            getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
