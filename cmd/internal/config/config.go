package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds application configuration
type Config struct {
	Port          string
	LogLevel      string
	StoreBackend  string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string
	DoctorName    string
	Department    string
	PollPatient   string
	PollInterval  time.Duration
}

// Load reads an optional .env file and then the environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		Port:          getEnv("PORT", "6060"),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		StoreBackend:  strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", BackendSQLite))),
		SQLitePath:    getEnv("SQLITE_PATH", "./database.db"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisPrefix:   getEnv("REDIS_PREFIX", "cityhospital:"),
		DoctorName:    getEnv("DOCTOR_NAME", "Dr. Myoui"),
		Department:    getEnv("DEPARTMENT", "Cardiology"),
		PollPatient:   getEnv("POLL_PATIENT", "Ernesto Batumbakal"),
		PollInterval:  getEnvAsDuration("POLL_INTERVAL", 30*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	return defaultValue
}
