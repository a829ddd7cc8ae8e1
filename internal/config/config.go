package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Environment
	Env string

	// Database URLs
	PostgresURL   string
	ClickHouseURL string
	RedisURL      string

	// Prediction pipeline
	HorizonDays int
	WorkerCount int

	// Rating system
	InitialRating float64
	KFactor       float64
	RecentWindow  int

	// External call bounds
	StoreTimeout     time.Duration
	PredictorTimeout time.Duration
	RetryAttempts    int
	RetryBackoff     time.Duration
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnv("ENV", "development"),

		HorizonDays: getEnvInt("HORIZON_DAYS", 7),
		WorkerCount: getEnvInt("WORKER_COUNT", 8),

		InitialRating: getEnvFloat("ELO_INITIAL", 1500),
		KFactor:       getEnvFloat("ELO_K_FACTOR", 20),
		RecentWindow:  getEnvInt("RECENT_WINDOW", 10),

		StoreTimeout:     getEnvDuration("STORE_TIMEOUT", 30*time.Second),
		PredictorTimeout: getEnvDuration("PREDICTOR_TIMEOUT", 60*time.Second),
		RetryAttempts:    getEnvInt("RETRY_ATTEMPTS", 3),
		RetryBackoff:     getEnvDuration("RETRY_BACKOFF", 2*time.Second),
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.ClickHouseURL, err = getEnvRequired("CLICKHOUSE_URL"); err != nil {
		return nil, err
	}
	if cfg.RedisURL, err = getEnvRequired("REDIS_URL"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
