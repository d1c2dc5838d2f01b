// Package config loads application configuration from the environment,
// with optional .env file support.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all settings for a pull run.
type Config struct {
	// APIKey is the BLS registration key (required).
	APIKey string

	// APIBaseURL overrides the BLS endpoint (default: the public v2 API).
	APIBaseURL string

	// StartYear and EndYear bound the pull, inclusive.
	StartYear int
	EndYear   int

	// BatchInterval is the pause between consecutive batch calls.
	BatchInterval time.Duration

	// MaxBatchFailures aborts the run when exceeded; negative disables.
	MaxBatchFailures int

	// CSVOutputPath is where the merged table is written.
	CSVOutputPath string

	// PostgresDSN, when set, additionally writes the merged table to PostgreSQL.
	PostgresDSN string

	// LogLevel for the run (debug, info, warn, error).
	LogLevel string

	// LogPretty enables human-readable console logs.
	LogPretty bool
}

// Load reads the .env file (when present) and returns a populated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using process environment")
	}

	cfg := &Config{
		APIKey:           os.Getenv("BLS_API_KEY"),
		APIBaseURL:       os.Getenv("BLS_API_URL"),
		StartYear:        getEnvInt("START_YEAR", 1990),
		EndYear:          getEnvInt("END_YEAR", time.Now().Year()),
		BatchInterval:    time.Duration(getEnvInt("BATCH_INTERVAL_MS", 1000)) * time.Millisecond,
		MaxBatchFailures: getEnvInt("MAX_BATCH_FAILURES", -1),
		CSVOutputPath:    getEnv("CSV_OUTPUT_PATH", "./output/merged_national_parish.csv"),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogPretty:        getEnvBool("LOG_PRETTY", false),
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("BLS_API_KEY is required")
	}
	if cfg.StartYear > cfg.EndYear {
		return nil, fmt.Errorf("START_YEAR %d after END_YEAR %d", cfg.StartYear, cfg.EndYear)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
