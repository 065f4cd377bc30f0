// Package config loads environment configuration for the agent binaries.
// Values come from the process environment, optionally seeded from a .env
// file; command-line flags take precedence in each binary.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"lp-arena-agent/internal/logger"
)

// LoadEnv seeds the process environment from .env when one exists.
// A missing file is not an error.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// GetString returns the env value or the fallback when unset/empty.
func GetString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetInt returns the env value parsed as int, or the fallback.
func GetInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// GetBool returns the env value parsed as bool, or the fallback.
func GetBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// GetDuration returns the env value parsed with time.ParseDuration, or the
// fallback.
func GetDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// LoggerOptions builds logger options from LOG_* env vars.
func LoggerOptions() logger.Options {
	return logger.Options{
		Level:      GetString("LOG_LEVEL", "info"),
		Output:     GetString("LOG_OUTPUT", "console"),
		File:       GetString("LOG_FILE", "logs/agent.log"),
		MaxSizeMB:  GetInt("LOG_MAX_SIZE_MB", 100),
		MaxBackups: GetInt("LOG_MAX_BACKUPS", 5),
		MaxAgeDays: GetInt("LOG_MAX_AGE_DAYS", 14),
		Compress:   GetBool("LOG_COMPRESS", true),
	}
}
