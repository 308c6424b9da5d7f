// Package config provides configuration loading and validation for the
// storefront builder service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the service needs to run. Values come from the
// environment; every field except DatabaseURL and GeminiAPIKey has a
// working default.
type Config struct {
	// Server
	Port int

	// Storage
	DatabaseURL string

	// Generation
	GeminiAPIKey string
	GeminiModel  string

	// Build budgets
	SectionTimeout      time.Duration
	PipelineTimeout     time.Duration
	StuckThreshold      time.Duration
	MaxBuildRetries     int
	MaxConcurrentBuilds int64

	// Summary cache
	SummaryCacheSize int
	SummaryCacheTTL  time.Duration
}

// Load reads configuration from the environment and applies defaults.
func Load() *Config {
	return &Config{
		Port:                getEnvInt("PORT", 8080),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         getEnvString("GEMINI_MODEL", "gemini-2.5-flash"),
		SectionTimeout:      getEnvDuration("BUILD_SECTION_TIMEOUT", 45*time.Second),
		PipelineTimeout:     getEnvDuration("BUILD_PIPELINE_TIMEOUT", 120*time.Second),
		StuckThreshold:      getEnvDuration("BUILD_STUCK_THRESHOLD", 6*time.Minute),
		MaxBuildRetries:     getEnvInt("BUILD_MAX_RETRIES", 3),
		MaxConcurrentBuilds: int64(getEnvInt("BUILD_MAX_CONCURRENT", 4)),
		SummaryCacheSize:    getEnvInt("SUMMARY_CACHE_SIZE", 1024),
		SummaryCacheTTL:     getEnvDuration("SUMMARY_CACHE_TTL", 30*time.Second),
	}
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("config error: GEMINI_API_KEY is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.SectionTimeout <= 0 || c.PipelineTimeout <= 0 || c.StuckThreshold <= 0 {
		return fmt.Errorf("config error: build timeouts must be positive")
	}
	if c.SectionTimeout > c.PipelineTimeout {
		return fmt.Errorf("config error: BUILD_SECTION_TIMEOUT (%s) exceeds BUILD_PIPELINE_TIMEOUT (%s)",
			c.SectionTimeout, c.PipelineTimeout)
	}
	if c.StuckThreshold <= c.PipelineTimeout {
		return fmt.Errorf("config error: BUILD_STUCK_THRESHOLD (%s) must exceed BUILD_PIPELINE_TIMEOUT (%s)",
			c.StuckThreshold, c.PipelineTimeout)
	}
	if c.MaxBuildRetries < 0 {
		return fmt.Errorf("config error: BUILD_MAX_RETRIES must be non-negative")
	}
	if c.MaxConcurrentBuilds < 1 {
		return fmt.Errorf("config error: BUILD_MAX_CONCURRENT must be at least 1")
	}
	return nil
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
