package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the limit tier for one endpoint. Paths ending in "/"
// match by prefix, paths starting with "*" match by suffix (for routes with
// a tenant ID in the middle); Limit <= 0 means unlimited.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	Burst  int
}

// Config holds the limiter's tiers and housekeeping settings.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	EndpointTiers   []EndpointConfig
}

// LoadConfig reads limiter settings from the environment and applies the
// default endpoint tiers.
func LoadConfig() *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		EndpointTiers:   DefaultEndpointTiers(),
	}
}

// DefaultEndpointTiers returns the built-in limit tiers. Build triggers are
// the expensive operation here: each one may spend minutes of model time.
func DefaultEndpointTiers() []EndpointConfig {
	return []EndpointConfig{
		// Health checks are unlimited.
		{Path: "/health", Method: "GET", Limit: 0},

		// Tier 1: build triggers and retries. Each accepted trigger may
		// spend minutes of model time.
		{Path: "*/build", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "*/build/retry", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},

		// Tier 2: write operations.
		{Path: "/tenants", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "*/facts", Method: "POST", Limit: 300, Window: time.Minute, Burst: 30},

		// Tier 3: reads, handled by the default limit.
	}
}

// match finds the tier for a request, falling back to the default limit.
func (c *Config) match(path, method string) EndpointConfig {
	for _, tier := range c.EndpointTiers {
		if tier.Method != method {
			continue
		}
		if tier.Path == path {
			return tier
		}
		if strings.HasPrefix(tier.Path, "*") && strings.HasSuffix(path, tier.Path[1:]) {
			return tier
		}
		if strings.HasSuffix(tier.Path, "/") && strings.HasPrefix(path, tier.Path) {
			return tier
		}
	}
	return EndpointConfig{
		Path:   "*",
		Method: method,
		Limit:  c.DefaultLimit,
		Window: c.DefaultWindow,
		Burst:  c.DefaultLimit,
	}
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
