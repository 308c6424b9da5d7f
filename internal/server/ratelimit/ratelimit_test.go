package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLimiter(t *testing.T, cfg *Config) *Limiter {
	t.Helper()
	l := NewLimiter(cfg)
	t.Cleanup(l.Stop)
	return l
}

func TestAllow_BurstThenLimited(t *testing.T) {
	l := testLimiter(t, &Config{
		Enabled: true,
		EndpointTiers: []EndpointConfig{
			{Path: "*/build", Method: "POST", Limit: 30, Window: time.Hour, Burst: 3},
		},
	})

	path := "/tenants/abc/build"
	for i := 0; i < 3; i++ {
		allowed, _ := l.Allow("10.0.0.1", path, "POST")
		require.True(t, allowed, "request %d within burst must pass", i+1)
	}

	allowed, info := l.Allow("10.0.0.1", path, "POST")
	assert.False(t, allowed)
	assert.Equal(t, 30, info.Limit)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
}

func TestAllow_ClientsAreIndependent(t *testing.T) {
	l := testLimiter(t, &Config{
		Enabled: true,
		EndpointTiers: []EndpointConfig{
			{Path: "*/build", Method: "POST", Limit: 10, Window: time.Hour, Burst: 1},
		},
	})

	path := "/tenants/abc/build"
	allowed, _ := l.Allow("10.0.0.1", path, "POST")
	require.True(t, allowed)
	allowed, _ = l.Allow("10.0.0.1", path, "POST")
	require.False(t, allowed)

	// A different client has its own bucket.
	allowed, _ = l.Allow("10.0.0.2", path, "POST")
	assert.True(t, allowed)
}

func TestAllow_TokensRefill(t *testing.T) {
	l := testLimiter(t, &Config{
		Enabled: true,
		EndpointTiers: []EndpointConfig{
			// 100 per second: a full token comes back within a short sleep.
			{Path: "/ping", Method: "GET", Limit: 100, Window: time.Second, Burst: 1},
		},
	})

	allowed, _ := l.Allow("c", "/ping", "GET")
	require.True(t, allowed)
	allowed, _ = l.Allow("c", "/ping", "GET")
	require.False(t, allowed)

	time.Sleep(20 * time.Millisecond)
	allowed, _ = l.Allow("c", "/ping", "GET")
	assert.True(t, allowed)
}

func TestAllow_DisabledPassesEverything(t *testing.T) {
	l := testLimiter(t, &Config{Enabled: false})

	for i := 0; i < 100; i++ {
		allowed, _ := l.Allow("c", "/tenants/abc/build", "POST")
		require.True(t, allowed)
	}
}

func TestAllow_HealthIsUnlimited(t *testing.T) {
	l := testLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Hour,
		EndpointTiers: DefaultEndpointTiers(),
	})

	for i := 0; i < 50; i++ {
		allowed, _ := l.Allow("c", "/health", "GET")
		require.True(t, allowed)
	}
}

func TestMatch_Tiers(t *testing.T) {
	cfg := &Config{
		Enabled:       true,
		DefaultLimit:  600,
		DefaultWindow: time.Minute,
		EndpointTiers: DefaultEndpointTiers(),
	}

	tests := []struct {
		path     string
		method   string
		wantPath string
	}{
		{path: "/tenants/abc/build", method: "POST", wantPath: "*/build"},
		{path: "/tenants/abc/build/retry", method: "POST", wantPath: "*/build/retry"},
		{path: "/tenants/abc/facts", method: "POST", wantPath: "*/facts"},
		{path: "/tenants", method: "POST", wantPath: "/tenants"},
		{path: "/tenants/abc/facts", method: "GET", wantPath: "*"},
		{path: "/tenants/abc/summary", method: "GET", wantPath: "*"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			tier := cfg.match(tt.path, tt.method)
			assert.Equal(t, tt.wantPath, tier.Path)
		})
	}
}
