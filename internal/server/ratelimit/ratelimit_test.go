package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(config *Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := NewLimiter(config)
	limiter.now = clock.Now
	return limiter, clock
}

func TestLimiter_Allow(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/", "GET")
		if !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", info.Limit)
		}
		if info.Remaining != 9-i {
			t.Errorf("Expected %d remaining, got %d", 9-i, info.Remaining)
		}
	}

	allowed, info := limiter.Allow("127.0.0.1", "/", "GET")
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if info.RetryAfter <= 0 || info.RetryAfter > 6*time.Second {
		t.Errorf("Expected retry after of at most one refill interval, got %v", info.RetryAfter)
	}
}

func TestLimiter_Refill(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  60,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 60; i++ {
		limiter.Allow("client", "/", "GET")
	}
	if allowed, _ := limiter.Allow("client", "/", "GET"); allowed {
		t.Fatal("Expected request to be denied once the bucket is empty")
	}

	clock.Advance(time.Second)

	if allowed, _ := limiter.Allow("client", "/", "GET"); !allowed {
		t.Error("Expected request to be allowed after refill")
	}
	if allowed, _ := limiter.Allow("client", "/", "GET"); allowed {
		t.Error("Expected request to be denied after consuming refilled token")
	}
}

func TestLimiter_DeniedRequestDoesNotConsume(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  60,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 60; i++ {
		limiter.Allow("client", "/", "GET")
	}
	// Hammering while empty must not push the next token further out.
	for i := 0; i < 20; i++ {
		limiter.Allow("client", "/", "GET")
	}

	clock.Advance(time.Second)
	if allowed, _ := limiter.Allow("client", "/", "GET"); !allowed {
		t.Error("Expected denied requests to leave the bucket untouched")
	}
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		if allowed, _ := limiter.Allow("10.0.0.1", "/", "GET"); !allowed {
			t.Errorf("Expected whitelisted request %d to be allowed", i+1)
		}
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"10.0.0.2": true},
	})
	defer limiter.Stop()

	if allowed, _ := limiter.Allow("10.0.0.2", "/", "GET"); allowed {
		t.Error("Expected blacklisted request to be denied")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{Enabled: false, DefaultLimit: 1})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		if allowed, _ := limiter.Allow("client", "/retry", "POST"); !allowed {
			t.Errorf("Expected request %d to be allowed when disabled", i+1)
		}
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	defer limiter.Stop()

	// Retry allows a burst of 2
	for i := 0; i < 2; i++ {
		if allowed, _ := limiter.Allow("client", "/retry", "POST"); !allowed {
			t.Errorf("Expected retry %d to be allowed", i+1)
		}
	}
	allowed, info := limiter.Allow("client", "/retry", "POST")
	if allowed {
		t.Error("Expected third retry to be denied")
	}
	if info.Limit != 6 {
		t.Errorf("Expected retry limit 6, got %d", info.Limit)
	}

	// Other endpoints use separate buckets
	if allowed, _ := limiter.Allow("client", "/", "GET"); !allowed {
		t.Error("Expected page request to be allowed")
	}
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	defer limiter.Stop()

	for _, method := range []string{"GET", "HEAD"} {
		for i := 0; i < 50; i++ {
			if allowed, _ := limiter.Allow("client", "/health", method); !allowed {
				t.Fatalf("Expected %s health check %d to be allowed", method, i+1)
			}
		}
	}

	// The page itself still falls under the default limit.
	limiter.Allow("client", "/", "GET")
	if allowed, _ := limiter.Allow("client", "/", "GET"); allowed {
		t.Error("Expected second page request to be denied with a default limit of 1")
	}
}

func TestLimiter_HealthLimitedWithoutEntry(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	limiter.Allow("client", "/health", "GET")
	if allowed, _ := limiter.Allow("client", "/health", "GET"); allowed {
		t.Error("Expected /health to use the default limit when no entry exempts it")
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Hour,
	})
	defer limiter.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("client", "/", "GET"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowedCount != 100 {
		t.Errorf("Expected exactly 100 allowed requests, got %d", allowedCount)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("client-%d", i), "/", "GET")
	}

	clock.Advance(2 * time.Hour)
	limiter.Allow("fresh", "/", "GET")
	limiter.cleanupBuckets()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if len(limiter.buckets) != 1 {
		t.Errorf("Expected only the fresh bucket to survive cleanup, got %d", len(limiter.buckets))
	}
	if _, ok := limiter.buckets["fresh:/:GET"]; !ok {
		t.Error("Expected fresh bucket to be kept")
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})
	limiter.Stop()
	limiter.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	if !limiter.config.Enabled {
		t.Error("Expected default config to be enabled")
	}
	if allowed, _ := limiter.Allow("client", "/", "GET"); !allowed {
		t.Error("Expected first request to be allowed")
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		path, method string
		wantLimit    int
		wantNil      bool
	}{
		{"/retry", "POST", 6, false},
		{"/retry", "GET", 0, true},
		{"/data.json", "GET", 120, false},
		{"/data.json/extra", "GET", 0, true},
		{"/health", "GET", 0, false},
		{"/health", "POST", 0, false},
		{"/", "GET", 0, true},
	}

	for _, tt := range tests {
		got := MatchEndpoint(tt.path, tt.method, configs)
		if tt.wantNil {
			if got != nil {
				t.Errorf("MatchEndpoint(%s %s) = %+v, want nil", tt.method, tt.path, got)
			}
			continue
		}
		if got == nil {
			t.Fatalf("MatchEndpoint(%s %s) = nil", tt.method, tt.path)
		}
		if got.Limit != tt.wantLimit {
			t.Errorf("MatchEndpoint(%s %s).Limit = %d, want %d", tt.method, tt.path, got.Limit, tt.wantLimit)
		}
	}
}

func TestMatchEndpoint_MethodSpecificWins(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/data.json", Method: "", Limit: 10},
		{Path: "/data.json", Method: "GET", Limit: 50},
	}

	if got := MatchEndpoint("/data.json", "GET", configs); got == nil || got.Limit != 50 {
		t.Errorf("Expected the GET entry to win, got %+v", got)
	}
	if got := MatchEndpoint("/data.json", "HEAD", configs); got == nil || got.Limit != 10 {
		t.Errorf("Expected the any-method entry for HEAD, got %+v", got)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("PORTFOLIO_RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("PORTFOLIO_RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("PORTFOLIO_RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")

	cfg := LoadConfig()
	if !cfg.Enabled {
		t.Fatal("Expected rate limiting enabled by default")
	}
	if cfg.DefaultLimit != 42 {
		t.Errorf("Expected default limit 42, got %d", cfg.DefaultLimit)
	}
	if cfg.DefaultWindow != 30*time.Second {
		t.Errorf("Expected default window 30s, got %v", cfg.DefaultWindow)
	}
	if !cfg.Whitelist["10.0.0.1"] || !cfg.Whitelist["10.0.0.2"] {
		t.Errorf("Expected both whitelist entries, got %v", cfg.Whitelist)
	}
}

func TestLoadConfig_Disabled(t *testing.T) {
	t.Setenv("PORTFOLIO_RATE_LIMIT_ENABLED", "false")

	if cfg := LoadConfig(); cfg.Enabled {
		t.Error("Expected rate limiting disabled")
	}
}
