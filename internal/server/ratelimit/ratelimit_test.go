package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(cfg Config) (*Limiter, *clock) {
	c := &clock{t: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = c.now
	return l, c
}

func perMinute(limit, burst int) Config {
	return Config{
		Enabled: true,
		Rules:   []Rule{{Method: "POST", Path: "/recommendations", Limit: limit, Window: time.Minute, Burst: burst}},
	}
}

func TestAllow_BurstThenDeny(t *testing.T) {
	l, _ := newTestLimiter(perMinute(60, 3))

	for i := 0; i < 3; i++ {
		d := l.Allow("10.0.0.1", "POST", "/recommendations")
		require.True(t, d.Allowed, "request %d", i+1)
		assert.Equal(t, 2-i, d.Remaining)
		assert.Equal(t, 60, d.Limit)
	}

	d := l.Allow("10.0.0.1", "POST", "/recommendations")
	assert.False(t, d.Allowed)
	assert.True(t, d.Limited)
	assert.Equal(t, time.Second, d.RetryAfter)
}

func TestAllow_Refill(t *testing.T) {
	l, c := newTestLimiter(perMinute(60, 1))

	require.True(t, l.Allow("a", "POST", "/recommendations").Allowed)
	require.False(t, l.Allow("a", "POST", "/recommendations").Allowed)

	c.advance(500 * time.Millisecond)
	assert.False(t, l.Allow("a", "POST", "/recommendations").Allowed)

	c.advance(600 * time.Millisecond)
	assert.True(t, l.Allow("a", "POST", "/recommendations").Allowed)
}

func TestAllow_ClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(perMinute(60, 1))

	assert.True(t, l.Allow("a", "POST", "/recommendations").Allowed)
	assert.True(t, l.Allow("b", "POST", "/recommendations").Allowed)
	assert.False(t, l.Allow("a", "POST", "/recommendations").Allowed)
}

func TestAllow_UnmatchedRoutesAreFree(t *testing.T) {
	l, _ := newTestLimiter(perMinute(1, 1))

	for i := 0; i < 5; i++ {
		d := l.Allow("a", "GET", "/health")
		assert.True(t, d.Allowed)
		assert.False(t, d.Limited)
	}
	assert.Zero(t, l.Len())
}

func TestAllow_DisabledAndExempt(t *testing.T) {
	cfg := perMinute(1, 1)
	cfg.Enabled = false
	l, _ := newTestLimiter(cfg)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("a", "POST", "/recommendations").Allowed)
	}

	cfg = perMinute(1, 1)
	cfg.Exempt = map[string]bool{"127.0.0.1": true}
	l, _ = newTestLimiter(cfg)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("127.0.0.1", "POST", "/recommendations").Allowed)
	}
}

func TestRule_PrefixMatch(t *testing.T) {
	r := Rule{Method: "GET", Path: "/runs/"}
	assert.True(t, r.matches("GET", "/runs/123"))
	assert.False(t, r.matches("POST", "/runs/123"))
	assert.False(t, r.matches("GET", "/runs"))

	exact := Rule{Method: "POST", Path: "/runs/stream"}
	assert.True(t, exact.matches("POST", "/runs/stream"))
	assert.False(t, exact.matches("POST", "/runs/stream/x"))
}

func TestDefaultRules(t *testing.T) {
	l, _ := newTestLimiter(Config{Enabled: true, Rules: DefaultRules()})

	for i := 0; i < 2; i++ {
		require.True(t, l.Allow("a", "POST", "/runs/stream").Allowed)
	}
	d := l.Allow("a", "POST", "/runs/stream")
	assert.False(t, d.Allowed)
	assert.InDelta(t, float64(6*time.Minute), float64(d.RetryAfter), float64(time.Millisecond))
}

func TestPrune(t *testing.T) {
	cfg := perMinute(60, 1)
	cfg.IdleTTL = time.Minute
	l, c := newTestLimiter(cfg)

	l.Allow("idle", "POST", "/recommendations")
	c.advance(2 * time.Minute)
	for i := 0; i < pruneEvery-1; i++ {
		l.Allow("busy", "POST", "/recommendations")
	}
	assert.Equal(t, 1, l.Len())
}

func TestAllow_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(perMinute(600, 100))

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("a", "POST", "/recommendations").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, allowed)
}
