// Package ratelimit throttles expensive API calls per client using token buckets.
package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// pruneEvery controls how often Allow sweeps idle buckets.
const pruneEvery = 256

// Rule limits one route. A Path ending in "/" matches by prefix.
type Rule struct {
	Method string
	Path   string
	Limit  int           // requests per Window
	Window time.Duration
	Burst  int // defaults to Limit
}

func (r Rule) matches(method, path string) bool {
	if r.Method != method {
		return false
	}
	if strings.HasSuffix(r.Path, "/") {
		return strings.HasPrefix(path, r.Path)
	}
	return r.Path == path
}

// DefaultRules covers the routes that do real work: recommending is CPU
// bound and a streamed run scrapes every configured site.
func DefaultRules() []Rule {
	return []Rule{
		{Method: "POST", Path: "/runs/stream", Limit: 10, Window: time.Hour, Burst: 2},
		{Method: "POST", Path: "/recommendations", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool
	Rules   []Rule
	// Exempt client IDs are never limited.
	Exempt map[string]bool
	// IdleTTL drops buckets unused for this long. Zero keeps them for an hour.
	IdleTTL time.Duration
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limited    bool // a rule applied
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type bucket struct {
	capacity float64
	rate     float64 // tokens per second
	tokens   float64
	last     time.Time
}

func (b *bucket) refill(now time.Time) {
	b.tokens = min(b.capacity, b.tokens+now.Sub(b.last).Seconds()*b.rate)
	b.last = now
}

// Limiter keeps one bucket per client and rule.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	buckets map[string]*bucket
	calls   int
	now     func() time.Time
}

// NewLimiter creates a limiter. Rules with a non-positive limit are ignored.
func NewLimiter(cfg Config) *Limiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = time.Hour
	}
	return &Limiter{cfg: cfg, buckets: make(map[string]*bucket), now: time.Now}
}

// Allow consumes a token for clientID on method and path when a rule applies.
func (l *Limiter) Allow(clientID, method, path string) Decision {
	if !l.cfg.Enabled || l.cfg.Exempt[clientID] {
		return Decision{Allowed: true}
	}
	rule, ok := l.match(method, path)
	if !ok {
		return Decision{Allowed: true}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.calls++
	if l.calls%pruneEvery == 0 {
		l.prune(now)
	}

	key := clientID + " " + rule.Method + " " + rule.Path
	b, ok := l.buckets[key]
	if !ok {
		capacity := rule.Burst
		if capacity <= 0 {
			capacity = rule.Limit
		}
		b = &bucket{
			capacity: float64(capacity),
			rate:     float64(rule.Limit) / rule.Window.Seconds(),
			tokens:   float64(capacity),
			last:     now,
		}
		l.buckets[key] = b
	}
	b.refill(now)

	d := Decision{Limited: true, Limit: rule.Limit}
	if b.tokens >= 1 {
		b.tokens--
		d.Allowed = true
	} else {
		d.RetryAfter = time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
	}
	d.Remaining = int(b.tokens)
	return d
}

func (l *Limiter) match(method, path string) (Rule, bool) {
	for _, r := range l.cfg.Rules {
		if r.Limit > 0 && r.Window > 0 && r.matches(method, path) {
			return r, true
		}
	}
	return Rule{}, false
}

// prune must be called with l.mu held.
func (l *Limiter) prune(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.last) > l.cfg.IdleTTL {
			delete(l.buckets, key)
		}
	}
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
