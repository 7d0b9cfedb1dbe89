package mw

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/marks/internal/utils"
)

type RateLimitConfig struct {
	Burst        int // bucket capacity
	RefillPerMin int // tokens added per minute
	MaxEntries   int // sweep idle buckets once this many exist, 0 = no cap
	IdleTTL      time.Duration
	TrustProxy   bool

	now func() time.Time
}

type bucket struct {
	tokens   float64
	refilled time.Time
	seen     time.Time
}

// limiter is a token bucket per key. One mutex guards the whole map; the
// critical section is a few float operations.
type limiter struct {
	mu       sync.Mutex
	cfg      RateLimitConfig
	perSec   float64
	buckets  map[string]*bucket
	lastScan time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	cfg.Burst = max(cfg.Burst, 1)
	cfg.RefillPerMin = max(cfg.RefillPerMin, 1)
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return &limiter{
		cfg:      cfg,
		perSec:   float64(cfg.RefillPerMin) / 60,
		buckets:  make(map[string]*bucket),
		lastScan: cfg.now(),
	}
}

// take spends one token for key. When none is left it returns the seconds
// until the next one.
func (l *limiter) take(key string) (ok bool, remaining, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.cfg.now()
	l.sweep(now)

	b := l.buckets[key]
	if b == nil {
		b = &bucket{tokens: float64(l.cfg.Burst), refilled: now}
		l.buckets[key] = b
	}
	b.seen = now
	if elapsed := now.Sub(b.refilled).Seconds(); elapsed > 0 {
		b.tokens = math.Min(float64(l.cfg.Burst), b.tokens+elapsed*l.perSec)
		b.refilled = now
	}

	if b.tokens < 1 {
		return false, 0, max(int(math.Ceil((1-b.tokens)/l.perSec)), 1)
	}
	b.tokens--
	return true, int(b.tokens), 0
}

// sweep drops idle buckets once a minute, or right away when the map is full.
func (l *limiter) sweep(now time.Time) {
	full := l.cfg.MaxEntries > 0 && len(l.buckets) >= l.cfg.MaxEntries
	if !full && now.Sub(l.lastScan) < time.Minute {
		return
	}
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.cfg.IdleTTL {
			delete(l.buckets, k)
		}
	}
	l.lastScan = now
}

func (l *limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimit is a token bucket per caller: the user when Auth ran first,
// else the client IP.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limit := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + utils.ClientIP(r, l.cfg.TrustProxy)
			if u, ok := UserFrom(r.Context()); ok {
				key = "user:" + u.ID
			}

			ok, remaining, retry := l.take(key)
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
