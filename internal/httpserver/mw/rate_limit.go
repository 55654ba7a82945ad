package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pinmap/internal/httpserver/respond"
	"github.com/MrSnakeDoc/pinmap/internal/utils"
)

// RateLimitConfig configures the per-client token bucket guarding visitor writes.
type RateLimitConfig struct {
	Burst             int              // bucket capacity
	RefillPerIPPerMin int              // tokens added back per minute
	MaxEntries        int              // tracked clients before idle ones are evicted (0 = no bound)
	IdleTTL           time.Duration    // forget clients idle for this long (default 15m)
	TrustProxy        bool             // resolve IP from proxy headers when true
	Now               func() time.Time // defaults to time.Now
}

type clientBucket struct {
	tokens float64
	seen   time.Time
}

type verdict struct {
	allowed   bool
	remaining int
	retry     time.Duration
}

type clientLimiter struct {
	capacity   float64
	perSecond  float64
	maxEntries int
	idleTTL    time.Duration

	mu        sync.Mutex
	clients   map[string]*clientBucket
	nextSweep time.Time
}

func newClientLimiter(cfg RateLimitConfig, now time.Time) *clientLimiter {
	burst := max(cfg.Burst, 1)
	refill := max(cfg.RefillPerIPPerMin, 1)
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = 15 * time.Minute
	}

	return &clientLimiter{
		capacity:   float64(burst),
		perSecond:  float64(refill) / 60,
		maxEntries: cfg.MaxEntries,
		idleTTL:    idle,
		clients:    make(map[string]*clientBucket),
		nextSweep:  now.Add(idle),
	}
}

// take spends one token of key's bucket at now.
func (l *clientLimiter) take(key string, now time.Time) verdict {
	l.mu.Lock()
	defer l.mu.Unlock()

	full := l.maxEntries > 0 && len(l.clients) >= l.maxEntries
	if full || !now.Before(l.nextSweep) {
		l.evictIdle(now)
	}

	b, ok := l.clients[key]
	if !ok {
		b = &clientBucket{tokens: l.capacity, seen: now}
		l.clients[key] = b
	}
	if elapsed := now.Sub(b.seen).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.perSecond)
	}
	b.seen = now

	if b.tokens < 1 {
		wait := time.Duration(math.Ceil((1-b.tokens)/l.perSecond)) * time.Second
		return verdict{retry: max(wait, time.Second)}
	}
	b.tokens--
	return verdict{allowed: true, remaining: int(b.tokens)}
}

func (l *clientLimiter) evictIdle(now time.Time) {
	for key, b := range l.clients {
		if now.Sub(b.seen) > l.idleTTL {
			delete(l.clients, key)
		}
	}
	l.nextSweep = now.Add(l.idleTTL)
}

// RateLimit limits requests per client IP. Rejected requests get 429 with Retry-After.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	l := newClientLimiter(cfg, now())
	limit := strconv.Itoa(int(l.capacity))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := l.take(utils.ClientIP(r, cfg.TrustProxy), now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))

			if !v.allowed {
				secs := strconv.Itoa(int(v.retry / time.Second))
				h.Set("Retry-After", secs)
				respond.Error(w, http.StatusTooManyRequests, "too many requests, retry in "+secs+"s")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
