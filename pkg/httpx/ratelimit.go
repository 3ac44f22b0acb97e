package httpx

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/doorman/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines a token bucket: Requests per Window, with up to
// Burst requests allowed at once.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

var (
	// LoginLimit guards credential submission against brute force.
	LoginLimit = RateLimitConfig{Requests: 5, Window: time.Minute, Burst: 5}

	// ProbeLimit is for health checks and metrics scrapes.
	ProbeLimit = RateLimitConfig{Requests: 120, Window: time.Minute, Burst: 120}
)

// KeyFunc extracts the rate limiting key from a request. An empty key means
// the request is not limited.
type KeyFunc func(*http.Request) string

// ClientIP keys requests by remote address. X-Forwarded-For and X-Real-IP are
// only honoured when trustProxy is set, otherwise any client could pick its
// own bucket.
func ClientIP(trustProxy bool) KeyFunc {
	return func(r *http.Request) string {
		if trustProxy {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
			if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
				return xri
			}
		}

		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return ip
	}
}

// PostFormValue keys requests by a POST body field. Query parameters are
// ignored so the key matches what handlers read with r.PostFormValue.
func PostFormValue(field string) KeyFunc {
	return func(r *http.Request) string {
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return strings.TrimSpace(r.PostFormValue(field))
	}
}

// Normalized applies norm to the key produced by fn.
func Normalized(fn KeyFunc, norm func(string) string) KeyFunc {
	return func(r *http.Request) string { return norm(fn(r)) }
}

// JoinKeys concatenates the non-empty keys of fns with sep.
func JoinKeys(sep string, fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(fns))
		for _, fn := range fns {
			if k := fn(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	cfg   RateLimitConfig
	key   KeyFunc
	limit rate.Limit

	mu          sync.Mutex
	buckets     map[string]*rate.Limiter
	lastCleanup time.Time
}

func NewRateLimiter(cfg RateLimitConfig, key KeyFunc) *RateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(cfg.Requests, 1)
	}

	return &RateLimiter{
		cfg:         cfg,
		key:         key,
		limit:       rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		buckets:     make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
	}
}

// Allow reports whether a request for key may proceed and, if not, how long
// until it would.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupLocked()

	b, ok := rl.buckets[key]
	if !ok {
		b = rate.NewLimiter(rl.limit, rl.cfg.Burst)
		rl.buckets[key] = b
	}

	if b.Allow() {
		return true, 0
	}

	r := b.Reserve()
	delay := r.Delay()
	r.Cancel()
	return false, delay
}

// cleanupLocked drops idle buckets (full token count) every five minutes.
func (rl *RateLimiter) cleanupLocked() {
	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()

	for k, b := range rl.buckets {
		if b.Tokens() >= float64(rl.cfg.Burst) {
			delete(rl.buckets, k)
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.key(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		ok, delay := rl.Allow(key)
		if ok {
			next.ServeHTTP(w, r)
			return
		}

		retryAfter := max(int(delay.Seconds()), 1)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

		slogx.FromContext(r.Context()).Warn("rate limit exceeded",
			"path", r.URL.Path,
			"retry_after", retryAfter,
		)

		WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
	})
}

// RateLimit is NewRateLimiter(cfg, key).Middleware as a Middleware value.
func RateLimit(cfg RateLimitConfig, key KeyFunc) Middleware {
	return NewRateLimiter(cfg, key).Middleware
}
