package httpx

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters for one profile.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// Rate limit profiles by endpoint sensitivity.
var (
	// StrictLimit for sign-in endpoints (brute force prevention).
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit for authenticated operations.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// PublicLimit for health and other read-only endpoints.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

// RateLimitMiddleware applies a per-client-IP token bucket. Limiter state is
// kept in memory and pruned lazily; good enough for a single instance.
func RateLimitMiddleware(cfg RateLimitConfig) Middleware {
	var (
		mu       sync.Mutex
		limiters = map[string]*entry{}
	)

	limit := rate.Every(cfg.Window / time.Duration(max(cfg.RequestsPerWindow, 1)))

	get := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		if len(limiters) > 10000 {
			for k, e := range limiters {
				if time.Since(e.seen) > 10*time.Minute {
					delete(limiters, k)
				}
			}
		}

		e, ok := limiters[key]
		if !ok {
			e = &entry{limiter: rate.NewLimiter(limit, cfg.Burst)}
			limiters[key] = e
		}
		e.seen = time.Now()
		return e.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !get(clientIP(r)).Allow() {
				w.Header().Set("Retry-After", cfg.Window.String())
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type entry struct {
	limiter *rate.Limiter
	seen    time.Time
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
