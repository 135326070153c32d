package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/themobileprof/voicepilot/pkg/httputil"
)

// Rate limit keys share the cache keyspace with memory snapshots
const rateLimitKeyPrefix = "voicepilot:ratelimit:"

// RateLimiter limits requests per client IP over a fixed window. With a
// Redis client the window is shared across instances, without one it
// falls back to an in-process counter.
type RateLimiter struct {
	client   *redis.Client
	limit    int
	interval time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a new rate limiter. client may be nil.
func NewRateLimiter(client *redis.Client, limit int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		client:   client,
		limit:    limit,
		interval: interval,
		visitors: make(map[string]*visitor),
	}

	go rl.cleanup()

	return rl
}

// Limit is the middleware function
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		// Probes are exempt
		switch r.URL.Path {
		case "/health", "/ready", "/metrics":
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		allowed, count := rl.allow(r, ip)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		remaining := rl.limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.interval.Seconds())))
			httputil.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(r *http.Request, ip string) (bool, int) {
	if rl.client != nil {
		key := rateLimitKeyPrefix + ip

		pipe := rl.client.Pipeline()
		incr := pipe.Incr(r.Context(), key)
		pipe.Expire(r.Context(), key, rl.interval)

		if _, err := pipe.Exec(r.Context()); err == nil {
			count := int(incr.Val())
			return count <= rl.limit, count
		}
		// Redis down, fall through to the in-process counter
	}

	return rl.allowLocal(ip)
}

func (rl *RateLimiter) allowLocal(ip string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.windowStart) > rl.interval {
		rl.visitors[ip] = &visitor{count: 1, windowStart: now}
		return true, 1
	}

	v.count++
	return v.count <= rl.limit, v.count
}

func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(rl.interval)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.windowStart) > rl.interval*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// clientIP trusts RemoteAddr, which the RealIP middleware has already
// rewritten from forwarding headers when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
