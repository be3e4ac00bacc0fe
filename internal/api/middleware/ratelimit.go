package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether key may make another request in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Time)
	Limit() int
}

// RateLimiter provides rate limiting functionality using a sliding window algorithm
type RateLimiter struct {
	requests      int           // Maximum requests per window
	window        time.Duration // Window duration
	clients       map[string]*clientWindow
	mu            sync.RWMutex
	cleanupTicker *time.Ticker
	done          chan struct{}
}

type clientWindow struct {
	timestamps []time.Time
	mu         sync.Mutex
}

func normalizeLimits(requests, windowSeconds int) (int, time.Duration) {
	if requests <= 0 {
		requests = 100 // Default
	}
	if windowSeconds <= 0 {
		windowSeconds = 60 // Default
	}
	return requests, time.Duration(windowSeconds) * time.Second
}

// NewRateLimiter creates an in-process limiter. Each server instance keeps
// its own counters.
func NewRateLimiter(requests int, windowSeconds int) *RateLimiter {
	n, window := normalizeLimits(requests, windowSeconds)

	rl := &RateLimiter{
		requests:      n,
		window:        window,
		clients:       make(map[string]*clientWindow),
		cleanupTicker: time.NewTicker(time.Minute),
		done:          make(chan struct{}),
	}
	go rl.cleanup()

	return rl
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.cleanupTicker.Stop()
	close(rl.done)
}

// cleanup removes expired entries periodically
func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.done:
			return
		case <-rl.cleanupTicker.C:
		}

		rl.mu.Lock()
		now := time.Now()
		for key, client := range rl.clients {
			client.mu.Lock()
			if len(client.timestamps) == 0 || now.Sub(client.timestamps[len(client.timestamps)-1]) > rl.window*2 {
				delete(rl.clients, key)
			}
			client.mu.Unlock()
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) Limit() int { return rl.requests }

// Allow checks if a request for the given key should be allowed
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, int, time.Time) {
	rl.mu.RLock()
	client, exists := rl.clients[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		// Double-check after acquiring write lock
		if client, exists = rl.clients[key]; !exists {
			client = &clientWindow{
				timestamps: make([]time.Time, 0, rl.requests),
			}
			rl.clients[key] = client
		}
		rl.mu.Unlock()
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	// Remove timestamps outside the window
	validIdx := len(client.timestamps)
	for i, ts := range client.timestamps {
		if ts.After(windowStart) {
			validIdx = i
			break
		}
	}
	client.timestamps = client.timestamps[validIdx:]

	if len(client.timestamps) >= rl.requests {
		// Calculate when the oldest request in window will expire
		return false, 0, client.timestamps[0].Add(rl.window)
	}

	client.timestamps = append(client.timestamps, now)
	return true, rl.requests - len(client.timestamps), now.Add(rl.window)
}

// RedisLimiter counts requests in fixed windows shared by every server
// instance. When Redis cannot answer the request is let through.
type RedisLimiter struct {
	rdb      redis.Cmdable
	requests int
	window   time.Duration
	logger   *slog.Logger
}

func NewRedisLimiter(rdb redis.Cmdable, requests, windowSeconds int, logger *slog.Logger) *RedisLimiter {
	n, window := normalizeLimits(requests, windowSeconds)
	return &RedisLimiter{rdb: rdb, requests: n, window: window, logger: logger}
}

func (rl *RedisLimiter) Limit() int { return rl.requests }

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time) {
	now := time.Now()
	slot := now.UnixNano() / int64(rl.window)
	redisKey := "flowcore:ratelimit:" + key + ":" + strconv.FormatInt(slot, 10)
	reset := time.Unix(0, (slot+1)*int64(rl.window))

	pipe := rl.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Warn("rate limiter unavailable", "error", err)
		return true, rl.requests, reset
	}

	count := int(incr.Val())
	if count > rl.requests {
		return false, 0, reset
	}
	return true, rl.requests - count, reset
}

// RateLimit returns a middleware that applies rate limiting per client IP,
// or per user once the request is authenticated.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + getClientIP(r)
			if userID := GetUserID(r.Context()); userID.String() != "00000000-0000-0000-0000-000000000000" {
				key = "user:" + userID.String()
			}

			allowed, remaining, resetTime := limiter.Allow(r.Context(), key)

			// Set rate limit headers
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				w.Header().Set("Retry-After", strconv.FormatInt(int64(time.Until(resetTime).Seconds())+1, 10))
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (set by proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP in the list (original client)
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	// Check X-Real-IP header (set by some proxies)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	// Remove port if present
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
