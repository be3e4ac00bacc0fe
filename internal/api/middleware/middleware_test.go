package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adnan-tnd/flow-core/pkg/util"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "boom")
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("hello"))
	}))

	req := httptest.NewRequest("POST", "/api/v1/project", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"path":"/api/v1/project"`)
	assert.Contains(t, out, `"status":201`)
	assert.Contains(t, out, `"size":5`)
	assert.Contains(t, out, `"ip":"10.0.0.1"`)
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, 60)
	defer rl.Stop()
	ctx := context.Background()

	ok, remaining, _ := rl.Allow(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	ok, remaining, _ = rl.Allow(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)

	ok, _, reset := rl.Allow(ctx, "a")
	assert.False(t, ok)
	assert.True(t, reset.After(time.Now()))

	ok, _, _ = rl.Allow(ctx, "b")
	assert.True(t, ok, "keys are limited independently")
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	defer rl.Stop()

	assert.Equal(t, 100, rl.Limit())
	assert.Equal(t, time.Minute, rl.window)
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, 60)
	defer rl.Stop()
	handler := RateLimit(rl)(okHandler())

	req := httptest.NewRequest("GET", "/api/v1/project", nil)
	req.RemoteAddr = "192.0.2.1:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Another caller from the same address has its own budget once authenticated.
	authed := req.WithContext(context.WithValue(req.Context(), UserIDKey, uuid.New()))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authed)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	rl := NewRedisLimiter(rdb, 1, 60, util.DiscardLogger())
	for i := 0; i < 3; i++ {
		ok, remaining, _ := rl.Allow(context.Background(), "ip:192.0.2.1")
		require.True(t, ok)
		assert.Equal(t, 1, remaining)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded_first", map[string]string{"X-Forwarded-For": "1.1.1.1,2.2.2.2"}, "3.3.3.3:80", "1.1.1.1"},
		{"real_ip", map[string]string{"X-Real-IP": "4.4.4.4"}, "3.3.3.3:80", "4.4.4.4"},
		{"remote_addr", nil, "3.3.3.3:80", "3.3.3.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
