package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rinknet/internal/platform/logger"
)

func TestLimiter_SlidingWindow(t *testing.T) {
	l := New(3, time.Minute)
	now := time.Now()

	for i := 0; i < 3; i++ {
		res := l.Allow("1.2.3.4", now)
		require.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res := l.Allow("1.2.3.4", now)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	// Other keys are unaffected.
	assert.True(t, l.Allow("5.6.7.8", now).Allowed)

	// Once the oldest request ages out, a slot frees up.
	res = l.Allow("1.2.3.4", now.Add(time.Minute+time.Second))
	assert.True(t, res.Allowed)
}

func TestLimiter_WindowSlidesRatherThanResets(t *testing.T) {
	l := New(2, time.Minute)
	now := time.Now()

	require.True(t, l.Allow("k", now).Allowed)
	require.True(t, l.Allow("k", now.Add(30*time.Second)).Allowed)

	// 61s after the first request only one slot has freed, so a burst of
	// two is still rejected on the second hit.
	require.True(t, l.Allow("k", now.Add(61*time.Second)).Allowed)
	assert.False(t, l.Allow("k", now.Add(61*time.Second)).Allowed)
}

func TestMiddleware_Returns429WithHeaders(t *testing.T) {
	l := New(1, time.Minute)
	handler := Middleware(l, logger.New("test"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/players", nil)
	req.RemoteAddr = "10.0.0.1:5000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate_limited","error_description":"too many requests, slow down"}`, rec.Body.String())
}

func TestMiddleware_KeysByForwardedFor(t *testing.T) {
	l := New(1, time.Minute)
	handler := Middleware(l, logger.New("test"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	mk := func(ip string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/players", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		return req
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, mk("203.0.113.7"))
	require.Equal(t, http.StatusOK, rec.Code)

	// Same upstream proxy, different client: not throttled.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, mk("203.0.113.8"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, mk("203.0.113.7"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}
