package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"relief/internal/platform/metrics"
	"relief/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*Result, error) {
	return nil, errors.New("redis down")
}

func newRequest(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/victims", nil)
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, "test"))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	mw := New(NewInMemoryStore(), 2, time.Minute,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(m))
	h := mw.Handler(okHandler())

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, newRequest("10.0.0.1"))
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, newRequest("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"Too many requests"}`, rr.Body.String())
	assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.RateLimited))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, newRequest("10.0.0.2"))
	assert.Equal(t, http.StatusOK, rr.Code, "other clients are unaffected")
}

func TestMiddlewareFailsOpen(t *testing.T) {
	h := New(failingStore{}, 1, time.Minute,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))).Handler(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, newRequest("10.0.0.1"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMiddlewareDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for name, mw := range map[string]*Middleware{
		"zero limit":  New(NewInMemoryStore(), 0, time.Minute, WithLogger(logger)),
		"nil store":   New(nil, 5, time.Minute, WithLogger(logger)),
		"option flag": New(NewInMemoryStore(), 1, time.Minute, WithLogger(logger), WithDisabled(true)),
	} {
		t.Run(name, func(t *testing.T) {
			h := mw.Handler(okHandler())
			for i := 0; i < 3; i++ {
				rr := httptest.NewRecorder()
				h.ServeHTTP(rr, newRequest("10.0.0.1"))
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
			}
		})
	}
}
