package ratelimiter_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evermedhq/pulse/pkg/ratelimiter"
)

func TestComposite(t *testing.T) {
	t.Parallel()

	byHeader := func(name string) ratelimiter.KeyFunc {
		return func(r *http.Request) string { return r.Header.Get(name) }
	}

	t.Run("joins non-empty parts", func(t *testing.T) {
		t.Parallel()
		keyFunc := ratelimiter.Composite(byHeader("X-Api-Key"), byHeader("X-Forwarded-For"))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Api-Key", "k1")
		r.Header.Set("X-Forwarded-For", "10.0.0.1")
		assert.Equal(t, "k1:10.0.0.1", keyFunc(r))
	})

	t.Run("skips empty parts", func(t *testing.T) {
		t.Parallel()
		keyFunc := ratelimiter.Composite(byHeader("X-Api-Key"), byHeader("X-Forwarded-For"))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "10.0.0.1")
		assert.Equal(t, "10.0.0.1", keyFunc(r))
	})

	t.Run("empty when nothing matches", func(t *testing.T) {
		t.Parallel()
		keyFunc := ratelimiter.Composite(byHeader("X-Api-Key"))
		assert.Empty(t, keyFunc(httptest.NewRequest(http.MethodGet, "/", nil)))
	})

	t.Run("hashes long keys", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("a", 100)
		keyFunc := ratelimiter.Composite(func(*http.Request) string { return long })

		key := keyFunc(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEqual(t, long, key)
		assert.LessOrEqual(t, len(key), 64)

		// Stable across calls.
		assert.Equal(t, key, keyFunc(httptest.NewRequest(http.MethodGet, "/", nil)))
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	newHandler := func(limiter ratelimiter.RateLimiter) http.Handler {
		mw := ratelimiter.Middleware(limiter, func(r *http.Request) string { return r.RemoteAddr })
		return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
	}

	t.Run("allows within budget and sets headers", func(t *testing.T) {
		t.Parallel()
		bucket, _ := newBucket(t, ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Hour})
		handler := newHandler(bucket)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("rejects over budget with 429", func(t *testing.T) {
		t.Parallel()
		bucket, _ := newBucket(t, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Hour})
		handler := newHandler(bucket)

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/events", nil))
		require.Equal(t, http.StatusOK, first.Code)

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/events", nil))
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
		assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, second.Header().Get("Retry-After"))
	})

	t.Run("fails open on limiter error", func(t *testing.T) {
		t.Parallel()
		handler := newHandler(erroringLimiter{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", nil))
		assert.Equal(t, http.StatusOK, rec.Code, "a store outage must not block requests")
	})
}

type erroringLimiter struct{}

func (erroringLimiter) Allow(context.Context, string) (*ratelimiter.Result, error) {
	return nil, errors.Join(ratelimiter.ErrStoreUnavailable, errors.New("connection refused"))
}

func (erroringLimiter) AllowN(context.Context, string, int) (*ratelimiter.Result, error) {
	return nil, errors.Join(ratelimiter.ErrStoreUnavailable, errors.New("connection refused"))
}
