// Package ratelimiter provides token bucket rate limiting with pluggable
// storage and HTTP middleware.
//
// The bucket refills at a steady rate up to a burst capacity. State lives
// behind the Store interface: MemoryStore for a single process, RedisStore
// for a shared budget across instances.
//
//	store := ratelimiter.NewRedisStore(client)
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       60,
//		RefillRate:     60,
//		RefillInterval: time.Minute,
//	})
//
//	router.Use(ratelimiter.Middleware(limiter, func(r *http.Request) string {
//		return r.RemoteAddr
//	}))
//
// The middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset on every response, plus Retry-After on denials. Store
// failures fail open so a Redis outage cannot take request handling down
// with it.
package ratelimiter
