package ratelimiter

import "errors"

var (
	// ErrInvalidConfig indicates the bucket configuration is invalid.
	ErrInvalidConfig = errors.New("invalid rate limiter configuration")

	// ErrInvalidTokenCount indicates a non-positive token request.
	ErrInvalidTokenCount = errors.New("invalid token count")

	// ErrStoreUnavailable indicates the storage backend failed.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
)
