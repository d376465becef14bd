package ratelimiter

import "time"

// Result is the outcome of a rate limit check.
type Result struct {
	Limit     int       // Bucket capacity (burst limit)
	Remaining int       // Tokens left after this check
	ResetAt   time.Time // When the next refill lands
}

// Allowed reports whether the request may proceed.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before retrying. Zero when the
// request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Config defines the token bucket parameters.
type Config struct {
	Capacity       int           // Maximum tokens the bucket can hold
	RefillRate     int           // Tokens added per refill interval
	RefillInterval time.Duration // How often tokens are added
}
