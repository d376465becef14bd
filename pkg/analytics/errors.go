package analytics

import "errors"

var (
	// ErrInvalidEvent indicates a missing event name or unknown event type.
	ErrInvalidEvent = errors.New("analytics: invalid event")

	// ErrPrivacyViolation indicates event metadata carries forbidden keys
	// (subject identifiers or health values). The event is dropped, never
	// stored.
	ErrPrivacyViolation = errors.New("analytics: metadata contains forbidden keys")
)
