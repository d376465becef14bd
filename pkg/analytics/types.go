package analytics

import (
	"context"
	"time"
)

// EventType categorizes analytics events. The enumeration is closed:
// Tracker rejects anything else.
type EventType string

const (
	EventTypePageView     EventType = "page_view"
	EventTypeFeatureUsage EventType = "feature_usage"
	EventTypePerformance  EventType = "performance"
	EventTypeError        EventType = "error"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventTypePageView, EventTypeFeatureUsage, EventTypePerformance, EventTypeError:
		return true
	}
	return false
}

// Well-known event names. Callers may also use ad-hoc names; these cover
// the tracking points the rollup computation understands.
const (
	// Activation funnel milestones.
	EventFirstUploadDone = "first_upload_done"
	EventExplainViewed   = "explain_viewed"

	// Ratio metric inputs.
	EventExplainHelpful     = "explain_helpful"
	EventSuggestionShown    = "profile_suggestion_shown"
	EventSuggestionAccepted = "profile_suggestion_accepted"

	// Performance samples. Latency lives in metadata under MetaKeyLatencyMs.
	EventAPILatency = "api_latency"

	MetaKeyLatencyMs = "latency_ms"
)

// Event is one anonymized telemetry record. It must never carry a direct
// subject identifier or a raw health measurement; SessionID holds only the
// one-way hash produced by SessionHasher.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"eventType"`
	Name      string         `json:"eventName"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// TokenUsage is one billed model call, consumed by the cost rollup.
type TokenUsage struct {
	ID        string    `json:"id"`
	Feature   string    `json:"feature"`
	Model     string    `json:"model"`
	TokensIn  int64     `json:"tokensIn"`
	TokensOut int64     `json:"tokensOut"`
	CostUSD   float64   `json:"costUsd"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventStore is an append-only event record store. Events are immutable
// once inserted; there is no update or delete path.
type EventStore interface {
	// Insert appends one event.
	Insert(ctx context.Context, event Event) error

	// QueryByTimeRange returns all events with CreatedAt in [start, end).
	QueryByTimeRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// SessionsByTimeRange returns the distinct non-empty hashed session ids
	// of events with CreatedAt in [start, end). Used by retention and usage
	// computations that do not need full event payloads.
	SessionsByTimeRange(ctx context.Context, start, end time.Time) ([]string, error)
}

// TokenUsageStore persists billed-call records.
type TokenUsageStore interface {
	Insert(ctx context.Context, usage TokenUsage) error
	QueryByTimeRange(ctx context.Context, start, end time.Time) ([]TokenUsage, error)
}
