package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tracker records telemetry. Recording is best-effort by contract: a
// storage failure is logged and swallowed, because analytics must never
// break the user-facing operation it instruments. Callers may therefore
// ignore the returned error. The one failure that does surface is a
// privacy violation, which signals a programming error at the call site
// rather than an infrastructure problem; the offending event is dropped.
//
// Delivery is at-most-once: a dropped event is acceptable, a duplicated
// user flow is not, and repeated Track calls intentionally create
// duplicate records.
type Tracker struct {
	events EventStore
	tokens TokenUsageStore
	hasher *SessionHasher
	log    *slog.Logger
	now    func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithTokenUsageStore enables TrackTokenUsage recording.
func WithTokenUsageStore(store TokenUsageStore) TrackerOption {
	return func(t *Tracker) { t.tokens = store }
}

// WithSessionHasher replaces the default unpeppered hasher.
func WithSessionHasher(h *SessionHasher) TrackerOption {
	return func(t *Tracker) {
		if h != nil {
			t.hasher = h
		}
	}
}

// WithLogger sets the logger for swallowed storage failures.
func WithLogger(log *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates a tracker appending to events.
func NewTracker(events EventStore, opts ...TrackerOption) *Tracker {
	if events == nil {
		panic("analytics: event store cannot be nil")
	}
	t := &Tracker{
		events: events,
		hasher: NewSessionHasher(""),
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track records one event. The raw sessionID, if any, is replaced with its
// one-way hash before the event is persisted. Metadata is checked against
// the privacy deny-list and the event is rejected with ErrPrivacyViolation
// when it carries forbidden keys.
func (t *Tracker) Track(ctx context.Context, eventType EventType, eventName string, metadata map[string]any, sessionID string) error {
	if eventName == "" {
		return errors.Join(ErrInvalidEvent, errors.New("event name is required"))
	}
	if !eventType.Valid() {
		return errors.Join(ErrInvalidEvent, fmt.Errorf("unknown event type %q", eventType))
	}
	if violations := ValidatePrivacy(metadata); len(violations) > 0 {
		t.log.ErrorContext(ctx, "event dropped, metadata contains forbidden keys",
			"event", eventName, "violations", violations)
		return fmt.Errorf("%w: %s", ErrPrivacyViolation, strings.Join(violations, ", "))
	}

	event := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Name:      eventName,
		Metadata:  metadata,
		CreatedAt: t.now(),
	}
	if sessionID != "" {
		event.SessionID = t.hasher.Hash(sessionID)
	}

	if err := t.events.Insert(ctx, event); err != nil {
		// Best-effort delivery: losing a telemetry event is preferable to
		// failing the operation being instrumented.
		t.log.ErrorContext(ctx, "failed to record analytics event",
			"event", eventName, "type", eventType, "error", err)
	}
	return nil
}

// TrackPageView records a page view.
func (t *Tracker) TrackPageView(ctx context.Context, pageName string, metadata map[string]any, sessionID string) error {
	return t.Track(ctx, EventTypePageView, pageName, metadata, sessionID)
}

// TrackFeatureUsage records a feature interaction with its action.
func (t *Tracker) TrackFeatureUsage(ctx context.Context, featureName, action string, metadata map[string]any, sessionID string) error {
	merged := map[string]any{"feature": featureName, "action": action}
	for k, v := range metadata {
		merged[k] = v
	}
	return t.Track(ctx, EventTypeFeatureUsage, featureName, merged, sessionID)
}

// TrackPerformance records a latency sample in milliseconds.
func (t *Tracker) TrackPerformance(ctx context.Context, metricName string, latencyMs float64, metadata map[string]any, sessionID string) error {
	merged := map[string]any{MetaKeyLatencyMs: latencyMs}
	for k, v := range metadata {
		merged[k] = v
	}
	return t.Track(ctx, EventTypePerformance, metricName, merged, sessionID)
}

// TrackError records an error occurrence. The message must already be
// sanitized by the caller; it passes through the same privacy gate as all
// other metadata keys.
func (t *Tracker) TrackError(ctx context.Context, errorName, message string, metadata map[string]any, sessionID string) error {
	merged := map[string]any{"error_message": message}
	for k, v := range metadata {
		merged[k] = v
	}
	return t.Track(ctx, EventTypeError, errorName, merged, sessionID)
}

// TrackTokenUsage records one billed model call. Like Track it is
// best-effort and swallows storage failures.
func (t *Tracker) TrackTokenUsage(ctx context.Context, feature, model string, tokensIn, tokensOut int64, costUSD float64) error {
	if t.tokens == nil {
		return nil
	}
	if feature == "" || model == "" {
		return errors.Join(ErrInvalidEvent, errors.New("feature and model are required"))
	}

	usage := TokenUsage{
		ID:        uuid.New().String(),
		Feature:   feature,
		Model:     model,
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
		CostUSD:   costUSD,
		CreatedAt: t.now(),
	}
	if err := t.tokens.Insert(ctx, usage); err != nil {
		t.log.ErrorContext(ctx, "failed to record token usage",
			"feature", feature, "model", model, "error", err)
	}
	return nil
}
