package analytics_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evermedhq/pulse/pkg/analytics"
)

type failingEventStore struct {
	insertErr error
}

func (s *failingEventStore) Insert(context.Context, analytics.Event) error {
	return s.insertErr
}

func (s *failingEventStore) QueryByTimeRange(context.Context, time.Time, time.Time) ([]analytics.Event, error) {
	return nil, s.insertErr
}

func (s *failingEventStore) SessionsByTimeRange(context.Context, time.Time, time.Time) ([]string, error) {
	return nil, s.insertErr
}

type failingTokenStore struct {
	insertErr error
}

func (s *failingTokenStore) Insert(context.Context, analytics.TokenUsage) error {
	return s.insertErr
}

func (s *failingTokenStore) QueryByTimeRange(context.Context, time.Time, time.Time) ([]analytics.TokenUsage, error) {
	return nil, s.insertErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func storedEvents(t *testing.T, store *analytics.MemoryEventStore) []analytics.Event {
	t.Helper()
	events, err := store.QueryByTimeRange(context.Background(), time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return events
}

func TestTrackerTrack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("records event with hashed session", func(t *testing.T) {
		t.Parallel()
		store := analytics.NewMemoryEventStore()
		tracker := analytics.NewTracker(store, analytics.WithLogger(discardLogger()))

		err := tracker.Track(ctx, analytics.EventTypeFeatureUsage, "explain_viewed",
			map[string]any{"source": "dashboard"}, "raw-session-id")
		require.NoError(t, err)

		events := storedEvents(t, store)
		require.Len(t, events, 1)
		assert.NotEmpty(t, events[0].ID)
		assert.Equal(t, analytics.EventTypeFeatureUsage, events[0].Type)
		assert.Equal(t, "explain_viewed", events[0].Name)
		assert.Equal(t, "dashboard", events[0].Metadata["source"])
		assert.NotEqual(t, "raw-session-id", events[0].SessionID,
			"raw session id must never be persisted")
		assert.Len(t, events[0].SessionID, 16)
		assert.False(t, events[0].CreatedAt.IsZero())
	})

	t.Run("empty session stays empty", func(t *testing.T) {
		t.Parallel()
		store := analytics.NewMemoryEventStore()
		tracker := analytics.NewTracker(store, analytics.WithLogger(discardLogger()))

		require.NoError(t, tracker.Track(ctx, analytics.EventTypePageView, "landing", nil, ""))

		events := storedEvents(t, store)
		require.Len(t, events, 1)
		assert.Empty(t, events[0].SessionID)
	})

	t.Run("rejects missing name", func(t *testing.T) {
		t.Parallel()
		tracker := analytics.NewTracker(analytics.NewMemoryEventStore(), analytics.WithLogger(discardLogger()))
		err := tracker.Track(ctx, analytics.EventTypePageView, "", nil, "")
		assert.ErrorIs(t, err, analytics.ErrInvalidEvent)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		t.Parallel()
		tracker := analytics.NewTracker(analytics.NewMemoryEventStore(), analytics.WithLogger(discardLogger()))
		err := tracker.Track(ctx, analytics.EventType("telemetry"), "anything", nil, "")
		assert.ErrorIs(t, err, analytics.ErrInvalidEvent)
	})

	t.Run("drops event with forbidden metadata", func(t *testing.T) {
		t.Parallel()
		store := analytics.NewMemoryEventStore()
		tracker := analytics.NewTracker(store, analytics.WithLogger(discardLogger()))

		err := tracker.Track(ctx, analytics.EventTypeError, "upload_failed",
			map[string]any{"userId": "u-1", "context": map[string]any{"glucose": 140}}, "")
		require.ErrorIs(t, err, analytics.ErrPrivacyViolation)
		assert.Contains(t, err.Error(), "userId")
		assert.Contains(t, err.Error(), "context.glucose")

		assert.Empty(t, storedEvents(t, store), "violating event must not be stored")
	})

	t.Run("swallows storage failures", func(t *testing.T) {
		t.Parallel()
		store := &failingEventStore{insertErr: errors.New("connection refused")}
		tracker := analytics.NewTracker(store, analytics.WithLogger(discardLogger()))

		err := tracker.Track(ctx, analytics.EventTypePageView, "landing", nil, "sess")
		assert.NoError(t, err, "storage failures must not surface to callers")
	})

	t.Run("uses injected clock", func(t *testing.T) {
		t.Parallel()
		store := analytics.NewMemoryEventStore()
		fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		tracker := analytics.NewTracker(store,
			analytics.WithLogger(discardLogger()),
			analytics.WithClock(func() time.Time { return fixed }))

		require.NoError(t, tracker.Track(ctx, analytics.EventTypePageView, "landing", nil, ""))
		events := storedEvents(t, store)
		require.Len(t, events, 1)
		assert.Equal(t, fixed, events[0].CreatedAt)
	})
}

func TestTrackerSessionHasherOption(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	plain := analytics.NewMemoryEventStore()
	peppered := analytics.NewMemoryEventStore()

	require.NoError(t, analytics.NewTracker(plain, analytics.WithLogger(discardLogger())).
		Track(ctx, analytics.EventTypePageView, "landing", nil, "sess-1"))
	require.NoError(t, analytics.NewTracker(peppered,
		analytics.WithLogger(discardLogger()),
		analytics.WithSessionHasher(analytics.NewSessionHasher("pepper"))).
		Track(ctx, analytics.EventTypePageView, "landing", nil, "sess-1"))

	plainEvents := storedEvents(t, plain)
	pepperedEvents := storedEvents(t, peppered)
	require.Len(t, plainEvents, 1)
	require.Len(t, pepperedEvents, 1)
	assert.NotEqual(t, plainEvents[0].SessionID, pepperedEvents[0].SessionID)
}

func TestTrackerConvenienceMethods(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := analytics.NewMemoryEventStore()
	tracker := analytics.NewTracker(store, analytics.WithLogger(discardLogger()))

	require.NoError(t, tracker.TrackPageView(ctx, "dashboard", nil, "s"))
	require.NoError(t, tracker.TrackFeatureUsage(ctx, "meal_photo", "upload", map[string]any{"size_kb": 420}, "s"))
	require.NoError(t, tracker.TrackPerformance(ctx, analytics.EventAPILatency, 182.5, map[string]any{"endpoint": "/api/meals"}, "s"))
	require.NoError(t, tracker.TrackError(ctx, "upload_failed", "file too large", nil, "s"))

	events := storedEvents(t, store)
	require.Len(t, events, 4)

	byName := make(map[string]analytics.Event, len(events))
	for _, e := range events {
		byName[e.Name] = e
	}

	assert.Equal(t, analytics.EventTypePageView, byName["dashboard"].Type)

	usage := byName["meal_photo"]
	assert.Equal(t, analytics.EventTypeFeatureUsage, usage.Type)
	assert.Equal(t, "meal_photo", usage.Metadata["feature"])
	assert.Equal(t, "upload", usage.Metadata["action"])
	assert.Equal(t, 420, usage.Metadata["size_kb"])

	perf := byName[analytics.EventAPILatency]
	assert.Equal(t, analytics.EventTypePerformance, perf.Type)
	assert.Equal(t, 182.5, perf.Metadata[analytics.MetaKeyLatencyMs])
	assert.Equal(t, "/api/meals", perf.Metadata["endpoint"])

	failure := byName["upload_failed"]
	assert.Equal(t, analytics.EventTypeError, failure.Type)
	assert.Equal(t, "file too large", failure.Metadata["error_message"])
}

func TestTrackerTokenUsage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("records usage", func(t *testing.T) {
		t.Parallel()
		tokens := analytics.NewMemoryTokenUsageStore()
		tracker := analytics.NewTracker(analytics.NewMemoryEventStore(),
			analytics.WithLogger(discardLogger()),
			analytics.WithTokenUsageStore(tokens))

		require.NoError(t, tracker.TrackTokenUsage(ctx, "meal_explain", "gpt-4o-mini", 1200, 340, 0.0031))

		records, err := tokens.QueryByTimeRange(ctx, time.Time{}, time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "meal_explain", records[0].Feature)
		assert.Equal(t, "gpt-4o-mini", records[0].Model)
		assert.Equal(t, int64(1200), records[0].TokensIn)
		assert.Equal(t, int64(340), records[0].TokensOut)
		assert.InDelta(t, 0.0031, records[0].CostUSD, 1e-9)
	})

	t.Run("noop without a token store", func(t *testing.T) {
		t.Parallel()
		tracker := analytics.NewTracker(analytics.NewMemoryEventStore(), analytics.WithLogger(discardLogger()))
		assert.NoError(t, tracker.TrackTokenUsage(ctx, "meal_explain", "gpt-4o-mini", 1, 1, 0))
	})

	t.Run("rejects missing feature or model", func(t *testing.T) {
		t.Parallel()
		tracker := analytics.NewTracker(analytics.NewMemoryEventStore(),
			analytics.WithLogger(discardLogger()),
			analytics.WithTokenUsageStore(analytics.NewMemoryTokenUsageStore()))

		assert.ErrorIs(t, tracker.TrackTokenUsage(ctx, "", "gpt-4o-mini", 1, 1, 0), analytics.ErrInvalidEvent)
		assert.ErrorIs(t, tracker.TrackTokenUsage(ctx, "meal_explain", "", 1, 1, 0), analytics.ErrInvalidEvent)
	})

	t.Run("swallows storage failures", func(t *testing.T) {
		t.Parallel()
		tracker := analytics.NewTracker(analytics.NewMemoryEventStore(),
			analytics.WithLogger(discardLogger()),
			analytics.WithTokenUsageStore(&failingTokenStore{insertErr: errors.New("down")}))

		assert.NoError(t, tracker.TrackTokenUsage(ctx, "meal_explain", "gpt-4o-mini", 1, 1, 0))
	})
}

func TestNewTrackerNilStorePanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { analytics.NewTracker(nil) })
}
