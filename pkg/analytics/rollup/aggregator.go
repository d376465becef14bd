package rollup

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evermedhq/pulse/pkg/analytics"
)

const (
	day = 24 * time.Hour

	// Retention compares the cohort active 30-60 days ago against the
	// current window.
	retentionCohortStart = 60 * day
	retentionCohortEnd   = 30 * day
)

// Aggregator computes windowed metric rollups from the event and token
// usage stores. Unlike event recording, aggregation fails loud: a store
// error surfaces to the caller instead of being masked as zeros, because a
// dashboard silently showing zeros is worse than a dashboard showing an
// error.
type Aggregator struct {
	events analytics.EventStore
	tokens analytics.TokenUsageStore
	now    func() time.Time

	funnel funnelConfig
}

type funnelConfig struct {
	firstAction string
	firstValue  string
	horizon     time.Duration
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithFunnel overrides the activation funnel milestones and conversion
// horizon.
func WithFunnel(firstAction, firstValue string, horizon time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		a.funnel = funnelConfig{firstAction: firstAction, firstValue: firstValue, horizon: horizon}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator creates an aggregator over the given stores. The token
// usage store may be nil, in which case the token rollup is empty.
func NewAggregator(events analytics.EventStore, tokens analytics.TokenUsageStore, opts ...AggregatorOption) *Aggregator {
	if events == nil {
		panic("rollup: event store cannot be nil")
	}
	a := &Aggregator{
		events: events,
		tokens: tokens,
		now:    time.Now,
		funnel: funnelConfig{
			firstAction: analytics.EventFirstUploadDone,
			firstValue:  analytics.EventExplainViewed,
			horizon:     24 * time.Hour,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ComputeReport builds the rollup for the window [now-windowDays, now).
// The independent store reads run concurrently; all of them must succeed.
func (a *Aggregator) ComputeReport(ctx context.Context, windowDays int) (*Report, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("rollup: window must be positive, got %d days", windowDays)
	}

	now := a.now()
	since := now.Add(-time.Duration(windowDays) * day)

	var (
		events        []analytics.Event
		cohort        []string
		dailySessions []string
		weekSessions  []string
		monthSessions []string
		usageRecords  []analytics.TokenUsage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		events, err = a.events.QueryByTimeRange(gctx, since, now)
		return err
	})
	g.Go(func() (err error) {
		cohort, err = a.events.SessionsByTimeRange(gctx, now.Add(-retentionCohortStart), now.Add(-retentionCohortEnd))
		return err
	})
	g.Go(func() (err error) {
		dailySessions, err = a.events.SessionsByTimeRange(gctx, now.Add(-day), now)
		return err
	})
	g.Go(func() (err error) {
		weekSessions, err = a.events.SessionsByTimeRange(gctx, now.Add(-7*day), now)
		return err
	})
	g.Go(func() (err error) {
		monthSessions, err = a.events.SessionsByTimeRange(gctx, now.Add(-30*day), now)
		return err
	})
	if a.tokens != nil {
		g.Go(func() (err error) {
			usageRecords, err = a.tokens.QueryByTimeRange(gctx, since, now)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rollup: failed to read window data: %w", err)
	}

	windowSessions := make(map[string]struct{})
	for _, e := range events {
		if e.SessionID != "" {
			windowSessions[e.SessionID] = struct{}{}
		}
	}

	return &Report{
		WindowDays:     windowDays,
		Activation:     a.activation(events),
		Helpfulness:    helpfulness(events),
		AcceptanceRate: acceptanceRate(events),
		Retention:      retention(cohort, windowSessions),
		LatencyP95Ms:   latencyP95(events),
		Usage: Usage{
			DAU: len(dailySessions),
			WAU: len(weekSessions),
			MAU: len(monthSessions),
		},
		Tokens: tokenRollup(usageRecords),
	}, nil
}

// activation computes funnel conversion: among sessions that produced the
// first-action milestone, the share that also produced the first-value
// milestone within the horizon of one of their first-action events. The
// denominator is floored at 1 so an empty window reads as 0% rather than
// erroring.
func (a *Aggregator) activation(events []analytics.Event) float64 {
	type milestones struct {
		actions []time.Time
		values  []time.Time
	}
	bySession := make(map[string]*milestones)
	for _, e := range events {
		if e.Name != a.funnel.firstAction && e.Name != a.funnel.firstValue {
			continue
		}
		m := bySession[e.SessionID]
		if m == nil {
			m = &milestones{}
			bySession[e.SessionID] = m
		}
		if e.Name == a.funnel.firstAction {
			m.actions = append(m.actions, e.CreatedAt)
		} else {
			m.values = append(m.values, e.CreatedAt)
		}
	}

	started, converted := 0, 0
	for _, m := range bySession {
		if len(m.actions) == 0 {
			continue
		}
		started++
		if convertedWithin(m.actions, m.values, a.funnel.horizon) {
			converted++
		}
	}
	return Pct(converted, max(1, started))
}

func convertedWithin(actions, values []time.Time, horizon time.Duration) bool {
	for _, action := range actions {
		for _, value := range values {
			delta := value.Sub(action)
			if delta < 0 {
				delta = -delta
			}
			if delta <= horizon {
				return true
			}
		}
	}
	return false
}

// helpfulness computes the positive share of explicit feedback events. A
// feedback event counts as positive when its metadata value or thumbs
// field reads yes or up.
func helpfulness(events []analytics.Event) float64 {
	total, positive := 0, 0
	for _, e := range events {
		if e.Name != analytics.EventExplainHelpful {
			continue
		}
		total++
		if positiveFeedback(e.Metadata) {
			positive++
		}
	}
	return Pct(positive, total)
}

func positiveFeedback(metadata map[string]any) bool {
	for _, key := range []string{"value", "thumbs"} {
		if raw, ok := metadata[key]; ok {
			switch strings.ToLower(fmt.Sprint(raw)) {
			case "yes", "up":
				return true
			}
		}
	}
	return false
}

func acceptanceRate(events []analytics.Event) float64 {
	shown, accepted := 0, 0
	for _, e := range events {
		switch e.Name {
		case analytics.EventSuggestionShown:
			shown++
		case analytics.EventSuggestionAccepted:
			accepted++
		}
	}
	return Pct(accepted, shown)
}

func retention(cohort []string, windowSessions map[string]struct{}) float64 {
	retained := 0
	for _, session := range cohort {
		if _, ok := windowSessions[session]; ok {
			retained++
		}
	}
	return Pct(retained, len(cohort))
}

func latencyP95(events []analytics.Event) float64 {
	var samples []float64
	for _, e := range events {
		if e.Name != analytics.EventAPILatency {
			continue
		}
		if ms, ok := numericValue(e.Metadata[analytics.MetaKeyLatencyMs]); ok && ms > 0 {
			samples = append(samples, ms)
		}
	}
	return P95(samples)
}

// numericValue normalizes the types a latency sample can arrive as:
// float64 from JSON decoding, json.Number from stores that preserve it,
// or native ints from in-process callers.
func numericValue(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func tokenRollup(records []analytics.TokenUsage) []TokenRollup {
	byKey := make(map[string]*TokenRollup)
	for _, r := range records {
		key := r.Feature + "|" + r.Model
		agg := byKey[key]
		if agg == nil {
			agg = &TokenRollup{Feature: r.Feature, Model: r.Model}
			byKey[key] = agg
		}
		agg.TokensIn += r.TokensIn
		agg.TokensOut += r.TokensOut
		agg.CostUSD += r.CostUSD
	}

	result := make([]TokenRollup, 0, len(byKey))
	for _, agg := range byKey {
		result = append(result, *agg)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Feature != result[j].Feature {
			return result[i].Feature < result[j].Feature
		}
		return result[i].Model < result[j].Model
	})
	return result
}
