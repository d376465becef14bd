// Package analytics records anonymized product telemetry.
//
// Events carry no subject identifiers: session ids are stored only as
// one-way hashes, and metadata is checked against a deny-list of
// identifier and health-value key fragments before anything is written.
// Recording is best-effort by contract, a storage outage drops events
// instead of failing the instrumented operation.
//
//	tracker := analytics.NewTracker(store,
//		analytics.WithSessionHasher(analytics.NewSessionHasher(cfg.SessionPepper)),
//	)
//	_ = tracker.TrackPageView(ctx, "metabolic_dashboard", nil, sessionID)
//
// Aggregation over the recorded events lives in the rollup subpackage.
package analytics
