// Package rollup computes privacy-safe windowed metric reports from
// recorded analytics events: activation funnel conversion, feedback and
// acceptance ratios, 30-60 day retention, nearest-rank p95 latency,
// DAU/WAU/MAU session counts, and token cost totals grouped by feature
// and model. Sessions are only ever observed through their one-way
// hashes, and every output field is an aggregate.
package rollup
