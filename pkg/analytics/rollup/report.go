package rollup

// Report is one windowed rollup of product metrics. Every field is an
// aggregate; no per-subject or per-session records leave the aggregator.
type Report struct {
	WindowDays int `json:"windowDays"`

	// Activation is the percentage of sessions that reached the first
	// value milestone within 24 hours of the first action milestone.
	Activation float64 `json:"activation"`

	// Helpfulness is the percentage of feedback events marked positive.
	Helpfulness float64 `json:"helpfulness"`

	// AcceptanceRate is the percentage of shown suggestions accepted.
	AcceptanceRate float64 `json:"acceptanceRate"`

	// Retention is the percentage of the 30-60 day cohort active in the
	// report window.
	Retention float64 `json:"retention"`

	// LatencyP95Ms is the nearest-rank 95th percentile latency sample.
	LatencyP95Ms float64 `json:"latencyP95Ms"`

	Usage  Usage         `json:"usage"`
	Tokens []TokenRollup `json:"tokens"`
}

// Usage holds distinct hashed-session counts over fixed trailing windows.
type Usage struct {
	DAU int `json:"dau"`
	WAU int `json:"wau"`
	MAU int `json:"mau"`
}

// TokenRollup is the summed token and cost usage for one (feature, model)
// pair.
type TokenRollup struct {
	Feature   string  `json:"feature"`
	Model     string  `json:"model"`
	TokensIn  int64   `json:"tokensIn"`
	TokensOut int64   `json:"tokensOut"`
	CostUSD   float64 `json:"costUsd"`
}
