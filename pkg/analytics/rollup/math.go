package rollup

import (
	"math"
	"sort"
)

// Pct returns numer/denom as a percentage rounded to one decimal place. A
// zero or negative denominator yields 0, never a division error: an empty
// window is an ordinary state for a young product, not a failure.
func Pct(numer, denom int) float64 {
	if denom <= 0 {
		return 0
	}
	return math.Round(float64(numer)/float64(denom)*1000) / 10
}

// P95 returns the 95th percentile of values by the nearest-rank method:
// the element at index ceil(0.95*n)-1 of the ascending sort, clamped to
// the valid range. Nearest-rank is chosen over interpolation for
// reproducibility on the small sample sizes a per-window latency series
// actually has. An empty input yields 0.
func P95(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(math.Ceil(0.95*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
