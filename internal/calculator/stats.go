package calculator

import (
	"math"

	"SpotSentinel/internal/model"
)

// Summarize computes mean, min and max over the series. An empty series yields
// the zero summary, which callers treat as "no data".
func Summarize(series model.PriceSeries) model.StatsSummary {
	n := len(series.Samples)
	if n == 0 {
		return model.StatsSummary{}
	}

	sum := 0.0
	low := math.Inf(1)
	high := math.Inf(-1)
	for _, s := range series.Samples {
		sum += s.Price
		if s.Price < low {
			low = s.Price
		}
		if s.Price > high {
			high = s.Price
		}
	}

	// Rounding can push the mean of near-equal prices a ulp outside the range.
	mean := math.Min(math.Max(sum/float64(n), low), high)

	return model.StatsSummary{Mean: mean, Min: low, Max: high, Count: n}
}
