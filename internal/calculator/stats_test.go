package calculator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"SpotSentinel/internal/model"
)

func seriesOf(prices ...float64) model.PriceSeries {
	s := model.PriceSeries{Unit: "EUR/MWh"}
	for i, p := range prices {
		s.Samples = append(s.Samples, model.Sample{UnixSeconds: int64(1705273200 + i*3600), Price: p})
	}
	return s
}

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(model.PriceSeries{})

	assert.Equal(t, model.StatsSummary{Mean: 0, Min: 0, Max: 0, Count: 0}, got)
	assert.True(t, got.Empty())
}

func TestSummarize_Basic(t *testing.T) {
	got := Summarize(seriesOf(10, 20, 30, 40))

	assert.Equal(t, 4, got.Count)
	assert.InDelta(t, 25.0, got.Mean, 1e-9)
	assert.Equal(t, 10.0, got.Min)
	assert.Equal(t, 40.0, got.Max)
}

func TestSummarize_NegativePrices(t *testing.T) {
	got := Summarize(seriesOf(-5.5, -20, -0.01))

	assert.Equal(t, -20.0, got.Min)
	assert.Equal(t, -0.01, got.Max)
	assert.InDelta(t, -8.503333, got.Mean, 1e-6)
}

func TestSummarize_SingleSample(t *testing.T) {
	got := Summarize(seriesOf(42.42))

	assert.Equal(t, model.StatsSummary{Mean: 42.42, Min: 42.42, Max: 42.42, Count: 1}, got)
}

func TestSummarize_MeanWithinRange(t *testing.T) {
	// 0.1 summed three times rounds up past 0.3.
	got := Summarize(seriesOf(0.1, 0.1, 0.1))
	assert.LessOrEqual(t, got.Min, got.Mean)
	assert.LessOrEqual(t, got.Mean, got.Max)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		n := 1 + r.Intn(96)
		prices := make([]float64, n)
		for j := range prices {
			prices[j] = r.NormFloat64()*80 + 60
		}
		got := Summarize(seriesOf(prices...))
		assert.Equal(t, n, got.Count)
		assert.LessOrEqual(t, got.Min, got.Mean)
		assert.LessOrEqual(t, got.Mean, got.Max)
	}
}
