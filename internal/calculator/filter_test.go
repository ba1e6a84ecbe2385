package calculator

import (
	"math"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpotSentinel/internal/model"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func unix(s string) int64 {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.Unix()
}

var targetDay = model.CalendarDay{Year: 2024, Month: time.January, Day: 15, Zone: "Europe/Berlin"}

func TestFilterDay_KeepsSamplesFromPrecedingUTCDay(t *testing.T) {
	series := model.PriceSeries{
		Unit: "EUR/MWh",
		Samples: []model.Sample{
			{UnixSeconds: unix("2024-01-14T22:00:00Z"), Price: 99},   // 23:00 on the 14th
			{UnixSeconds: unix("2024-01-14T23:00:00Z"), Price: 80.5}, // 00:00
			{UnixSeconds: unix("2024-01-14T23:30:00Z"), Price: 78.25},
			{UnixSeconds: unix("2024-01-15T11:00:00Z"), Price: -4.1}, // 12:00
			{UnixSeconds: unix("2024-01-15T22:00:00Z"), Price: 101},  // 23:00
			{UnixSeconds: unix("2024-01-15T23:00:00Z"), Price: 55},   // 00:00 on the 16th
		},
	}

	res := FilterDay(series, targetDay, berlin(t))

	require.Len(t, res.Series.Samples, 4)
	assert.Equal(t, []float64{80.5, 78.25, -4.1, 101}, res.Series.Prices())
	assert.Equal(t, "EUR/MWh", res.Series.Unit)
	assert.Equal(t, 0, res.Dropped)
	assert.Equal(t, 2, res.OutsideDay)

	stats := Summarize(res.Series)
	assert.Equal(t, 4, stats.Count)
	for _, p := range res.Series.Prices() {
		assert.LessOrEqual(t, stats.Min, p)
		assert.GreaterOrEqual(t, stats.Max, p)
	}
}

func TestFilterDay_AllOutsideDay(t *testing.T) {
	series := model.PriceSeries{
		Unit: "EUR/MWh",
		Samples: []model.Sample{
			{UnixSeconds: unix("2024-01-13T12:00:00Z"), Price: 10},
			{UnixSeconds: unix("2024-01-16T12:00:00Z"), Price: 20},
		},
	}

	res := FilterDay(series, targetDay, berlin(t))

	assert.Empty(t, res.Series.Samples)
	assert.Equal(t, 2, res.OutsideDay)
	assert.Equal(t, model.StatsSummary{}, Summarize(res.Series))
}

func TestFilterDay_DropsUnconvertibleTimestamp(t *testing.T) {
	series := model.PriceSeries{
		Unit: "EUR/MWh",
		Samples: []model.Sample{
			{UnixSeconds: unix("2024-01-15T05:00:00Z"), Price: 3},
			{UnixSeconds: math.MaxInt64, Price: 1000},
			{UnixSeconds: unix("2024-01-15T01:00:00Z"), Price: 1},
			{UnixSeconds: unix("2024-01-15T03:00:00Z"), Price: 2},
		},
	}

	res := FilterDay(series, targetDay, berlin(t))

	assert.Equal(t, []float64{3, 1, 2}, res.Series.Prices())
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, 0, res.OutsideDay)
}

func TestFilterDay_IsOrderPreservingSubsequence(t *testing.T) {
	loc := berlin(t)
	start := time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC)
	var samples []model.Sample
	for i := 0; i < 48; i++ {
		// Deliberately unsorted: walk backwards in time.
		ts := start.Add(time.Duration(47-i) * time.Hour)
		samples = append(samples, model.Sample{UnixSeconds: ts.Unix(), Price: float64(i)})
	}
	samples = append(samples, model.Sample{UnixSeconds: math.MinInt64, Price: -1})

	res := FilterDay(model.PriceSeries{Samples: samples}, targetDay, loc)

	require.Len(t, res.Series.Samples, 24)
	last := -1.0
	for _, s := range res.Series.Samples {
		assert.Greater(t, s.Price, last, "order must follow input")
		last = s.Price
		ts, err := s.Time()
		require.NoError(t, err)
		assert.True(t, targetDay.Contains(ts, loc))
	}
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, 24, res.OutsideDay)
}

func TestFilterDay_EmptyInput(t *testing.T) {
	res := FilterDay(model.PriceSeries{Unit: "EUR/MWh"}, targetDay, nil)

	assert.NotNil(t, res.Series.Samples)
	assert.Empty(t, res.Series.Samples)
	assert.Zero(t, res.Dropped)
}

func TestFilterDay_DSTShortDayKeeps23Hours(t *testing.T) {
	loc := berlin(t)
	day := model.CalendarDay{Year: 2024, Month: time.March, Day: 31, Zone: "Europe/Berlin"}
	start := time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC)
	var samples []model.Sample
	for i := 0; i < 72; i++ {
		samples = append(samples, model.Sample{UnixSeconds: start.Add(time.Duration(i) * time.Hour).Unix(), Price: 1})
	}

	res := FilterDay(model.PriceSeries{Samples: samples}, day, loc)

	assert.Len(t, res.Series.Samples, 23)
}
