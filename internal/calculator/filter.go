package calculator

import (
	"time"

	"SpotSentinel/internal/model"
)

// FilterDay keeps the samples that fall on day in loc. The price API windows by
// UTC date, so the raw series usually carries a few hours of the neighbouring
// local days. Samples with unusable timestamps are dropped and counted.
func FilterDay(series model.PriceSeries, day model.CalendarDay, loc *time.Location) model.FilterResult {
	if loc == nil {
		loc = time.UTC
	}
	res := model.FilterResult{
		Series: model.PriceSeries{
			Unit:    series.Unit,
			Samples: make([]model.Sample, 0, len(series.Samples)),
		},
	}
	for _, s := range series.Samples {
		t, err := s.Time()
		if err != nil {
			res.Dropped++
			continue
		}
		if !day.Contains(t, loc) {
			res.OutsideDay++
			continue
		}
		res.Series.Samples = append(res.Series.Samples, s)
	}
	return res
}
