package server

import (
	"time"

	"SpotSentinel/internal/model"
)

type summaryResponse struct {
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

type pricePoint struct {
	Time        time.Time `json:"time"`
	UnixSeconds int64     `json:"unix_seconds"`
	Price       float64   `json:"price"`
}

type reportResponse struct {
	RunID       string          `json:"run_id"`
	Region      string          `json:"region"`
	Date        string          `json:"date"`
	Timezone    string          `json:"timezone"`
	WindowStart time.Time       `json:"window_start"`
	WindowEnd   time.Time       `json:"window_end"`
	Unit        string          `json:"unit"`
	Summary     summaryResponse `json:"summary"`
	Dropped     int             `json:"dropped"`
	License     string          `json:"license_info,omitempty"`
	Prices      []pricePoint    `json:"prices"`
	GeneratedAt time.Time       `json:"generated_at"`
}

func newReportResponse(r *model.DayReport) reportResponse {
	loc, err := time.LoadLocation(r.Day.Zone)
	if err != nil {
		loc = time.UTC
	}
	prices := make([]pricePoint, 0, r.Series.Len())
	for _, s := range r.Series.Samples {
		t, err := s.Time()
		if err != nil {
			continue
		}
		prices = append(prices, pricePoint{Time: t.In(loc), UnixSeconds: s.UnixSeconds, Price: s.Price})
	}
	return reportResponse{
		RunID:       r.RunID,
		Region:      r.Region,
		Date:        r.Day.String(),
		Timezone:    loc.String(),
		WindowStart: r.Window.Start.UTC(),
		WindowEnd:   r.Window.End.UTC(),
		Unit:        r.Series.Unit,
		Summary: summaryResponse{
			Mean:  r.Summary.Mean,
			Min:   r.Summary.Min,
			Max:   r.Summary.Max,
			Count: r.Summary.Count,
		},
		Dropped:     r.Dropped,
		License:     r.LicenseInfo,
		Prices:      prices,
		GeneratedAt: r.GeneratedAt.UTC(),
	}
}
