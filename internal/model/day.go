package model

import (
	"fmt"
	"time"
)

// DateLayout is the date format the price API consumes.
const DateLayout = "2006-01-02"

// CalendarDay is a civil date interpreted in a named timezone.
type CalendarDay struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
	Zone  string     `json:"zone"`
}

// String formats the day as YYYY-MM-DD.
func (d CalendarDay) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Contains reports whether t falls on this civil date in loc.
func (d CalendarDay) Contains(t time.Time, loc *time.Location) bool {
	y, m, dd := t.In(loc).Date()
	return y == d.Year && m == d.Month && dd == d.Day
}

// QueryWindow bounds a CalendarDay's full local span in UTC.
type QueryWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StartDate is the UTC date of Start, as the price API expects it.
func (w QueryWindow) StartDate() string { return w.Start.UTC().Format(DateLayout) }

// EndDate is the UTC date of End.
func (w QueryWindow) EndDate() string { return w.End.UTC().Format(DateLayout) }

// StatsSummary aggregates a PriceSeries. Count == 0 means no data; the other
// fields are then zero.
type StatsSummary struct {
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Empty reports whether the summary is the no-data sentinel.
func (s StatsSummary) Empty() bool { return s.Count == 0 }

// FilterResult is the day-exact series plus bookkeeping about what was removed.
type FilterResult struct {
	Series     PriceSeries
	Dropped    int // samples whose timestamp could not be converted
	OutsideDay int // valid samples on an adjacent civil day
}

// DayReport is the outcome of one pipeline run for one day.
type DayReport struct {
	RunID       string       `json:"run_id"`
	Region      string       `json:"region"`
	Day         CalendarDay  `json:"day"`
	Window      QueryWindow  `json:"window"`
	LicenseInfo string       `json:"license_info"`
	Series      PriceSeries  `json:"series"`
	Summary     StatsSummary `json:"summary"`
	Dropped     int          `json:"dropped"`
	GeneratedAt time.Time    `json:"generated_at"`
}
