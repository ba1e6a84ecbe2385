package recorder

import (
	"errors"

	"SpotSentinel/internal/model"
)

// ErrNotFound is returned when no report exists for the requested day.
var ErrNotFound = errors.New("report not found")

// Recorder persists day reports for later analysis.
type Recorder interface {
	RecordDay(report *model.DayReport) error
	// LoadDay returns the most recent report for region and day (YYYY-MM-DD).
	LoadDay(region, day string) (*model.DayReport, error)
	Close() error
}
