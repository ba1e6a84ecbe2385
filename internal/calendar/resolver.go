package calendar

import (
	"errors"
	"fmt"
	"time"

	"SpotSentinel/internal/model"
)

// ErrInvalidDate is returned for dates that are not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// LoadZone loads an IANA timezone such as "Europe/Berlin".
func LoadZone(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// Resolve returns the civil day containing now in loc, and the UTC window
// covering that day from 00:00:00 to 23:59:59 local time.
func Resolve(now time.Time, loc *time.Location) (model.CalendarDay, model.QueryWindow) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	day := model.CalendarDay{Year: y, Month: m, Day: d, Zone: loc.String()}
	return day, Window(day, loc)
}

// ResolveDate parses a YYYY-MM-DD date and resolves it in loc.
func ResolveDate(date string, loc *time.Location) (model.CalendarDay, model.QueryWindow, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return model.CalendarDay{}, model.QueryWindow{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, date, err)
	}
	day := model.CalendarDay{Year: t.Year(), Month: t.Month(), Day: t.Day(), Zone: loc.String()}
	return day, Window(day, loc), nil
}

// Shift moves day by n civil days, keeping its zone.
func Shift(day model.CalendarDay, n int) model.CalendarDay {
	t := time.Date(day.Year, day.Month, day.Day+n, 12, 0, 0, 0, time.UTC)
	return model.CalendarDay{Year: t.Year(), Month: t.Month(), Day: t.Day(), Zone: day.Zone}
}

// Window converts day's local bounds to UTC. Each bound uses the offset in
// effect at that local moment, so 23 and 25 hour days come out right.
func Window(day model.CalendarDay, loc *time.Location) model.QueryWindow {
	if loc == nil {
		loc = time.UTC
	}
	start := localInstant(day.Year, day.Month, day.Day, 0, 0, 0, loc, false)
	end := localInstant(day.Year, day.Month, day.Day, 23, 59, 59, loc, true)
	return model.QueryWindow{Start: start.UTC(), End: end.UTC()}
}

// localInstant maps a wall-clock time in loc to an instant.
// A wall time inside a spring-forward gap maps to the first instant after the
// gap. A wall time that occurs twice maps to the earlier occurrence, or the
// later one when latest is set.
func localInstant(year int, month time.Month, day, hour, minute, sec int, loc *time.Location, latest bool) time.Time {
	want := time.Date(year, month, day, hour, minute, sec, 0, time.UTC)
	t := time.Date(year, month, day, hour, minute, sec, 0, loc)

	got := wallClock(t)
	switch {
	case got.After(want):
		// Landed past the gap; the zone we landed in starts at the transition.
		if start, _ := t.ZoneBounds(); !start.IsZero() {
			return start
		}
		return t
	case got.Before(want):
		if _, end := t.ZoneBounds(); !end.IsZero() {
			return end
		}
		return t
	}

	start, end := t.ZoneBounds()
	_, offset := t.Zone()
	if latest && !end.IsZero() {
		_, next := end.Zone()
		alt := t.Add(time.Duration(offset-next) * time.Second)
		if !alt.Before(end) && wallClock(alt).Equal(want) {
			return alt
		}
	}
	if !latest && !start.IsZero() {
		_, prev := start.Add(-time.Second).Zone()
		alt := t.Add(time.Duration(offset-prev) * time.Second)
		if alt.Before(start) && wallClock(alt).Equal(want) {
			return alt
		}
	}
	return t
}

// wallClock drops t's offset, keeping the local reading.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
