package collector

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"SpotSentinel/internal/calculator"
	"SpotSentinel/internal/calendar"
	"SpotSentinel/internal/metrics"
	"SpotSentinel/internal/model"
)

// MockFetcher returns fixed data for development and testing.
type MockFetcher struct {
	Response *model.RawPriceResponse
	Err      error

	mu      sync.Mutex
	Windows []model.QueryWindow // windows requested so far
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchPrices(_ context.Context, _ string, window model.QueryWindow) (*model.RawPriceResponse, error) {
	m.mu.Lock()
	m.Windows = append(m.Windows, window)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Response != nil {
		return m.Response, nil
	}
	return GenerateMockResponse(window, 80), nil
}

// GenerateMockResponse produces hourly prices covering every UTC date the
// window touches, the way the real API answers.
func GenerateMockResponse(window model.QueryWindow, basePrice float64) *model.RawPriceResponse {
	start := window.Start.UTC().Truncate(24 * time.Hour)
	end := window.End.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	resp := &model.RawPriceResponse{
		LicenseInfo: "mock data",
		Unit:        "EUR/MWh",
	}
	for t, i := start, 0; t.Before(end); t, i = t.Add(time.Hour), i+1 {
		resp.UnixSeconds = append(resp.UnixSeconds, t.Unix())
		resp.Price = append(resp.Price, basePrice+float64(i%24-12)*5)
	}
	return resp
}

// Collector resolves the target day, fetches it, and computes statistics.
type Collector struct {
	Fetcher     Fetcher
	Clock       calendar.Clock
	Region      string
	Location    *time.Location
	Parallelism int
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, clock calendar.Clock, region string, loc *time.Location, logger *zap.Logger) *Collector {
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		Fetcher:     fetcher,
		Clock:       clock,
		Region:      region,
		Location:    loc,
		Parallelism: 4,
		Logger:      logger,
	}
}

// Today returns the civil day the clock is currently on.
func (c *Collector) Today() model.CalendarDay {
	day, _ := calendar.Resolve(c.Clock.Now(), c.Location)
	return day
}

// Collect reports the current local day.
func (c *Collector) Collect(ctx context.Context) (*model.DayReport, error) {
	return c.CollectAt(ctx, c.Clock.Now())
}

// CollectAt reports the local day containing at.
func (c *Collector) CollectAt(ctx context.Context, at time.Time) (*model.DayReport, error) {
	day, window := calendar.Resolve(at, c.Location)
	return c.collect(ctx, day, window)
}

// CollectDay reports the given civil day.
func (c *Collector) CollectDay(ctx context.Context, day model.CalendarDay) (*model.DayReport, error) {
	day.Zone = c.Location.String()
	return c.collect(ctx, day, calendar.Window(day, c.Location))
}

// CollectRange reports n consecutive days starting at first. Days run in
// parallel; reports come back in calendar order. The first failure is returned
// after all started days finish.
func (c *Collector) CollectRange(ctx context.Context, first model.CalendarDay, n int) ([]*model.DayReport, error) {
	if n <= 0 {
		return nil, nil
	}
	workers := c.Parallelism
	if workers < 1 {
		workers = 1
	}

	p := pool.NewWithResults[*model.DayReport]().WithContext(ctx).WithMaxGoroutines(workers)
	for i := 0; i < n; i++ {
		day := calendar.Shift(first, i)
		p.Go(func(ctx context.Context) (*model.DayReport, error) {
			return c.CollectDay(ctx, day)
		})
	}
	results, err := p.Wait()
	reports := make([]*model.DayReport, 0, len(results))
	for _, r := range results {
		if r != nil {
			reports = append(reports, r)
		}
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Window.Start.Before(reports[j].Window.Start)
	})
	return reports, err
}

func (c *Collector) collect(ctx context.Context, day model.CalendarDay, window model.QueryWindow) (*model.DayReport, error) {
	log := c.Logger.With(zap.String("region", c.Region), zap.Stringer("day", day))
	log.Debug("fetching prices",
		zap.String("fetcher", c.Fetcher.Name()),
		zap.String("start", window.StartDate()),
		zap.String("end", window.EndDate()))

	started := time.Now()
	raw, err := c.Fetcher.FetchPrices(ctx, c.Region, window)
	c.Metrics.ObserveFetch(c.Region, time.Since(started))
	if err != nil {
		c.Metrics.ObserveFailure(c.Region, err)
		return nil, fmt.Errorf("fetch prices for %s: %w", day, err)
	}

	series, unpaired := raw.Series()
	filtered := calculator.FilterDay(series, day, c.Location)
	dropped := filtered.Dropped + unpaired
	if dropped > 0 {
		log.Warn("dropped samples with unusable timestamps",
			zap.Int("dropped", filtered.Dropped),
			zap.Int("unpaired", unpaired))
	}

	report := &model.DayReport{
		RunID:       uuid.NewString(),
		Region:      c.Region,
		Day:         day,
		Window:      window,
		LicenseInfo: raw.LicenseInfo,
		Series:      filtered.Series,
		Summary:     calculator.Summarize(filtered.Series),
		Dropped:     dropped,
		GeneratedAt: c.Clock.Now(),
	}
	c.Metrics.ObserveReport(report)

	log.Info("collected prices",
		zap.Int("raw", series.Len()),
		zap.Int("kept", report.Summary.Count),
		zap.Int("outside_day", filtered.OutsideDay),
		zap.Float64("mean", report.Summary.Mean))
	return report, nil
}
