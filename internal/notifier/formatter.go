package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"SpotSentinel/internal/model"
)

// Formatter renders day reports. HTML output targets Telegram's HTML parse
// mode; plain output is for terminals.
type Formatter struct {
	Location     *time.Location
	PreviewCount int
	HTML         bool
}

func (f Formatter) bold(s string) string {
	if f.HTML {
		return "<b>" + html.EscapeString(s) + "</b>"
	}
	return s
}

func (f Formatter) text(s string) string {
	if f.HTML {
		return html.EscapeString(s)
	}
	return s
}

// FormatDayReport formats the statistics and the first prices of a day.
func (f Formatter) FormatDayReport(r *model.DayReport) string {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	unit := f.text(r.Series.Unit)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔌 %s | %s (%s)\n\n",
		f.bold("Electricity prices "+strings.ToUpper(r.Region)), r.Day.String(), f.text(loc.String())))

	if r.Summary.Empty() {
		b.WriteString("No price data available\n")
	} else {
		b.WriteString(fmt.Sprintf("💰 Average: %.2f %s\n", r.Summary.Mean, unit))
		b.WriteString(fmt.Sprintf("📉 Lowest:  %.2f %s\n", r.Summary.Min, unit))
		b.WriteString(fmt.Sprintf("📈 Highest: %.2f %s\n", r.Summary.Max, unit))
		b.WriteString(fmt.Sprintf("📋 Data points: %d\n", r.Summary.Count))
	}

	if f.PreviewCount > 0 {
		b.WriteString("\n")
		b.WriteString(f.formatPreview(r.Series, loc, unit))
	}

	if r.Dropped > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d sample(s) skipped: unusable timestamp\n", r.Dropped))
	}
	if r.LicenseInfo != "" {
		b.WriteString(fmt.Sprintf("\n📄 License: %s\n", f.text(r.LicenseInfo)))
	}
	return b.String()
}

func (f Formatter) formatPreview(series model.PriceSeries, loc *time.Location, unit string) string {
	if len(series.Samples) == 0 {
		return "⏰ No prices found for the requested date\n"
	}

	var b strings.Builder
	n := f.PreviewCount
	if n > len(series.Samples) {
		n = len(series.Samples)
	}
	b.WriteString(fmt.Sprintf("⏰ First %d prices:\n", n))
	for _, s := range series.Samples[:n] {
		label := "??:??"
		if t, err := s.Time(); err == nil {
			label = t.In(loc).Format("15:04")
		}
		b.WriteString(fmt.Sprintf("   %s: %.2f %s\n", label, s.Price, unit))
	}
	if rest := len(series.Samples) - n; rest > 0 {
		b.WriteString(fmt.Sprintf("   ... and %d more\n", rest))
	}
	return b.String()
}

// FormatError formats a failed run.
func (f Formatter) FormatError(region string, day model.CalendarDay, err error) string {
	return fmt.Sprintf("❌ %s %s: %s", f.bold("Price report failed"),
		f.text(strings.ToUpper(region)+" "+day.String()), f.text(err.Error()))
}

// FormatRange formats a one-line-per-day overview.
func (f Formatter) FormatRange(reports []*model.DayReport) string {
	var b strings.Builder
	b.WriteString(f.bold("Daily averages") + "\n")
	for _, r := range reports {
		if r.Summary.Empty() {
			b.WriteString(fmt.Sprintf("%s: no data\n", r.Day.String()))
			continue
		}
		b.WriteString(fmt.Sprintf("%s: %.2f %s (min %.2f, max %.2f, n=%d)\n",
			r.Day.String(), r.Summary.Mean, f.text(r.Series.Unit), r.Summary.Min, r.Summary.Max, r.Summary.Count))
	}
	return b.String()
}
