package formatter

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatSeconds renders a duration in seconds as "2h 05m 30s", dropping
// leading zero components.
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatMinutes renders a minute total as "7h 30m". Fractional minutes are
// rounded to the nearest whole minute.
func FormatMinutes(minutes float64) string {
	total := int(math.Round(minutes))
	if total < 0 {
		total = 0
	}
	h := total / 60
	m := total % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}

// Clock renders elapsed seconds as a stopwatch readout, "01:23:45".
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// HumanTimestamp renders a timestamp relative to now, e.g. "12 minutes ago".
func HumanTimestamp(t time.Time) string {
	return humanize.Time(t)
}

// HumanDate renders a calendar date with today/yesterday shortcuts.
func HumanDate(date string) string {
	t, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return date
	}
	now := time.Now()
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return "Today"
	}
	yest := now.AddDate(0, 0, -1)
	y3, m3, d3 := yest.Date()
	if y2 == y3 && m2 == m3 && d2 == d3 {
		return "Yesterday"
	}
	return t.Format("Mon, Jan 2")
}

// Truncate shortens free text for table cells.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
