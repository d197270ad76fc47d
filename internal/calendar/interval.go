// Package calendar implements the slot-resolution core: interval
// normalization, recurrence applicability and cell-occupancy math.
// Everything here is pure; callers own fetching and state.
package calendar

import (
	"strings"
	"time"

	"reserva/internal/models"
)

// Interval is a normalized half-open [Start, End) reservation window.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Accepted datetime layouts, tried in order. The backend emits ISO
// datetimes; older records carry a space separator or omit seconds.
var datetimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// ParseWallClock parses a datetime string into a timezone-naive instant.
// Zone offsets, when present, are dropped: the institution runs on a
// single wall clock and comparisons must not shift across zones.
func ParseWallClock(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range datetimeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), true
	}
	return time.Time{}, false
}

// CombineDateTime builds an instant from separate "2006-01-02" date and
// "15:04" time strings.
func CombineDateTime(dateStr, timeStr string) (time.Time, bool) {
	dateStr = strings.TrimSpace(dateStr)
	timeStr = strings.TrimSpace(timeStr)
	if dateStr == "" || timeStr == "" {
		return time.Time{}, false
	}
	return ParseWallClock(dateStr + "T" + timeStr)
}

// NormalizeInterval converts a reservation's raw bounds into an
// Interval. It fails when either bound is absent or unparsable, or when
// the end is not strictly after the start; such reservations are
// excluded from display rather than surfaced as errors.
func NormalizeInterval(r models.Reservation) (Interval, bool) {
	start, ok := ParseWallClock(r.DateTimeStart)
	if !ok {
		return Interval{}, false
	}
	end, ok := ParseWallClock(r.DateTimeEnd)
	if !ok {
		return Interval{}, false
	}
	if !end.After(start) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// overlaps reports whether two half-open intervals intersect. A window
// ending exactly at the other's start does not overlap.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// onDay maps the time-of-day of t onto the calendar date of day.
func onDay(day, t time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, day.Location())
}

// sameDate reports whether two instants fall on the same calendar day.
func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
