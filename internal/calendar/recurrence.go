package calendar

import (
	"time"

	"reserva/internal/models"
)

// AppliesTo reports whether a reservation occupies the given target
// date. SINGLE reservations match only their exact calendar date.
// WEEKLY reservations match every date sharing the weekday of their
// start instant; the stored date is just the first occurrence.
//
// A WEEKLY window that crosses midnight is matched by its start weekday
// only; the spill into the next day is not projected. See the overnight
// test in recurrence_test.go for the pinned behavior.
func AppliesTo(r models.Reservation, target time.Time) bool {
	iv, ok := NormalizeInterval(r)
	if !ok {
		return false
	}
	return appliesTo(r.Occurrence, iv.Start, target)
}

func appliesTo(occ models.Occurrence, start, target time.Time) bool {
	if occ == models.OccurrenceWeekly {
		return start.Weekday() == target.Weekday()
	}
	return sameDate(start, target)
}
