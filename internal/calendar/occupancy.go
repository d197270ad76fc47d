package calendar

import (
	"time"

	"reserva/internal/models"
)

// Cell is one (day, hour-slot) intersection of the week grid. Cells are
// derived values regenerated on every render; they own nothing.
type Cell struct {
	DayDate   time.Time
	SlotStart time.Time
	SlotEnd   time.Time
}

// NewCell builds the one-hour cell starting at the given hour of day.
func NewCell(day time.Time, hour int) Cell {
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
	return Cell{
		DayDate:   time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		SlotStart: start,
		SlotEnd:   start.Add(time.Hour),
	}
}

// Occupants returns the reservations overlapping the cell. Malformed
// intervals are dropped, recurrence applicability is checked against
// the cell's date, and the remaining windows are tested for half-open
// overlap with [SlotStart, SlotEnd). For WEEKLY reservations only
// time-of-day is compared (both windows mapped onto the cell's date);
// SINGLE reservations are compared as absolute instants.
//
// The function is a pure read over its inputs: no caching, no
// mutation, so repeated calls with the same arguments agree.
func Occupants(cell Cell, reservations []models.Reservation) []models.Reservation {
	out := make([]models.Reservation, 0)
	for _, r := range reservations {
		iv, ok := NormalizeInterval(r)
		if !ok {
			continue
		}
		if !appliesTo(r.Occurrence, iv.Start, cell.DayDate) {
			continue
		}

		resStart, resEnd := iv.Start, iv.End
		if r.Occurrence == models.OccurrenceWeekly {
			resStart = onDay(cell.DayDate, iv.Start)
			resEnd = onDay(cell.DayDate, iv.End)
		}
		if overlaps(resStart, resEnd, cell.SlotStart, cell.SlotEnd) {
			out = append(out, r)
		}
	}
	return out
}

// DayOccupants returns the reservations applicable to a calendar date,
// ignoring hour slots. The month view uses this, which is why Sunday
// reservations stay visible there while the Monday-Saturday week grid
// drops them.
func DayOccupants(day time.Time, reservations []models.Reservation) []models.Reservation {
	out := make([]models.Reservation, 0)
	for _, r := range reservations {
		iv, ok := NormalizeInterval(r)
		if !ok {
			continue
		}
		if appliesTo(r.Occurrence, iv.Start, day) {
			out = append(out, r)
		}
	}
	return out
}

// CountDropped returns how many reservations in the snapshot fail
// interval normalization. Used for data-quality metrics only; the
// resolver itself drops them silently.
func CountDropped(reservations []models.Reservation) int {
	dropped := 0
	for _, r := range reservations {
		if _, ok := NormalizeInterval(r); !ok {
			dropped++
		}
	}
	return dropped
}
