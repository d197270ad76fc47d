package calendar

import (
	"testing"
	"time"

	"reserva/internal/models"
)

func singleRes(id, start, end string) models.Reservation {
	return models.Reservation{
		ID:            id,
		Occurrence:    models.OccurrenceSingle,
		DateTimeStart: start,
		DateTimeEnd:   end,
		Status:        models.StatusConfirmed,
	}
}

func weeklyRes(id, start, end string) models.Reservation {
	r := singleRes(id, start, end)
	r.Occurrence = models.OccurrenceWeekly
	return r
}

func TestOccupantsSingleExactCell(t *testing.T) {
	// Scenario: a one-hour single reservation lands in its own cell and
	// nowhere else, and does not recur the following week.
	r := singleRes("a", "2024-03-11T09:00", "2024-03-11T10:00")
	list := []models.Reservation{r}

	got := Occupants(NewCell(date(2024, 3, 11), 9), list)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected [a] in its own cell, got %v", got)
	}

	if got := Occupants(NewCell(date(2024, 3, 11), 8), list); len(got) != 0 {
		t.Errorf("expected empty 08:00 cell, got %v", got)
	}
	if got := Occupants(NewCell(date(2024, 3, 11), 10), list); len(got) != 0 {
		t.Errorf("expected empty 10:00 cell, got %v", got)
	}
	// Same weekday, following week: SINGLE does not recur.
	if got := Occupants(NewCell(date(2024, 3, 18), 9), list); len(got) != 0 {
		t.Errorf("expected empty cell next week, got %v", got)
	}
}

func TestOccupantsWeeklyRecurs(t *testing.T) {
	// 2024-03-11 and 2024-04-01 are both Mondays.
	r := weeklyRes("w", "2024-03-11T09:00", "2024-03-11T10:00")
	list := []models.Reservation{r}

	got := Occupants(NewCell(date(2024, 4, 1), 9), list)
	if len(got) != 1 || got[0].ID != "w" {
		t.Fatalf("expected weekly reservation in future monday cell, got %v", got)
	}

	// Tuesday same time never matches.
	if got := Occupants(NewCell(date(2024, 4, 2), 9), list); len(got) != 0 {
		t.Errorf("expected empty tuesday cell, got %v", got)
	}
}

func TestOccupantsHalfOpenBoundaries(t *testing.T) {
	day := date(2024, 3, 11)
	cell := NewCell(day, 9) // 09:00-10:00

	tests := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"ends exactly at slot start", "2024-03-11T08:00", "2024-03-11T09:00", false},
		{"starts exactly at slot end", "2024-03-11T10:00", "2024-03-11T11:00", false},
		{"ends one minute in", "2024-03-11T08:00", "2024-03-11T09:01", true},
		{"starts one minute before slot end", "2024-03-11T09:59", "2024-03-11T11:00", true},
		{"reservation spans the cell", "2024-03-11T08:00", "2024-03-11T12:00", true},
		{"cell spans the reservation", "2024-03-11T09:15", "2024-03-11T09:45", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Occupants(cell, []models.Reservation{singleRes("x", tt.start, tt.end)})
			if (len(got) == 1) != tt.want {
				t.Errorf("expected occupied=%v, got %v", tt.want, got)
			}
		})
	}
}

func TestOccupantsWeeklyComparesTimeOfDay(t *testing.T) {
	// Weekly overlap must ignore the stored calendar date entirely.
	r := weeklyRes("w", "2023-01-02T14:30", "2023-01-02T16:00") // a Monday
	cell := NewCell(date(2024, 4, 1), 15)                       // Monday 15:00-16:00, a year later

	got := Occupants(cell, []models.Reservation{r})
	if len(got) != 1 {
		t.Fatalf("expected weekly time-of-day overlap, got %v", got)
	}
}

// After mapping both ends onto the cell's date, an overnight weekly
// window inverts (end precedes start) and matches no cell at all. Part
// of the pinned overnight behavior.
func TestOccupantsWeeklyOvernightMatchesNothing(t *testing.T) {
	r := weeklyRes("n", "2024-03-11T23:00", "2024-03-12T01:00")
	for hour := 0; hour < 24; hour++ {
		if got := Occupants(NewCell(date(2024, 3, 18), hour), []models.Reservation{r}); len(got) != 0 {
			t.Fatalf("expected overnight weekly to occupy no cell, got hit at hour %d", hour)
		}
	}
}

func TestOccupantsExcludesMalformed(t *testing.T) {
	// Scenario: a reservation missing its end is dropped from every
	// cell without panicking.
	broken := models.Reservation{
		ID:            "broken",
		Occurrence:    models.OccurrenceSingle,
		DateTimeStart: "2024-03-11T09:00",
	}
	list := []models.Reservation{broken}

	for hour := 7; hour < 23; hour++ {
		for d := 0; d < 7; d++ {
			cell := NewCell(date(2024, 3, 11+d), hour)
			if got := Occupants(cell, list); len(got) != 0 {
				t.Fatalf("malformed reservation leaked into cell %v", cell)
			}
		}
	}

	if n := CountDropped(list); n != 1 {
		t.Errorf("expected 1 dropped, got %d", n)
	}
}

func TestOccupantsMultipleAndIdempotent(t *testing.T) {
	list := []models.Reservation{
		singleRes("a", "2024-03-11T09:00", "2024-03-11T10:00"),
		weeklyRes("b", "2024-03-04T09:30", "2024-03-04T10:30"), // Monday weekly
		singleRes("off", "2024-03-11T11:00", "2024-03-11T12:00"),
	}
	cell := NewCell(date(2024, 3, 11), 9)

	first := Occupants(cell, list)
	if len(first) != 2 {
		t.Fatalf("expected 2 occupants, got %v", first)
	}

	second := Occupants(cell, list)
	if len(second) != len(first) {
		t.Fatalf("occupants not idempotent: %v vs %v", first, second)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("occupant order changed between calls")
		}
	}
}

func TestDayOccupants(t *testing.T) {
	sunday := date(2024, 3, 17)
	list := []models.Reservation{
		singleRes("sun", "2024-03-17T09:00", "2024-03-17T10:00"),
		weeklyRes("mon", "2024-03-11T09:00", "2024-03-11T10:00"),
	}

	// Sunday reservations are reachable through the month view even
	// though the week grid has no Sunday column.
	got := DayOccupants(sunday, list)
	if len(got) != 1 || got[0].ID != "sun" {
		t.Fatalf("expected sunday reservation in month view, got %v", got)
	}

	got = DayOccupants(date(2024, 4, 1), list)
	if len(got) != 1 || got[0].ID != "mon" {
		t.Fatalf("expected weekly monday reservation, got %v", got)
	}
}

func TestOccupantsNoHiddenState(t *testing.T) {
	cell := NewCell(date(2024, 3, 11), 9)
	list := []models.Reservation{singleRes("a", "2024-03-11T09:00", "2024-03-11T10:00")}

	if got := Occupants(cell, list); len(got) != 1 {
		t.Fatalf("unexpected occupants: %v", got)
	}
	// A different snapshot must be re-evaluated from scratch.
	if got := Occupants(cell, nil); len(got) != 0 {
		t.Fatalf("resolver cached previous snapshot: %v", got)
	}
}

func TestNewCellWindow(t *testing.T) {
	cell := NewCell(time.Date(2024, 3, 11, 13, 45, 0, 0, time.UTC), 9)
	if !cell.DayDate.Equal(date(2024, 3, 11)) {
		t.Errorf("day date not truncated: %v", cell.DayDate)
	}
	if cell.SlotEnd.Sub(cell.SlotStart) != time.Hour {
		t.Errorf("cell is not one hour: %v", cell)
	}
	if cell.SlotStart.Hour() != 9 {
		t.Errorf("slot start hour: expected 9, got %d", cell.SlotStart.Hour())
	}
}
