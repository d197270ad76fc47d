// Package view holds the calendar navigation state machine and grid
// generation. It owns NavigationState and the derived cell grid;
// occupancy queries are delegated to the calendar package.
package view

import (
	"time"

	"reserva/internal/calendar"
)

// ViewMode selects the visible grid.
type ViewMode string

const (
	ViewWeek  ViewMode = "WEEK"
	ViewMonth ViewMode = "MONTH"
)

// Grid layout constants. The hour range is a configuration constant,
// independent of reservation content.
const (
	DefaultFirstHour = 7  // first slot starts 07:00
	DefaultSlotCount = 16 // one-hour slots
	WeekGridDays     = 6  // Monday through Saturday; Sunday is not shown
)

// NavigationState identifies the visible period and mode.
type NavigationState struct {
	CurrentDate time.Time `json:"current_date"`
	ViewMode    ViewMode  `json:"view_mode"`
}

// Controller is the long-lived navigation state machine. Navigation
// actions are the only mutations; occupancy computation never touches
// state. Not safe for concurrent use; callers serialize access the way
// a UI event loop would.
type Controller struct {
	state     NavigationState
	firstHour int
	slotCount int
	now       func() time.Time
}

// NewController starts at today's date in week mode. Non-positive grid
// parameters fall back to the defaults.
func NewController(firstHour, slotCount int) *Controller {
	if firstHour <= 0 {
		firstHour = DefaultFirstHour
	}
	if slotCount <= 0 {
		slotCount = DefaultSlotCount
	}
	c := &Controller{
		firstHour: firstHour,
		slotCount: slotCount,
		now:       time.Now,
	}
	c.state = NavigationState{CurrentDate: dateOnly(c.now()), ViewMode: ViewWeek}
	return c
}

// SetClock overrides the time source. Tests use this; production code
// keeps the default.
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
	c.state.CurrentDate = dateOnly(now())
}

// State returns the current navigation state.
func (c *Controller) State() NavigationState {
	return c.state
}

// PreviousWeek moves the anchor date back seven days.
func (c *Controller) PreviousWeek() {
	c.state.CurrentDate = c.state.CurrentDate.AddDate(0, 0, -7)
}

// NextWeek moves the anchor date forward seven days.
func (c *Controller) NextWeek() {
	c.state.CurrentDate = c.state.CurrentDate.AddDate(0, 0, 7)
}

// PreviousMonth moves the anchor date back one month (month view).
func (c *Controller) PreviousMonth() {
	c.state.CurrentDate = c.state.CurrentDate.AddDate(0, -1, 0)
}

// NextMonth moves the anchor date forward one month (month view).
func (c *Controller) NextMonth() {
	c.state.CurrentDate = c.state.CurrentDate.AddDate(0, 1, 0)
}

// Today resets the anchor date to the current date. It is a no-op when
// the visible week already contains today; callers can also check
// TodayDisabled to grey out the button.
func (c *Controller) Today() {
	if c.TodayDisabled() {
		return
	}
	c.state.CurrentDate = dateOnly(c.now())
}

// TodayDisabled reports whether the visible week already contains the
// current date, by ISO week equality (Monday start).
func (c *Controller) TodayDisabled() bool {
	cy, cw := c.state.CurrentDate.ISOWeek()
	ny, nw := dateOnly(c.now()).ISOWeek()
	return cy == ny && cw == nw
}

// SwitchView changes the display mode; the anchor date is preserved.
func (c *Controller) SwitchView(mode ViewMode) {
	if mode != ViewWeek && mode != ViewMonth {
		return
	}
	c.state.ViewMode = mode
}

// JumpTo moves the anchor to the first day of the given month, as the
// month/year picker does.
func (c *Controller) JumpTo(year int, month time.Month) {
	c.state.CurrentDate = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// GoTo anchors the view on an arbitrary date. Stateless callers (the
// HTTP grid endpoints) use this to build a grid for a requested date.
func (c *Controller) GoTo(date time.Time) {
	c.state.CurrentDate = dateOnly(date)
}

// WeekStart returns the Monday of the visible week.
func (c *Controller) WeekStart() time.Time {
	d := c.state.CurrentDate
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekDays returns the six visible columns, Monday through Saturday.
func (c *Controller) WeekDays() []time.Time {
	start := c.WeekStart()
	days := make([]time.Time, WeekGridDays)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// SlotHours returns the starting hour of every row in the grid.
func (c *Controller) SlotHours() []int {
	hours := make([]int, c.slotCount)
	for i := range hours {
		hours[i] = c.firstHour + i
	}
	return hours
}

// WeekCells regenerates the full week grid, one row per hour slot and
// one column per visible day.
func (c *Controller) WeekCells() [][]calendar.Cell {
	days := c.WeekDays()
	rows := make([][]calendar.Cell, c.slotCount)
	for i := 0; i < c.slotCount; i++ {
		row := make([]calendar.Cell, len(days))
		for j, day := range days {
			row[j] = calendar.NewCell(day, c.firstHour+i)
		}
		rows[i] = row
	}
	return rows
}

// MonthDays returns every day of the visible month, Sundays included.
func (c *Controller) MonthDays() []time.Time {
	d := c.state.CurrentDate
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	var days []time.Time
	for cur := first; cur.Month() == first.Month(); cur = cur.AddDate(0, 0, 1) {
		days = append(days, cur)
	}
	return days
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
