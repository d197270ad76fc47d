package export

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"reserva/internal/calendar"
	"reserva/internal/models"
)

// Feed writes the reservations as an iCalendar feed. Weekly
// reservations carry an RRULE so subscribing calendars repeat them;
// reservations with malformed intervals are skipped, same as the grid.
func Feed(w io.Writer, reservations []models.Reservation) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//reserva//calendar feed//EN")

	for _, r := range reservations {
		iv, ok := calendar.NormalizeInterval(r)
		if !ok {
			continue
		}

		uid := r.ID
		if uid == "" {
			uid = uuid.NewString()
		}
		event := cal.AddEvent(uid)
		event.SetDtStampTime(time.Now())
		event.SetStartAt(iv.Start)
		event.SetEndAt(iv.End)
		event.SetSummary(summary(r))
		if d, ok := r.Detail.(models.EventDetail); ok && d.Location != "" {
			event.SetLocation(d.Location)
		}

		if r.Occurrence == models.OccurrenceWeekly {
			rule, err := weeklyRule(iv.Start)
			if err != nil {
				return fmt.Errorf("weekly rule for %s: %w", uid, err)
			}
			event.AddRrule(rule)
		}
	}

	return cal.SerializeTo(w)
}

func summary(r models.Reservation) string {
	switch d := r.Detail.(type) {
	case models.SportDetail:
		return fmt.Sprintf("Sport: %s", d.Practice)
	case models.ClassroomDetail:
		return fmt.Sprintf("Classroom: %s (%s)", d.Subject, d.Course)
	case models.EventDetail:
		return fmt.Sprintf("Event: %s", d.Name)
	default:
		return "Reservation"
	}
}

func weeklyRule(start time.Time) (string, error) {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekday(start.Weekday())},
	})
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

func rruleWeekday(d time.Weekday) rrule.Weekday {
	switch d {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}
