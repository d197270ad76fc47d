package models

import (
	"encoding/json"
	"strings"
)

// Occurrence is the recurrence mode of a reservation.
type Occurrence string

const (
	// OccurrenceWeekly repeats every week on the weekday of the start instant.
	OccurrenceWeekly Occurrence = "WEEKLY"
	// OccurrenceSingle applies only on its exact calendar date.
	OccurrenceSingle Occurrence = "SINGLE"
)

// Status is the approval state of a reservation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRefused   Status = "REFUSED"
	StatusUnknown   Status = "UNKNOWN"
)

// ParseStatus maps free-text status values to a Status, case-insensitively.
// The backend historically emitted a few synonyms for confirmed.
func ParseStatus(s string) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING", "PENDENTE":
		return StatusPending
	case "CONFIRMED", "ACCEPTED", "APPROVED", "CONFIRMADA":
		return StatusConfirmed
	case "REFUSED", "REJECTED", "DENIED", "RECUSADA":
		return StatusRefused
	default:
		return StatusUnknown
	}
}

// Role is the access level of a signed-in actor.
type Role string

const (
	RoleUser        Role = "USER"
	RolePEAdmin     Role = "PE_ADMIN"
	RoleSystemAdmin Role = "SISTEMA_ADMIN"
	RoleUnknown     Role = "UNKNOWN"
)

// ParseRole maps a free-text role to a Role, case-insensitively.
// Unrecognized values map to RoleUnknown rather than failing.
func ParseRole(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USER":
		return RoleUser
	case "PE_ADMIN":
		return RolePEAdmin
	case "SISTEMA_ADMIN":
		return RoleSystemAdmin
	default:
		return RoleUnknown
	}
}

// IsAdmin reports whether the role carries administrative rights.
func (r Role) IsAdmin() bool {
	return r == RolePEAdmin || r == RoleSystemAdmin
}

// ReservationType identifies which detail variant a reservation carries.
type ReservationType string

const (
	TypeSport     ReservationType = "SPORT"
	TypeClassroom ReservationType = "CLASSROOM"
	TypeEvent     ReservationType = "EVENT"
)

// ReservationDetail is the tagged union of type-specific reservation data.
// Exactly one variant is present per reservation.
type ReservationDetail interface {
	Type() ReservationType
}

// SportDetail carries sport-court reservation fields.
type SportDetail struct {
	Practice     string `json:"practice"`
	Participants int    `json:"participants"`
	Equipment    string `json:"equipment,omitempty"`
}

func (SportDetail) Type() ReservationType { return TypeSport }

// ClassroomDetail carries classroom reservation fields.
type ClassroomDetail struct {
	Course  string `json:"course"`
	Subject string `json:"subject"`
}

func (ClassroomDetail) Type() ReservationType { return TypeClassroom }

// EventDetail carries event reservation fields.
type EventDetail struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

func (EventDetail) Type() ReservationType { return TypeEvent }

// Requester identifies the creator of a reservation.
type Requester struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Role   Role   `json:"role"`
}

// Reservation is the read model supplied by the backend. The calendar
// core treats it as an immutable snapshot; start/end are kept as raw
// strings and normalized on demand because upstream content is not
// guaranteed to be well formed.
type Reservation struct {
	ID            string            `json:"id"`
	Occurrence    Occurrence        `json:"occurrence"`
	DateTimeStart string            `json:"date_time_start"`
	DateTimeEnd   string            `json:"date_time_end"`
	Status        Status            `json:"status"`
	Requester     Requester         `json:"requester"`
	Comments      string            `json:"comments,omitempty"`
	Detail        ReservationDetail `json:"-"`
}

// reservationJSON is the wire shape: the backend sends the detail as one
// of three optional sub-records instead of a discriminated field.
type reservationJSON struct {
	ID            string           `json:"id"`
	Occurrence    string           `json:"occurrence"`
	DateTimeStart string           `json:"date_time_start"`
	DateTimeEnd   string           `json:"date_time_end"`
	Status        string           `json:"status"`
	Requester     Requester        `json:"requester"`
	Comments      string           `json:"comments,omitempty"`
	Sport         *SportDetail     `json:"sport,omitempty"`
	Classroom     *ClassroomDetail `json:"classroom,omitempty"`
	Event         *EventDetail     `json:"event,omitempty"`
}

// UnmarshalJSON decodes the wire shape into the tagged-union model.
// When more than one sub-record is present, sport wins over classroom
// over event, matching the probe order the old frontend used.
func (r *Reservation) UnmarshalJSON(data []byte) error {
	var raw reservationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.ID = raw.ID
	r.DateTimeStart = raw.DateTimeStart
	r.DateTimeEnd = raw.DateTimeEnd
	r.Status = ParseStatus(raw.Status)
	r.Requester = raw.Requester
	r.Comments = raw.Comments

	switch strings.ToUpper(strings.TrimSpace(raw.Occurrence)) {
	case "WEEKLY":
		r.Occurrence = OccurrenceWeekly
	default:
		r.Occurrence = OccurrenceSingle
	}

	switch {
	case raw.Sport != nil:
		r.Detail = *raw.Sport
	case raw.Classroom != nil:
		r.Detail = *raw.Classroom
	case raw.Event != nil:
		r.Detail = *raw.Event
	default:
		r.Detail = nil
	}
	return nil
}

// MarshalJSON emits the wire shape with a single populated sub-record.
func (r Reservation) MarshalJSON() ([]byte, error) {
	raw := reservationJSON{
		ID:            r.ID,
		Occurrence:    string(r.Occurrence),
		DateTimeStart: r.DateTimeStart,
		DateTimeEnd:   r.DateTimeEnd,
		Status:        string(r.Status),
		Requester:     r.Requester,
		Comments:      r.Comments,
	}
	switch d := r.Detail.(type) {
	case SportDetail:
		raw.Sport = &d
	case ClassroomDetail:
		raw.Classroom = &d
	case EventDetail:
		raw.Event = &d
	}
	return json.Marshal(raw)
}

// Type returns the detail variant, or empty string when no detail is set.
func (r Reservation) Type() ReservationType {
	if r.Detail == nil {
		return ""
	}
	return r.Detail.Type()
}

// OwnedBy reports whether the reservation was requested by the given user.
func (r Reservation) OwnedBy(userID string) bool {
	return userID != "" && r.Requester.UserID == userID
}
