// Package policy decides what a cell click does for a given role. It
// returns Action values; executing them (navigation, modals) is the UI
// shell's job.
package policy

import (
	"reserva/internal/models"
)

// ActionKind enumerates the possible outcomes of a cell click.
type ActionKind string

const (
	// ActionNone means the click has no top-level effect.
	ActionNone ActionKind = "NONE"
	// ActionNavigate sends the user to a route (the request form).
	ActionNavigate ActionKind = "NAVIGATE"
	// ActionOpenTypeSelector opens the reservation-type chooser modal.
	ActionOpenTypeSelector ActionKind = "OPEN_TYPE_SELECTOR"
)

// RequestRoute is where ordinary users land to file a reservation request.
const RequestRoute = "/reservations/request"

// Action is the decision for a cell click.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Route string     `json:"route,omitempty"`
}

// OnCellClick decides the top-level action for clicking a cell.
// Populated cells yield no action: their occupant entries are clicked
// individually. On an empty cell an ordinary user is sent to the
// request form and admins get the type selector. Unrecognized roles
// yield no action rather than an error.
func OnCellClick(occupants []models.Reservation, role models.Role) Action {
	if len(occupants) > 0 {
		return Action{Kind: ActionNone}
	}
	switch {
	case role == models.RoleUser:
		return Action{Kind: ActionNavigate, Route: RequestRoute}
	case role.IsAdmin():
		return Action{Kind: ActionOpenTypeSelector}
	default:
		return Action{Kind: ActionNone}
	}
}

// CanOpenDetail reports whether the identity may open a reservation's
// detail view: admins always, ordinary users only for their own
// reservations.
func CanOpenDetail(r models.Reservation, userID string, role models.Role) bool {
	if role.IsAdmin() {
		return true
	}
	if role == models.RoleUser {
		return r.OwnedBy(userID)
	}
	return false
}
