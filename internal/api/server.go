// Package api exposes the calendar grid and interaction policy over
// HTTP for front ends that do not embed the Go packages directly.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"reserva/internal/calendar"
	"reserva/internal/metrics"
	"reserva/internal/models"
	"reserva/internal/policy"
	"reserva/internal/session"
	"reserva/internal/view"
)

// SnapshotProvider supplies the current reservation snapshot.
type SnapshotProvider interface {
	Snapshot() []models.Reservation
	FetchedAt() time.Time
}

// Server handles calendar API requests.
type Server struct {
	snapshots SnapshotProvider
	sessions  session.Store
	firstHour int
	slotCount int
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewServer constructs the API server.
func NewServer(snapshots SnapshotProvider, sessions session.Store, firstHour, slotCount int, logger zerolog.Logger) *Server {
	return &Server{
		snapshots: snapshots,
		sessions:  sessions,
		firstHour: firstHour,
		slotCount: slotCount,
		validate:  validator.New(),
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/grid/week", s.handleWeekGrid)
	mux.HandleFunc("/api/v1/grid/month", s.handleMonthGrid)
	mux.HandleFunc("/api/v1/cell-action", s.handleCellAction)
	mux.HandleFunc("/api/v1/export/week.xlsx", s.handleWeekExport)
	mux.HandleFunc("/api/v1/export/feed.ics", s.handleFeedExport)
	return mux
}

// controllerAt builds a scratch controller anchored on the requested
// date; the long-lived navigation state lives in the UI shell, the API
// serves stateless grid queries.
func (s *Server) controllerAt(date time.Time, mode view.ViewMode) *view.Controller {
	c := view.NewController(s.firstHour, s.slotCount)
	c.GoTo(date)
	c.SwitchView(mode)
	return c
}

// CellResponse is one grid cell with its occupants.
type CellResponse struct {
	Day       string               `json:"day"`
	SlotStart string               `json:"slot_start"`
	SlotEnd   string               `json:"slot_end"`
	Occupants []models.Reservation `json:"occupants"`
}

// WeekGridResponse is the full week grid.
type WeekGridResponse struct {
	WeekStart string           `json:"week_start"`
	Days      []string         `json:"days"`
	Rows      [][]CellResponse `json:"rows"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// handleWeekGrid returns the Monday-Saturday week grid with occupants.
// GET /api/v1/grid/week?date=YYYY-MM-DD
func (s *Server) handleWeekGrid(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("grid_week")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date, err := queryDate(r, "2006-01-02")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := s.controllerAt(date, view.ViewWeek)
	reservations := s.snapshots.Snapshot()
	metrics.IncOccupancyQuery()

	days := c.WeekDays()
	resp := WeekGridResponse{
		WeekStart: c.WeekStart().Format("2006-01-02"),
		FetchedAt: s.snapshots.FetchedAt(),
	}
	for _, d := range days {
		resp.Days = append(resp.Days, d.Format("2006-01-02"))
	}
	for _, row := range c.WeekCells() {
		cells := make([]CellResponse, len(row))
		for i, cell := range row {
			cells[i] = CellResponse{
				Day:       cell.DayDate.Format("2006-01-02"),
				SlotStart: cell.SlotStart.Format("15:04"),
				SlotEnd:   cell.SlotEnd.Format("15:04"),
				Occupants: calendar.Occupants(cell, reservations),
			}
		}
		resp.Rows = append(resp.Rows, cells)
	}

	writeJSON(w, http.StatusOK, resp)
}

// MonthDayResponse is one month-view day with its occupants.
type MonthDayResponse struct {
	Date      string               `json:"date"`
	Occupants []models.Reservation `json:"occupants"`
}

// MonthGridResponse is the month view payload.
type MonthGridResponse struct {
	Month     string             `json:"month"`
	Days      []MonthDayResponse `json:"days"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// handleMonthGrid returns per-day occupants for a month, Sundays
// included. GET /api/v1/grid/month?date=YYYY-MM
func (s *Server) handleMonthGrid(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("grid_month")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date, err := queryDate(r, "2006-01")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := s.controllerAt(date, view.ViewMonth)
	reservations := s.snapshots.Snapshot()
	metrics.IncOccupancyQuery()

	resp := MonthGridResponse{
		Month:     date.Format("2006-01"),
		FetchedAt: s.snapshots.FetchedAt(),
	}
	for _, day := range c.MonthDays() {
		resp.Days = append(resp.Days, MonthDayResponse{
			Date:      day.Format("2006-01-02"),
			Occupants: calendar.DayOccupants(day, reservations),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// CellActionRequest asks for the interaction decision on one cell.
type CellActionRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Hour int    `json:"hour" validate:"gte=0,lte=23"`
}

// CellActionResponse carries the policy decision and the occupants the
// caller may render as individually clickable entries.
type CellActionResponse struct {
	Action    policy.Action        `json:"action"`
	Occupants []models.Reservation `json:"occupants"`
}

// handleCellAction decides what a click on a cell does for the current
// session's role. POST /api/v1/cell-action
func (s *Server) handleCellAction(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cell_action")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CellActionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	cell := calendar.NewCell(day, req.Hour)
	occupants := calendar.Occupants(cell, s.snapshots.Snapshot())
	role := s.sessions.Identity().Role

	writeJSON(w, http.StatusOK, CellActionResponse{
		Action:    policy.OnCellClick(occupants, role),
		Occupants: occupants,
	})
}

func queryDate(r *http.Request, layout string) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), nil
	}
	date, err := time.Parse(layout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format; expected %s", layout)
	}
	return date, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
