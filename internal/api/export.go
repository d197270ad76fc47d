package api

import (
	"bytes"
	"net/http"
	"time"

	"reserva/internal/export"
	"reserva/internal/metrics"
	"reserva/internal/view"
)

// handleWeekExport streams the weekly occupancy report as xlsx.
// GET /api/v1/export/week.xlsx?date=YYYY-MM-DD
func (s *Server) handleWeekExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_week")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if !s.sessions.Identity().Role.IsAdmin() {
		writeError(w, http.StatusForbidden, "admin role required")
		return
	}

	date, err := queryDate(r, "2006-01-02")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := s.controllerAt(date, view.ViewWeek)
	var buf bytes.Buffer
	if err := export.WeekReport(&buf, c.WeekDays(), c.SlotHours(), s.snapshots.Snapshot()); err != nil {
		s.logger.Error().Err(err).Msg("week export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	filename := "week-" + c.WeekStart().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(buf.Bytes())
}

// handleFeedExport streams the reservation feed as iCalendar.
// GET /api/v1/export/feed.ics
func (s *Server) handleFeedExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_feed")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var buf bytes.Buffer
	if err := export.Feed(&buf, s.snapshots.Snapshot()); err != nil {
		s.logger.Error().Err(err).Msg("feed export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Last-Modified", s.snapshots.FetchedAt().UTC().Format(time.RFC1123))
	_, _ = w.Write(buf.Bytes())
}
