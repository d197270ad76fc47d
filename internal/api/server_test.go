package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reserva/internal/models"
	"reserva/internal/policy"
	"reserva/internal/session"
)

type fakeSnapshots struct {
	reservations []models.Reservation
	fetchedAt    time.Time
}

func (f *fakeSnapshots) Snapshot() []models.Reservation { return f.reservations }
func (f *fakeSnapshots) FetchedAt() time.Time           { return f.fetchedAt }

func sessionWithRole(t *testing.T, role string) session.Store {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "u1",
		"role": role,
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	s := session.NewMemoryStore()
	require.NoError(t, s.SetToken(token))
	return s
}

func testServer(t *testing.T, reservations []models.Reservation, role string) *Server {
	t.Helper()
	snaps := &fakeSnapshots{
		reservations: reservations,
		fetchedAt:    time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC),
	}
	return NewServer(snaps, sessionWithRole(t, role), 7, 16, zerolog.New(io.Discard))
}

func mondayReservation() models.Reservation {
	return models.Reservation{
		ID:            "res-1",
		Occurrence:    models.OccurrenceSingle,
		DateTimeStart: "2024-03-11T09:00",
		DateTimeEnd:   "2024-03-11T10:00",
		Status:        models.StatusConfirmed,
		Requester:     models.Requester{UserID: "u1", Role: models.RoleUser},
		Detail:        models.SportDetail{Practice: "futsal"},
	}
}

func TestWeekGrid(t *testing.T) {
	srv := testServer(t, []models.Reservation{mondayReservation()}, "user")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/grid/week?date=2024-03-13", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp WeekGridResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "2024-03-11", resp.WeekStart)
	require.Len(t, resp.Days, 6)
	assert.Equal(t, "2024-03-16", resp.Days[5], "last column is Saturday")
	require.Len(t, resp.Rows, 16)

	// 09:00 row is index 2 with the grid starting at 07:00.
	nineOClock := resp.Rows[2]
	require.Len(t, nineOClock, 6)
	assert.Equal(t, "09:00", nineOClock[0].SlotStart)
	require.Len(t, nineOClock[0].Occupants, 1)
	assert.Equal(t, "res-1", nineOClock[0].Occupants[0].ID)

	// The surrounding slots stay empty.
	assert.Empty(t, resp.Rows[1][0].Occupants)
	assert.Empty(t, resp.Rows[3][0].Occupants)
}

func TestWeekGridBadRequest(t *testing.T) {
	srv := testServer(t, nil, "user")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/grid/week?date=13-03-2024", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/grid/week", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMonthGridShowsSunday(t *testing.T) {
	sunday := models.Reservation{
		ID:            "sun-1",
		Occurrence:    models.OccurrenceSingle,
		DateTimeStart: "2024-03-17T09:00",
		DateTimeEnd:   "2024-03-17T10:00",
	}
	srv := testServer(t, []models.Reservation{sunday}, "user")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/grid/month?date=2024-03", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp MonthGridResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2024-03", resp.Month)
	require.Len(t, resp.Days, 31)

	// Sunday the 17th: hidden from the week grid, present here.
	day := resp.Days[16]
	assert.Equal(t, "2024-03-17", day.Date)
	require.Len(t, day.Occupants, 1)
	assert.Equal(t, "sun-1", day.Occupants[0].ID)
}

func TestCellActionUserOnEmptyCell(t *testing.T) {
	srv := testServer(t, nil, "user")

	body := `{"date": "2024-03-11", "hour": 9}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cell-action", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CellActionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, policy.ActionNavigate, resp.Action.Kind)
	assert.Equal(t, policy.RequestRoute, resp.Action.Route)
	assert.Empty(t, resp.Occupants)
}

func TestCellActionAdminOnEmptyCell(t *testing.T) {
	srv := testServer(t, nil, "sistema_admin")

	body := `{"date": "2024-03-11", "hour": 9}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cell-action", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CellActionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, policy.ActionOpenTypeSelector, resp.Action.Kind)
}

func TestCellActionOccupiedCell(t *testing.T) {
	srv := testServer(t, []models.Reservation{mondayReservation()}, "user")

	body := `{"date": "2024-03-11", "hour": 9}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cell-action", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CellActionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, policy.ActionNone, resp.Action.Kind)
	require.Len(t, resp.Occupants, 1)
	assert.Equal(t, "res-1", resp.Occupants[0].ID)
}

func TestCellActionValidation(t *testing.T) {
	srv := testServer(t, nil, "user")

	tests := []struct {
		name string
		body string
	}{
		{"missing date", `{"hour": 9}`},
		{"bad date format", `{"date": "11/03/2024", "hour": 9}`},
		{"hour out of range", `{"date": "2024-03-11", "hour": 25}`},
		{"unknown field", `{"date": "2024-03-11", "hour": 9, "extra": true}`},
		{"not json", `date=2024-03-11`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/cell-action", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestWeekExportRequiresAdmin(t *testing.T) {
	srv := testServer(t, []models.Reservation{mondayReservation()}, "user")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/week.xlsx?date=2024-03-11", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWeekExportForAdmin(t *testing.T) {
	srv := testServer(t, []models.Reservation{mondayReservation()}, "pe_admin")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/week.xlsx?date=2024-03-11", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rec.Body.Len())
}

func TestFeedExport(t *testing.T) {
	weekly := mondayReservation()
	weekly.Occurrence = models.OccurrenceWeekly
	srv := testServer(t, []models.Reservation{weekly}, "user")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/feed.ics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "RRULE:FREQ=WEEKLY")
	assert.Contains(t, body, "BYDAY=MO")
}
