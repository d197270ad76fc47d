package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reserva/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoadEmpty(t *testing.T) {
	db := openTestDB(t)

	reservations, fetchedAt, err := db.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, reservations)
	assert.True(t, fetchedAt.IsZero())
}

func TestSaveAndLoad(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	in := []models.Reservation{
		{
			ID:            "r1",
			Occurrence:    models.OccurrenceWeekly,
			DateTimeStart: "2024-03-11T09:00",
			DateTimeEnd:   "2024-03-11T10:00",
			Status:        models.StatusConfirmed,
			Requester:     models.Requester{UserID: "u1", Role: models.RoleUser},
			Detail:        models.SportDetail{Practice: "volleyball", Participants: 12},
		},
	}
	fetchedAt := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)

	require.NoError(t, db.Save(ctx, in, fetchedAt))

	out, gotAt, err := db.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "r1", out[0].ID)
	assert.Equal(t, models.TypeSport, out[0].Type())
	assert.True(t, gotAt.Equal(fetchedAt))
}

func TestSaveOverwrites(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Save(ctx, []models.Reservation{{ID: "old"}}, time.Now()))
	require.NoError(t, db.Save(ctx, []models.Reservation{{ID: "new-1"}, {ID: "new-2"}}, time.Now()))

	out, _, err := db.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "new-1", out[0].ID)
}
