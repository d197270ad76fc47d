// Package store persists the last successfully fetched reservation
// snapshot so a restart can serve stale data until the first refresh.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"reserva/internal/models"
)

// DB wraps sql.DB for the snapshot store.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and creates the schema.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Single-row table; id is fixed so saves overwrite in place.
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payload TEXT NOT NULL,
			fetched_at DATETIME NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// Save overwrites the persisted snapshot.
func (db *DB) Save(ctx context.Context, reservations []models.Reservation, fetchedAt time.Time) error {
	payload, err := json.Marshal(reservations)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO snapshots (id, payload, fetched_at, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at,
			updated_at = CURRENT_TIMESTAMP`,
		string(payload), fetchedAt)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the persisted snapshot, or an empty list when none was
// ever saved.
func (db *DB) Load(ctx context.Context) ([]models.Reservation, time.Time, error) {
	var payload string
	var fetchedAt time.Time
	err := db.QueryRowContext(ctx,
		"SELECT payload, fetched_at FROM snapshots WHERE id = 1").Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load snapshot: %w", err)
	}

	var reservations []models.Reservation
	if err := json.Unmarshal([]byte(payload), &reservations); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return reservations, fetchedAt, nil
}
