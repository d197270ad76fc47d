package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"reserva/internal/calendar"
	"reserva/internal/events"
	"reserva/internal/metrics"
	"reserva/internal/models"
)

// Source supplies confirmed reservations from upstream.
type Source interface {
	GetConfirmedReservations(ctx context.Context) ([]models.Reservation, error)
}

// SnapshotStore persists the last good snapshot across restarts.
type SnapshotStore interface {
	Load(ctx context.Context) ([]models.Reservation, time.Time, error)
	Save(ctx context.Context, reservations []models.Reservation, fetchedAt time.Time) error
}

// Syncer holds the reservation snapshot the calendar reads. Every
// refresh is tagged with a generation number and only the highest
// generation commits, so a slow stale response can never overwrite a
// fresher one. On fetch failure the last good snapshot stays in place
// and a fetch_failed event is published for the UI toast.
type Syncer struct {
	source Source
	store  SnapshotStore
	bus    *events.Bus
	logger zerolog.Logger

	mu           sync.Mutex
	nextGen      uint64
	committedGen uint64
	snapshot     []models.Reservation
	fetchedAt    time.Time
}

// NewSyncer constructs a syncer. store and bus may be nil.
func NewSyncer(source Source, store SnapshotStore, bus *events.Bus, logger zerolog.Logger) *Syncer {
	return &Syncer{
		source: source,
		store:  store,
		bus:    bus,
		logger: logger.With().Str("component", "syncer").Logger(),
	}
}

// Bootstrap seeds the snapshot from the persistent store so the grid
// shows stale-but-usable data before the first fetch completes.
func (s *Syncer) Bootstrap(ctx context.Context) {
	if s.store == nil {
		return
	}
	reservations, fetchedAt, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("snapshot bootstrap failed")
		return
	}
	if len(reservations) == 0 {
		return
	}

	s.mu.Lock()
	if s.committedGen == 0 {
		s.snapshot = reservations
		s.fetchedAt = fetchedAt
	}
	s.mu.Unlock()
	s.logger.Info().Int("count", len(reservations)).Time("fetched_at", fetchedAt).Msg("snapshot restored from store")
}

// Refresh fetches a new snapshot and commits it if no newer refresh
// already landed. Safe for concurrent use.
func (s *Syncer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.nextGen++
	gen := s.nextGen
	s.mu.Unlock()

	reservations, err := s.source.GetConfirmedReservations(ctx)
	if err != nil {
		metrics.IncFetch("error")
		s.logger.Error().Err(err).Msg("reservation fetch failed")
		if s.bus != nil {
			s.bus.Publish(events.Event{Type: events.TypeFetchFailed, Message: err.Error()})
		}
		return err
	}

	now := time.Now()

	s.mu.Lock()
	if gen <= s.committedGen {
		s.mu.Unlock()
		metrics.IncStaleFetchDiscarded()
		s.logger.Debug().Uint64("generation", gen).Msg("stale fetch result discarded")
		return nil
	}
	s.committedGen = gen
	s.snapshot = reservations
	s.fetchedAt = now
	s.mu.Unlock()

	metrics.IncFetch("ok")
	metrics.AddDroppedIntervals(calendar.CountDropped(reservations))

	if s.store != nil {
		if err := s.store.Save(ctx, reservations, now); err != nil {
			s.logger.Warn().Err(err).Msg("snapshot persist failed")
		}
	}
	if s.bus != nil {
		s.bus.Publish(events.Event{Type: events.TypeSnapshotUpdated})
	}
	s.logger.Info().Int("count", len(reservations)).Msg("snapshot refreshed")
	return nil
}

// Snapshot returns a copy of the current reservation list. The copy
// keeps the resolver's inputs immutable from its point of view.
func (s *Syncer) Snapshot() []models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Reservation, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// FetchedAt returns when the current snapshot was obtained.
func (s *Syncer) FetchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchedAt
}
