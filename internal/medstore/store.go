// Package medstore holds the per-user medication snapshot: the ordered
// collection a dashboard renders, refreshed from the backend and locally
// mutated when the elder takes a dose.
package medstore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/KrPrince19/CareNest/internal/model"
	"github.com/KrPrince19/CareNest/internal/schedule"
)

// LowStockThreshold is the stock count at or below which a medication shows up
// in the low-stock set.
const LowStockThreshold = 4

// API is the slice of the backend client the store needs.
type API interface {
	Medicines(ctx context.Context, email string) ([]model.Medication, error)
	TakeMedicine(ctx context.Context, id string) error
}

// Store caches the snapshot for one user. Load failures keep the last known
// snapshot; the dashboard degrades to stale-but-consistent data rather than
// blanking out.
type Store struct {
	api    API
	email  string
	clock  schedule.Clock
	logger *slog.Logger

	mu   sync.RWMutex
	meds []model.Medication
}

func New(api API, email string, clock schedule.Clock, logger *slog.Logger) *Store {
	return &Store{api: api, email: email, clock: clock, logger: logger}
}

// Load fetches the snapshot, derives every record's status, and sorts the
// collection ascending by scheduled minute-of-day. On failure the previous
// snapshot is retained and the error is returned for the caller to log or
// ignore.
func (s *Store) Load(ctx context.Context) error {
	meds, err := s.api.Medicines(ctx, s.email)
	if err != nil {
		s.logger.Error("snapshot refresh failed, keeping previous snapshot", "email", s.email, "error", err)
		return err
	}

	now := s.clock.Now()
	for i := range meds {
		meds[i].Derived = schedule.Resolve(meds[i], now)
	}
	schedule.SortByClock(meds)

	s.mu.Lock()
	s.meds = meds
	s.mu.Unlock()
	return nil
}

// Take optimistically marks the record taken, decrements stock with a floor of
// zero, and confirms the mutation with the backend in the background. The
// local mutation is not rolled back on remote failure; the next full reload
// reconciles.
func (s *Store) Take(ctx context.Context, id string) {
	s.mu.Lock()
	found := false
	for i := range s.meds {
		if s.meds[i].ID != id {
			continue
		}
		found = true
		if s.meds[i].Status == model.DoseTaken {
			break // idempotent: a second take changes nothing
		}
		s.meds[i].Status = model.DoseTaken
		s.meds[i].Derived = model.StatusTaken
		if s.meds[i].Stock > 0 {
			s.meds[i].Stock--
		}
	}
	s.mu.Unlock()

	if !found {
		s.logger.Warn("take requested for unknown medication", "id", id)
		return
	}

	confirmCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.api.TakeMedicine(confirmCtx, id); err != nil {
			s.logger.Error("remote take confirmation failed", "id", id, "error", err)
		}
	}()
}

// RefreshStatuses re-derives every record's status from the clock without
// touching the network, so upcoming doses flip to missed as time passes.
func (s *Store) RefreshStatuses() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.meds {
		s.meds[i].Derived = schedule.Resolve(s.meds[i], now)
	}
}

// Snapshot returns a copy of the current ordered collection.
func (s *Store) Snapshot() []model.Medication {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Medication, len(s.meds))
	copy(out, s.meds)
	return out
}

// Summary is the aggregate view the dashboards render.
type Summary struct {
	Total     int
	Taken     int
	Missed    int
	Adherence int // rounded percentage, 0 when no records
	Next      *model.Medication
	LowStock  []model.Medication
}

// Summarize computes the aggregate view from the current snapshot.
func (s *Store) Summarize() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{Total: len(s.meds)}
	for i := range s.meds {
		med := s.meds[i]
		switch med.Derived {
		case model.StatusTaken:
			sum.Taken++
		case model.StatusMissed:
			sum.Missed++
		case model.StatusUpcoming:
			if sum.Next == nil {
				next := med
				sum.Next = &next
			}
		}
		if med.Stock <= LowStockThreshold {
			sum.LowStock = append(sum.LowStock, med)
		}
	}
	if sum.Total > 0 {
		sum.Adherence = int(float64(sum.Taken)/float64(sum.Total)*100 + 0.5)
	}
	return sum
}

