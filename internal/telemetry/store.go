package telemetry

import (
	"sync/atomic"
	"time"
)

// Store holds exactly one authoritative snapshot. Replacement is a single
// pointer swap: readers always observe a fully formed (vehicles, receivedAt)
// pair, never a partial merge. Last write wins; there is no backpressure.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns an empty store. Current returns nil until the first
// Replace.
func NewStore() *Store {
	return &Store{}
}

// Replace installs a new authoritative snapshot stamped with the monotonic
// receive time.
func (s *Store) Replace(vehicles []VehicleState) *Snapshot {
	snap := &Snapshot{Vehicles: vehicles, ReceivedAt: time.Now()}
	s.current.Store(snap)
	return snap
}

// Current returns the latest snapshot, or nil before the first update.
// Callers must not mutate the returned snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}
