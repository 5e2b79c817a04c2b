package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/network"
)

// Extrapolator derives a per-frame display view from the stored snapshot by
// dead reckoning: each vehicle's progress is advanced by its last known speed
// over the time elapsed since the snapshot arrived. The snapshot itself is
// never mutated; every call produces a fresh transient view, so authoritative
// updates at ~1 Hz still render as continuous motion at the caller's frame
// rate.
type Extrapolator struct {
	store  *Store
	cache  *network.GeometryCache
	paused atomic.Bool
}

// NewExtrapolator wires the extrapolator to its snapshot source and geometry.
func NewExtrapolator(store *Store, cache *network.GeometryCache) *Extrapolator {
	return &Extrapolator{store: store, cache: cache}
}

// SetPlaying toggles playback. While paused the display state is exactly the
// stored snapshot.
func (e *Extrapolator) SetPlaying(playing bool) {
	e.paused.Store(!playing)
}

// Playing reports the current playback state.
func (e *Extrapolator) Playing() bool {
	return !e.paused.Load()
}

// DisplayVehicles returns the extrapolated vehicle states for the given
// instant. Progress never decreases between calls absent a new authoritative
// snapshot, and holds at 1 once an edge is fully traversed.
func (e *Extrapolator) DisplayVehicles(now time.Time) []VehicleState {
	snap := e.store.Current()
	if snap == nil {
		return nil
	}
	if !e.Playing() {
		return snap.Vehicles
	}

	elapsed := now.Sub(snap.ReceivedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	out := make([]VehicleState, len(snap.Vehicles))
	for i, v := range snap.Vehicles {
		out[i] = v
		if v.EdgeLengthM <= 0 {
			continue
		}
		p := v.Progress + v.SpeedMPS*elapsed/v.EdgeLengthM
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		out[i].Progress = p
	}
	return out
}

// RenderSet resolves the display state to map coordinates. Vehicles whose
// position cannot be resolved are omitted from the frame, not errors.
func (e *Extrapolator) RenderSet(now time.Time) []RenderedVehicle {
	vehicles := e.DisplayVehicles(now)
	out := make([]RenderedVehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if !v.HasEdge {
			continue
		}
		p, ok := e.cache.Resolve(v.Edge.U, v.Edge.V, v.Progress)
		if !ok {
			continue
		}
		out = append(out, RenderedVehicle{
			ID:       v.ID,
			Lat:      p[1],
			Lon:      p[0],
			Progress: v.Progress,
			SpeedMPS: v.SpeedMPS,
			Status:   v.Status,
			DelayMin: v.DelayMin,
		})
	}
	return out
}
