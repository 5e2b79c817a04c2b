package telemetry

import "time"

// Status is the operational state reported for a vehicle. Anything the feed
// reports outside the known set is mapped to StatusUnknown at decode time.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusHeld    Status = "held"
	StatusUnknown Status = "unknown"
)

// ParseStatus maps a feed status string onto the known set.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusRunning, StatusStopped, StatusHeld:
		return Status(s)
	}
	return StatusUnknown
}

// EdgeRef identifies the directed track edge a vehicle currently occupies.
type EdgeRef struct {
	U string `json:"u"`
	V string `json:"v"`
}

// VehicleState is one vehicle's authoritative state within a snapshot.
// Progress is always within [0,1]; it only moves backward when a fresh
// authoritative snapshot reassigns it.
type VehicleState struct {
	ID          string  `json:"id"`
	Edge        EdgeRef `json:"edge"`
	HasEdge     bool    `json:"hasEdge"`
	Progress    float64 `json:"progress"`
	SpeedMPS    float64 `json:"speedMps"`
	EdgeLengthM float64 `json:"edgeLengthM"`
	Status      Status  `json:"status"`

	// Display metadata carried through from the feed; not part of the
	// motion model.
	DelayMin int `json:"delayMin"`
}

// Snapshot is the single authoritative telemetry state. It is replaced
// wholesale on every update and never patched in place; ReceivedAt carries
// Go's monotonic clock reading so extrapolation is immune to wall-clock skew.
type Snapshot struct {
	Vehicles   []VehicleState
	ReceivedAt time.Time
}

// RenderedVehicle is a vehicle placed on the map: the output of resolving an
// extrapolated state against the geometry cache.
type RenderedVehicle struct {
	ID       string  `json:"id"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Progress float64 `json:"progress"`
	SpeedMPS float64 `json:"speedMps"`
	Status   Status  `json:"status"`
	DelayMin int     `json:"delayMin"`
}
