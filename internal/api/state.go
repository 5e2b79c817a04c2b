package api

import (
	"net/http"
	"time"

	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/telemetry"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/transport"
)

// StateResponse is the JSON response structure for GET /api/state.
type StateResponse struct {
	Vehicles []telemetry.RenderedVehicle `json:"vehicles"`
	Count    int                         `json:"count"`
	Playing  bool                        `json:"playing"`
	Mode     transport.Mode              `json:"mode"`
	AsOf     time.Time                   `json:"asOf"`
}

// ModeResponse is the JSON response structure for GET /api/mode.
type ModeResponse struct {
	Mode      transport.Mode `json:"mode"`
	LastError string         `json:"lastError,omitempty"`
}

// OverlayResponse is the JSON response structure for GET /api/overlay.
type OverlayResponse struct {
	Positions []transport.OverlayPosition `json:"positions"`
	Routes    []transport.OverlayRoute    `json:"routes"`
	FetchedAt time.Time                   `json:"fetchedAt"`
}

// handleState returns the current render set, extrapolated to the moment of
// the request.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	vehicles := s.renderer.RenderSet(now)
	if vehicles == nil {
		vehicles = []telemetry.RenderedVehicle{}
	}
	writeJSON(w, http.StatusOK, StateResponse{
		Vehicles: vehicles,
		Count:    len(vehicles),
		Playing:  s.renderer.Playing(),
		Mode:     s.session.Mode(),
		AsOf:     now,
	})
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ModeResponse{
		Mode:      s.session.Mode(),
		LastError: s.session.LastError(),
	})
}

// handleOverlay serves the latest fast-feed frame. 204 until the first frame
// arrives.
func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	frame := s.session.Overlay()
	if frame == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	positions := frame.Positions
	if positions == nil {
		positions = []transport.OverlayPosition{}
	}
	routes := frame.Routes
	if routes == nil {
		routes = []transport.OverlayRoute{}
	}
	writeJSON(w, http.StatusOK, OverlayResponse{
		Positions: positions,
		Routes:    routes,
		FetchedAt: frame.FetchedAt,
	})
}

// HistoryResponse is the JSON response structure for GET /api/history.
type HistoryResponse struct {
	Snapshots []SnapshotSummary `json:"snapshots"`
	Count     int               `json:"count"`
}

// SnapshotSummary is one persisted snapshot in the history listing.
type SnapshotSummary struct {
	SnapshotID   string    `json:"snapshotId"`
	ReceivedAt   time.Time `json:"receivedAt"`
	VehicleCount int       `json:"vehicleCount"`
}

// DelaysResponse is the JSON response structure for GET /api/delays.
type DelaysResponse struct {
	Trains  []telemetry.TrainDelayStat `json:"trains"`
	Overall telemetry.TrainDelayStat   `json:"overall"`
}

func (s *Server) handleDelays(w http.ResponseWriter, r *http.Request) {
	trains := s.delays.TrainStats()
	if trains == nil {
		trains = []telemetry.TrainDelayStat{}
	}
	writeJSON(w, http.StatusOK, DelaysResponse{
		Trains:  trains,
		Overall: s.delays.Overall(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "History recording is not configured", nil)
		return
	}

	records, err := s.history.RecentSnapshots(r.Context(), s.historyLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve history", err)
		return
	}

	summaries := make([]SnapshotSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, SnapshotSummary{
			SnapshotID:   rec.SnapshotID,
			ReceivedAt:   rec.ReceivedAt,
			VehicleCount: rec.VehicleCount,
		})
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Snapshots: summaries, Count: len(summaries)})
}
