package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/bus"
)

// PlaybackRequest is the JSON request body for POST /api/playback.
type PlaybackRequest struct {
	Playing bool `json:"playing"`
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	var req PlaybackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	s.renderer.SetPlaying(req.Playing)
	s.bus.PublishPlayback(bus.Playback{Playing: req.Playing})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true, "playing": req.Playing})
}

// HighlightRequest is the JSON request body for POST /api/highlight.
type HighlightRequest struct {
	NodeIDs []string `json:"nodeIds"`
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req HighlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	s.bus.PublishHighlight(bus.HighlightRoute{NodeIDs: req.NodeIDs})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// LocateResponse is the JSON response structure for POST /api/locate/{id}.
type LocateResponse struct {
	TrainID string  `json:"trainId"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// handleLocate asks the backend where one train is right now and announces
// the lookup on the event bus so the map can fly to it.
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	trainID := chi.URLParam(r, "id")
	if trainID == "" {
		writeError(w, http.StatusBadRequest, "Missing train id", nil)
		return
	}

	lat, lon, err := s.control.FetchTrainPosition(r.Context(), trainID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to locate train", err)
		return
	}

	s.bus.PublishLocate(bus.LocateVehicle{VehicleID: trainID})
	writeJSON(w, http.StatusOK, LocateResponse{TrainID: trainID, Lat: lat, Lon: lon})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.control.Reset(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "Reset failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleReseed(w http.ResponseWriter, r *http.Request) {
	if err := s.control.Reseed(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "Reseed failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DelayRequest is the JSON request body for POST /api/control/delay.
type DelayRequest struct {
	TrainID  string `json:"trainId"`
	DelayMin int    `json:"delayMin"`
}

func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	var req DelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.TrainID == "" {
		writeError(w, http.StatusBadRequest, "Missing train id", nil)
		return
	}
	if err := s.control.InjectDelay(r.Context(), req.TrainID, req.DelayMin); err != nil {
		writeError(w, http.StatusBadGateway, "Delay injection failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// SimulateRequest is the JSON request body for POST /api/control/simulate.
type SimulateRequest struct {
	TrainNo string `json:"trainNo"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.TrainNo == "" {
		writeError(w, http.StatusBadRequest, "Missing train number", nil)
		return
	}
	if err := s.control.SimulateByTrainNo(r.Context(), req.TrainNo); err != nil {
		writeError(w, http.StatusBadGateway, "Simulation restart failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Missing query parameter q", nil)
		return
	}

	trains, err := s.control.SearchTrains(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trains": trains,
		"count":  len(trains),
	})
}
