package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/alerts"
)

// AlertsResponse is the JSON response structure for GET /api/alerts. Alerts
// are ordered by severity, then by distance.
type AlertsResponse struct {
	Alerts         []alerts.Alert `json:"alerts"`
	Count          int            `json:"count"`
	RecentCritical *ToastPayload  `json:"recentCritical,omitempty"`
}

// ToastPayload describes the transient most-recent-critical notice.
type ToastPayload struct {
	Alert alerts.Alert `json:"alert"`
	At    time.Time    `json:"at"`
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	listed := s.board.Alerts()
	if listed == nil {
		listed = []alerts.Alert{}
	}

	resp := AlertsResponse{Alerts: listed, Count: len(listed)}
	if notice, ok := s.board.RecentCritical(); ok {
		resp.RecentCritical = &ToastPayload{Alert: notice.Alert, At: notice.At}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDismissAlert removes the pair from the board for the rest of the
// session, even if later batches mention it again.
func (s *Server) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	pairKey := chi.URLParam(r, "pairKey")
	if pairKey == "" {
		writeError(w, http.StatusBadRequest, "Missing pair key", nil)
		return
	}
	s.board.Dismiss(pairKey)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDismissToast(w http.ResponseWriter, r *http.Request) {
	s.board.DismissToast()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
