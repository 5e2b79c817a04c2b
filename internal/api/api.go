// Package api exposes the synchronized map state over HTTP for the frontend.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/alerts"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/bus"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/history"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/telemetry"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/transport"
)

// VehicleRenderer supplies the render set and playback state.
type VehicleRenderer interface {
	RenderSet(now time.Time) []telemetry.RenderedVehicle
	Playing() bool
	SetPlaying(playing bool)
}

// FeedSession reports the backend connection health and the fast-feed frame.
type FeedSession interface {
	Mode() transport.Mode
	LastError() string
	Overlay() *transport.OverlayFrame
}

// AlertBoard is the reconciled alert state.
type AlertBoard interface {
	Alerts() []alerts.Alert
	Dismiss(pairKey string)
	DismissToast()
	RecentCritical() (alerts.CriticalNotice, bool)
}

// UpstreamControl forwards operator actions to the backend.
type UpstreamControl interface {
	Reset(ctx context.Context) error
	Reseed(ctx context.Context) error
	InjectDelay(ctx context.Context, trainID string, delayMin int) error
	SimulateByTrainNo(ctx context.Context, trainNo string) error
	SearchTrains(ctx context.Context, query string) ([]transport.TrainSummary, error)
	FetchTrainPosition(ctx context.Context, trainID string) (lat, lon float64, err error)
}

// HistoryStore reads back persisted snapshots.
type HistoryStore interface {
	RecentSnapshots(ctx context.Context, limit int) ([]history.SnapshotRecord, error)
}

// DelaySource reports accumulated delay statistics.
type DelaySource interface {
	TrainStats() []telemetry.TrainDelayStat
	Overall() telemetry.TrainDelayStat
}

// Server bundles the handler dependencies. history may be nil when no
// recorder is configured.
type Server struct {
	renderer     VehicleRenderer
	session      FeedSession
	board        AlertBoard
	control      UpstreamControl
	history      HistoryStore
	delays       DelaySource
	bus          *bus.Bus
	historyLimit int
}

// NewServer wires a Server over the given components.
func NewServer(renderer VehicleRenderer, session FeedSession, board AlertBoard, control UpstreamControl, hist HistoryStore, delays DelaySource, eventBus *bus.Bus, historyLimit int) *Server {
	return &Server{
		renderer:     renderer,
		session:      session,
		board:        board,
		control:      control,
		history:      hist,
		delays:       delays,
		bus:          eventBus,
		historyLimit: historyLimit,
	}
}

// Router builds the chi router with CORS for the frontend origin.
func (s *Server) Router(frontendOrigin string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{frontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/mode", s.handleMode)
		r.Get("/overlay", s.handleOverlay)

		r.Get("/alerts", s.handleAlerts)
		r.Post("/alerts/toast/dismiss", s.handleDismissToast)
		r.Post("/alerts/{pairKey}/dismiss", s.handleDismissAlert)

		r.Post("/playback", s.handlePlayback)
		r.Post("/highlight", s.handleHighlight)
		r.Post("/locate/{id}", s.handleLocate)

		r.Get("/history", s.handleHistory)
		r.Get("/delays", s.handleDelays)

		r.Route("/control", func(r chi.Router) {
			r.Post("/reset", s.handleReset)
			r.Post("/reseed", s.handleReseed)
			r.Post("/delay", s.handleDelay)
			r.Post("/simulate", s.handleSimulate)
		})
		r.Get("/trains/search", s.handleSearch)
	})

	return r
}

// ErrorResponse is the JSON error response structure.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = map[string]interface{}{"internal": err.Error()}
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"mode":   s.session.Mode(),
	})
}
