package transport

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/alerts"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/telemetry"
)

// Mode describes the health of the backend connection.
type Mode string

const (
	ModeConnecting Mode = "connecting"
	ModeLive       Mode = "live"
	ModeDegraded   Mode = "degraded"
)

// SnapshotSink receives accepted snapshots and alert batches for persistence.
// Sink errors never interrupt the feed.
type SnapshotSink interface {
	RecordSnapshot(ctx context.Context, snap *telemetry.Snapshot) error
	RecordAlerts(ctx context.Context, batch []alerts.Alert) error
}

// SessionConfig carries the tunables for a Session.
type SessionConfig struct {
	UpdatesURL       string
	PollInterval     time.Duration
	FastPollInterval time.Duration
	MaxBackoff       time.Duration
}

// Session keeps the local state synchronized with the backend. It prefers the
// websocket push channel and falls back to 1s polling while the push channel is
// down. The fast position feed runs on its own cadence regardless of mode.
type Session struct {
	client     *Client
	store      *telemetry.Store
	reconciler *alerts.Reconciler
	sink       SnapshotSink
	cfg        SessionConfig

	mode    atomic.Value // Mode
	lastErr atomic.Value // string
	overlay atomic.Pointer[OverlayFrame]
}

// NewSession wires a session over the given client. sink may be nil.
func NewSession(client *Client, store *telemetry.Store, reconciler *alerts.Reconciler, sink SnapshotSink, cfg SessionConfig) *Session {
	s := &Session{
		client:     client,
		store:      store,
		reconciler: reconciler,
		sink:       sink,
		cfg:        cfg,
	}
	s.mode.Store(ModeConnecting)
	s.lastErr.Store("")
	return s
}

// Mode reports the current connection mode.
func (s *Session) Mode() Mode {
	return s.mode.Load().(Mode)
}

// LastError reports the most recent caught feed error, or "".
func (s *Session) LastError() string {
	return s.lastErr.Load().(string)
}

// Overlay returns the latest fast-feed frame, or nil before the first fetch.
func (s *Session) Overlay() *OverlayFrame {
	return s.overlay.Load()
}

// Start launches the push, poll and fast-feed loops. They stop when ctx is
// cancelled.
func (s *Session) Start(ctx context.Context) {
	go s.runPush(ctx)
	go s.runPoll(ctx)
	go s.runOverlay(ctx)
}

func (s *Session) setMode(m Mode) {
	if s.mode.Load().(Mode) != m {
		log.Printf("Session: mode -> %s", m)
	}
	s.mode.Store(m)
}

func (s *Session) noteError(err error) {
	s.lastErr.Store(err.Error())
}

func (s *Session) applySnapshot(vehicles []telemetry.VehicleState) {
	snap := s.store.Replace(vehicles)
	if s.sink != nil {
		if err := s.sink.RecordSnapshot(context.Background(), snap); err != nil {
			log.Printf("Session: failed to record snapshot: %v", err)
		}
	}
}

func (s *Session) applyAlerts(batch []alerts.Alert) {
	s.reconciler.Merge(batch)
	if s.sink != nil && len(batch) > 0 {
		if err := s.sink.RecordAlerts(context.Background(), batch); err != nil {
			log.Printf("Session: failed to record alerts: %v", err)
		}
	}
}

// runPush dials the websocket and reads messages until the connection drops,
// then redials with exponential backoff capped at MaxBackoff.
func (s *Session) runPush(ctx context.Context) {
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.UpdatesURL, nil)
		if err != nil {
			s.noteError(err)
			s.setMode(ModeDegraded)
			log.Printf("Session: push dial failed, retrying in %s: %v", backoff, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > s.cfg.MaxBackoff {
				backoff = s.cfg.MaxBackoff
			}
			continue
		}

		log.Printf("Session: push channel connected")
		s.setMode(ModeLive)
		backoff = time.Second

		s.readPush(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		s.setMode(ModeDegraded)
		log.Printf("Session: push channel lost, falling back to polling")
	}
}

// readPush consumes frames until the connection errors. Malformed frames are
// logged and dropped without closing the channel.
func (s *Session) readPush(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.noteError(err)
			}
			return
		}
		if err := s.handlePushMessage(raw); err != nil {
			s.noteError(err)
			log.Printf("Session: dropping push message: %v", err)
		}
	}
}

// runPoll fetches /trains every PollInterval but only applies the result while
// the push channel is down, so a healthy push feed is never overwritten by a
// slower poll.
func (s *Session) runPoll(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if s.Mode() == ModeLive {
			continue
		}

		vehicles, err := s.client.FetchTrains(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.noteError(err)
				log.Printf("Session: poll failed: %v", err)
			}
			continue
		}
		s.applySnapshot(vehicles)
	}
}

// runOverlay fetches the fast position feed on its own cadence. Failed cycles
// are skipped silently; the previous frame stays visible.
func (s *Session) runOverlay(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.FastPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, err := s.client.FetchTrainPositions(ctx)
		if err != nil {
			continue
		}
		s.overlay.Store(frame)
	}
}
