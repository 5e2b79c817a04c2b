package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/alerts"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/api"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/bus"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/config"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/history"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/network"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/telemetry"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/transport"
)

func main() {
	log.Println("Starting railview engine...")

	_ = godotenv.Load()

	cfg := config.Load()
	log.Printf("Config loaded: backend=%s, poll_interval=%v, fast_poll=%v",
		cfg.BackendURL, cfg.PollInterval, cfg.FastPollInterval)

	// ═══════════════════════════════════════════════════════
	// PHASE 1: Static Network Geometry (startup)
	// ═══════════════════════════════════════════════════════
	client := transport.NewClient(cfg.BackendURL)
	net := fetchNetworkWithRetry(client)
	cache := network.BuildGeometryCache(net)

	// ═══════════════════════════════════════════════════════
	// PHASE 2: History Recorder
	// ═══════════════════════════════════════════════════════
	var recorder history.Recorder
	if cfg.PostgresURL != "" {
		pg, err := history.OpenPostgres(cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		recorder = pg
	} else if cfg.DatabasePath != "" {
		db, err := history.OpenSQLite(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to open SQLite database: %v", err)
		}
		recorder = db
	}
	if recorder != nil {
		defer recorder.Close()
	} else {
		log.Println("History recording disabled")
	}

	// ═══════════════════════════════════════════════════════
	// PHASE 3: State, Alerts, Feed Session
	// ═══════════════════════════════════════════════════════
	store := telemetry.NewStore()
	board := alerts.NewReconciler(cfg.CriticalToastWindow)
	defer board.Close()
	extrapolator := telemetry.NewExtrapolator(store, cache)
	delayStats := telemetry.NewDelayStats()

	session := transport.NewSession(client, store, board, &snapshotSink{recorder: recorder, stats: delayStats}, transport.SessionConfig{
		UpdatesURL:       cfg.UpdatesURL,
		PollInterval:     cfg.PollInterval,
		FastPollInterval: cfg.FastPollInterval,
		MaxBackoff:       cfg.MaxBackoff,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	session.Start(ctx)

	// ═══════════════════════════════════════════════════════
	// PHASE 4: Event Bus Wiring
	// ═══════════════════════════════════════════════════════
	eventBus := bus.New()
	playbackCh := eventBus.SubscribePlayback()
	go func() {
		for {
			select {
			case msg := <-playbackCh:
				extrapolator.SetPlaying(msg.Playing)
			case <-ctx.Done():
				return
			}
		}
	}()

	// ═══════════════════════════════════════════════════════
	// PHASE 5: HTTP State API
	// ═══════════════════════════════════════════════════════
	var hist api.HistoryStore
	if recorder != nil {
		hist = recorder
	}
	server := api.NewServer(extrapolator, session, board, client, hist, delayStats, eventBus, cfg.HistoryLimit)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(cfg.FrontendOrigin),
	}
	go func() {
		log.Printf("State API listening on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// ═══════════════════════════════════════════════════════
	// PHASE 6: Graceful Shutdown
	// ═══════════════════════════════════════════════════════
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	log.Println("Goodbye!")
}

// snapshotSink feeds accepted snapshots into the delay tracker and, when a
// recorder is configured, into persistent history.
type snapshotSink struct {
	recorder history.Recorder
	stats    *telemetry.DelayStats
}

func (s *snapshotSink) RecordSnapshot(ctx context.Context, snap *telemetry.Snapshot) error {
	s.stats.Observe(snap)
	if s.recorder == nil {
		return nil
	}
	return s.recorder.RecordSnapshot(ctx, snap)
}

func (s *snapshotSink) RecordAlerts(ctx context.Context, batch []alerts.Alert) error {
	if s.recorder == nil {
		return nil
	}
	return s.recorder.RecordAlerts(ctx, batch)
}

// fetchNetworkWithRetry blocks until the backend serves the static network.
// The map is useless without geometry, so startup waits instead of guessing.
func fetchNetworkWithRetry(client *transport.Client) *network.Network {
	backoff := time.Second
	for {
		net, err := client.FetchNetwork(context.Background())
		if err == nil {
			log.Printf("Network loaded: %d nodes, %d edges", len(net.Nodes), len(net.Edges))
			return net
		}
		log.Printf("Warning: network fetch failed, retrying in %s: %v", backoff, err)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}
