package history

import (
	"context"
	"testing"
	"time"

	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/alerts"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/telemetry"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	rec, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { rec.Close() })
	return rec
}

func TestRecordAndListSnapshots(t *testing.T) {
	rec := openTestRecorder(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		snap := &telemetry.Snapshot{
			ReceivedAt: base.Add(time.Duration(i) * time.Second),
			Vehicles: []telemetry.VehicleState{
				{ID: "T1", Edge: telemetry.EdgeRef{U: "A", V: "B"}, HasEdge: true,
					Progress: 0.5, SpeedMPS: 10, EdgeLengthM: 1000, Status: telemetry.StatusRunning},
				{ID: "T2", Status: telemetry.StatusHeld, Progress: 1},
			},
		}
		if err := rec.RecordSnapshot(ctx, snap); err != nil {
			t.Fatalf("RecordSnapshot failed: %v", err)
		}
	}

	records, err := rec.RecentSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("RecentSnapshots failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records with limit 2, got %d", len(records))
	}
	if !records[0].ReceivedAt.After(records[1].ReceivedAt) {
		t.Error("expected newest snapshot first")
	}
	if records[0].VehicleCount != 2 {
		t.Errorf("expected vehicle count 2, got %d", records[0].VehicleCount)
	}
}

func TestRecordAlertsUpsertsByPair(t *testing.T) {
	rec := openTestRecorder(t)
	ctx := context.Background()

	first := []alerts.Alert{{
		PairKey: "T1|T2", TrainA: "T1", TrainB: "T2",
		Severity: alerts.SeverityCritical, DistanceM: 50,
		Suggestions: []string{"hold T2 at signal"},
	}}
	if err := rec.RecordAlerts(ctx, first); err != nil {
		t.Fatalf("RecordAlerts failed: %v", err)
	}

	second := []alerts.Alert{{
		PairKey: "T1|T2", TrainA: "T1", TrainB: "T2",
		Severity: alerts.SeverityWarn, DistanceM: 120,
	}}
	if err := rec.RecordAlerts(ctx, second); err != nil {
		t.Fatalf("RecordAlerts (update) failed: %v", err)
	}

	var count int
	var severity string
	var distance float64
	row := rec.conn.QueryRowContext(ctx,
		"SELECT COUNT(*), MAX(severity), MAX(distance_m) FROM conflict_alerts")
	if err := row.Scan(&count, &severity, &distance); err != nil {
		t.Fatalf("failed to read back alerts: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row per pair, got %d", count)
	}
	if severity != "warn" || distance != 120 {
		t.Errorf("expected latest payload to win, got severity=%s distance=%v", severity, distance)
	}
}

func TestRecordAlertsEmptyBatchIsNoop(t *testing.T) {
	rec := openTestRecorder(t)
	if err := rec.RecordAlerts(context.Background(), nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}
}
