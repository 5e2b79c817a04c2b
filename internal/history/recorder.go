// Package history persists accepted snapshots and alert batches so operators
// can look back at what the feed delivered.
package history

import (
	"context"
	"time"

	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/alerts"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/telemetry"
)

// SnapshotRecord summarizes one persisted snapshot.
type SnapshotRecord struct {
	SnapshotID   string    `json:"snapshot_id"`
	ReceivedAt   time.Time `json:"received_at"`
	VehicleCount int       `json:"vehicle_count"`
}

// Recorder stores snapshots and alerts. Implementations exist for SQLite and
// PostgreSQL.
type Recorder interface {
	RecordSnapshot(ctx context.Context, snap *telemetry.Snapshot) error
	RecordAlerts(ctx context.Context, batch []alerts.Alert) error
	RecentSnapshots(ctx context.Context, limit int) ([]SnapshotRecord, error)
	Close() error
}
