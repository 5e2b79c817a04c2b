package history

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/alerts"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/telemetry"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
    snapshot_id     TEXT PRIMARY KEY,
    received_at_utc TIMESTAMPTZ NOT NULL,
    vehicle_count   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_received_at
    ON snapshots (received_at_utc);

CREATE TABLE IF NOT EXISTS vehicle_positions (
    snapshot_id   TEXT NOT NULL REFERENCES snapshots (snapshot_id),
    train_id      TEXT NOT NULL,
    edge_u        TEXT,
    edge_v        TEXT,
    progress      DOUBLE PRECISION NOT NULL,
    speed_mps     DOUBLE PRECISION NOT NULL,
    edge_length_m DOUBLE PRECISION NOT NULL,
    status        TEXT NOT NULL,
    delay_min     INTEGER NOT NULL,
    PRIMARY KEY (snapshot_id, train_id)
);

CREATE TABLE IF NOT EXISTS conflict_alerts (
    pair_key           TEXT PRIMARY KEY,
    train_a            TEXT NOT NULL,
    train_b            TEXT NOT NULL,
    severity           TEXT NOT NULL,
    distance_m         DOUBLE PRECISION NOT NULL,
    relative_speed_mps DOUBLE PRECISION NOT NULL,
    same_edge          BOOLEAN NOT NULL,
    opposite_edge      BOOLEAN NOT NULL,
    suggestions        TEXT NOT NULL,
    first_seen_at_utc  TIMESTAMPTZ NOT NULL,
    last_seen_at_utc   TIMESTAMPTZ NOT NULL
);
`

// PostgresRecorder persists history to PostgreSQL via a pgx pool.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and ensures the schema exists.
func OpenPostgres(databaseURL string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(context.Background(), postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	log.Printf("History: connected to PostgreSQL")
	return &PostgresRecorder{pool: pool}, nil
}

// Close releases the pool.
func (r *PostgresRecorder) Close() error {
	r.pool.Close()
	return nil
}

// RecordSnapshot writes the snapshot header and its vehicle rows in one
// transaction.
func (r *PostgresRecorder) RecordSnapshot(ctx context.Context, snap *telemetry.Snapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	snapshotID := uuid.New().String()

	_, err = tx.Exec(ctx,
		"INSERT INTO snapshots (snapshot_id, received_at_utc, vehicle_count) VALUES ($1, $2, $3)",
		snapshotID, snap.ReceivedAt.UTC(), len(snap.Vehicles),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for _, v := range snap.Vehicles {
		var edgeU, edgeV *string
		if v.HasEdge {
			edgeU, edgeV = &v.Edge.U, &v.Edge.V
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO vehicle_positions
				(snapshot_id, train_id, edge_u, edge_v, progress, speed_mps, edge_length_m, status, delay_min)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			snapshotID, v.ID, edgeU, edgeV,
			v.Progress, v.SpeedMPS, v.EdgeLengthM, string(v.Status), v.DelayMin,
		)
		if err != nil {
			return fmt.Errorf("failed to insert vehicle %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// RecordAlerts upserts the batch keyed by pair, keeping the latest payload.
func (r *PostgresRecorder) RecordAlerts(ctx context.Context, batch []alerts.Alert) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	for _, a := range batch {
		_, err := tx.Exec(ctx, `
			INSERT INTO conflict_alerts
				(pair_key, train_a, train_b, severity, distance_m, relative_speed_mps,
				 same_edge, opposite_edge, suggestions, first_seen_at_utc, last_seen_at_utc)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (pair_key) DO UPDATE SET
				severity = EXCLUDED.severity,
				distance_m = EXCLUDED.distance_m,
				relative_speed_mps = EXCLUDED.relative_speed_mps,
				same_edge = EXCLUDED.same_edge,
				opposite_edge = EXCLUDED.opposite_edge,
				suggestions = EXCLUDED.suggestions,
				last_seen_at_utc = EXCLUDED.last_seen_at_utc`,
			a.PairKey, a.TrainA, a.TrainB, string(a.Severity),
			a.DistanceM, a.RelativeSpeedMPS, a.SameEdge, a.OppositeEdge,
			strings.Join(a.Suggestions, "\n"), now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert alert %s: %w", a.PairKey, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit alerts: %w", err)
	}
	return nil
}

// RecentSnapshots returns the newest snapshot summaries, newest first.
func (r *PostgresRecorder) RecentSnapshots(ctx context.Context, limit int) ([]SnapshotRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT snapshot_id, received_at_utc, vehicle_count
		FROM snapshots
		ORDER BY received_at_utc DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var records []SnapshotRecord
	for rows.Next() {
		var rec SnapshotRecord
		if err := rows.Scan(&rec.SnapshotID, &rec.ReceivedAt, &rec.VehicleCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
