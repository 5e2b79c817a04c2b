package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/alerts"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/telemetry"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteRecorder persists history to a local SQLite file.
type SQLiteRecorder struct {
	conn    *sql.DB
	writeMu sync.Mutex // SQLite supports a single writer at a time
}

// OpenSQLite opens (or creates) the SQLite database at dbPath and ensures the
// schema exists.
func OpenSQLite(dbPath string) (*SQLiteRecorder, error) {
	dsn := dbPath + "?_journal=WAL&_fk=1&_busy_timeout=5000"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		log.Printf("Warning: failed to set synchronous pragma: %v", err)
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	log.Printf("History: connected to SQLite database %s", dbPath)
	return &SQLiteRecorder{conn: conn}, nil
}

// Close closes the database connection.
func (r *SQLiteRecorder) Close() error {
	return r.conn.Close()
}

// RecordSnapshot writes the snapshot header and its vehicle rows in one
// transaction.
func (r *SQLiteRecorder) RecordSnapshot(ctx context.Context, snap *telemetry.Snapshot) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	snapshotID := uuid.New().String()
	receivedAt := snap.ReceivedAt.UTC().Format(time.RFC3339)

	_, err = tx.ExecContext(ctx,
		"INSERT INTO snapshots (snapshot_id, received_at_utc, vehicle_count) VALUES (?, ?, ?)",
		snapshotID, receivedAt, len(snap.Vehicles),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vehicle_positions
			(snapshot_id, train_id, edge_u, edge_v, progress, speed_mps, edge_length_m, status, delay_min)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare vehicle insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range snap.Vehicles {
		var edgeU, edgeV *string
		if v.HasEdge {
			edgeU, edgeV = &v.Edge.U, &v.Edge.V
		}
		if _, err := stmt.ExecContext(ctx,
			snapshotID, v.ID, edgeU, edgeV,
			v.Progress, v.SpeedMPS, v.EdgeLengthM, string(v.Status), v.DelayMin,
		); err != nil {
			return fmt.Errorf("failed to insert vehicle %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// RecordAlerts upserts the batch keyed by pair, keeping the latest payload.
func (r *SQLiteRecorder) RecordAlerts(ctx context.Context, batch []alerts.Alert) error {
	if len(batch) == 0 {
		return nil
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO conflict_alerts
			(pair_key, train_a, train_b, severity, distance_m, relative_speed_mps,
			 same_edge, opposite_edge, suggestions, first_seen_at_utc, last_seen_at_utc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (pair_key) DO UPDATE SET
			severity = excluded.severity,
			distance_m = excluded.distance_m,
			relative_speed_mps = excluded.relative_speed_mps,
			same_edge = excluded.same_edge,
			opposite_edge = excluded.opposite_edge,
			suggestions = excluded.suggestions,
			last_seen_at_utc = excluded.last_seen_at_utc`)
	if err != nil {
		return fmt.Errorf("failed to prepare alert upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range batch {
		if _, err := stmt.ExecContext(ctx,
			a.PairKey, a.TrainA, a.TrainB, string(a.Severity),
			a.DistanceM, a.RelativeSpeedMPS,
			boolToInt(a.SameEdge), boolToInt(a.OppositeEdge),
			strings.Join(a.Suggestions, "\n"), now, now,
		); err != nil {
			return fmt.Errorf("failed to upsert alert %s: %w", a.PairKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alerts: %w", err)
	}
	return nil
}

// RecentSnapshots returns the newest snapshot summaries, newest first.
func (r *SQLiteRecorder) RecentSnapshots(ctx context.Context, limit int) ([]SnapshotRecord, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT snapshot_id, received_at_utc, vehicle_count
		FROM snapshots
		ORDER BY received_at_utc DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var records []SnapshotRecord
	for rows.Next() {
		var rec SnapshotRecord
		var receivedAt string
		if err := rows.Scan(&rec.SnapshotID, &receivedAt, &rec.VehicleCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, receivedAt); err == nil {
			rec.ReceivedAt = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
