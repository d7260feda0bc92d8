package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/facility-report-api/internal/models"
)

const defaultReplicationBatch = 500

// ReplicationRepository copies the primary tables into the replica. The replica is only ever
// written here, and always as one transaction.
type ReplicationRepository struct {
	primary   *sqlx.DB
	replica   *sqlx.DB
	batchSize int
}

// NewReplicationRepository constructs the repository. replica may be nil when no secondary
// store is configured; mirror and state calls then fail.
func NewReplicationRepository(primary, replica *sqlx.DB, batchSize int) *ReplicationRepository {
	if batchSize <= 0 {
		batchSize = defaultReplicationBatch
	}
	return &ReplicationRepository{primary: primary, replica: replica, batchSize: batchSize}
}

// ErrNoReplica is returned when a replica operation is attempted without a replica.
var ErrNoReplica = errors.New("replica database not configured")

// Snapshot reads users, reports and events from one consistent primary snapshot.
func (r *ReplicationRepository) Snapshot(ctx context.Context) (*models.ReplicaSnapshot, error) {
	tx, err := r.primary.BeginTxx(ctx, snapshotTxOptions)
	if err != nil {
		return nil, fmt.Errorf("begin primary snapshot: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	snap := &models.ReplicaSnapshot{
		Users:   make([]models.User, 0),
		Reports: make([]models.Report, 0),
		Events:  make([]models.ReportEvent, 0),
	}
	if err := tx.SelectContext(ctx, &snap.Users, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("snapshot users: %w", err)
	}
	if err := tx.SelectContext(ctx, &snap.Reports, `SELECT `+reportColumns+` FROM reports ORDER BY created_at ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("snapshot reports: %w", err)
	}
	if err := tx.SelectContext(ctx, &snap.Events, `SELECT `+eventColumns+` FROM report_events ORDER BY seq ASC`); err != nil {
		return nil, fmt.Errorf("snapshot report events: %w", err)
	}
	return snap, nil
}

// Mirror replaces the replica content with snap. Any failure rolls back the whole mirror so
// the replica keeps its previous consistent state.
func (r *ReplicationRepository) Mirror(ctx context.Context, snap *models.ReplicaSnapshot, syncedAt time.Time) (err error) {
	if r.replica == nil {
		return ErrNoReplica
	}
	tx, err := r.replica.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replica mirror: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"report_events", "reports", "users"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear replica %s: %w", table, err)
		}
	}

	const insertUsers = `INSERT INTO users (id, full_name, email, password_hash, role, room_number, created_at, updated_at)
VALUES (:id, :full_name, :email, :password_hash, :role, :room_number, :created_at, :updated_at)
ON CONFLICT (id) DO NOTHING`
	for start := 0; start < len(snap.Users); start += r.batchSize {
		batch := snap.Users[start:min(start+r.batchSize, len(snap.Users))]
		if _, err = tx.NamedExecContext(ctx, insertUsers, batch); err != nil {
			return fmt.Errorf("copy users: %w", err)
		}
	}

	const insertReports = `INSERT INTO reports (id, reporter_id, category, title, description, photo_url, priority, location, status,
       assigned_technician_id, created_at, updated_at, received_at, started_at, resolved_at)
VALUES (:id, :reporter_id, :category, :title, :description, :photo_url, :priority, :location, :status,
       :assigned_technician_id, :created_at, :updated_at, :received_at, :started_at, :resolved_at)
ON CONFLICT (id) DO NOTHING`
	for start := 0; start < len(snap.Reports); start += r.batchSize {
		batch := snap.Reports[start:min(start+r.batchSize, len(snap.Reports))]
		if _, err = tx.NamedExecContext(ctx, insertReports, batch); err != nil {
			return fmt.Errorf("copy reports: %w", err)
		}
	}

	const insertEvents = `INSERT INTO report_events (id, seq, report_id, actor_id, kind, from_status, to_status, note, at)
VALUES (:id, :seq, :report_id, :actor_id, :kind, :from_status, :to_status, :note, :at)
ON CONFLICT (id) DO NOTHING`
	for start := 0; start < len(snap.Events); start += r.batchSize {
		batch := snap.Events[start:min(start+r.batchSize, len(snap.Events))]
		if _, err = tx.NamedExecContext(ctx, insertEvents, batch); err != nil {
			return fmt.Errorf("copy report events: %w", err)
		}
	}

	const upsertState = `INSERT INTO replication_state (id, synced_at, users, reports, events) VALUES (1, $1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET synced_at = EXCLUDED.synced_at, users = EXCLUDED.users, reports = EXCLUDED.reports, events = EXCLUDED.events`
	if _, err = tx.ExecContext(ctx, upsertState, syncedAt, len(snap.Users), len(snap.Reports), len(snap.Events)); err != nil {
		return fmt.Errorf("record replication state: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replica mirror: %w", err)
	}
	return nil
}

// State returns the last successful mirror recorded in the replica, or nil when the replica
// was never synced.
func (r *ReplicationRepository) State(ctx context.Context) (*models.ReplicationState, error) {
	if r.replica == nil {
		return nil, ErrNoReplica
	}
	const query = `SELECT synced_at, users, reports, events FROM replication_state WHERE id = 1`
	var state models.ReplicationState
	if err := r.replica.GetContext(ctx, &state, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read replication state: %w", err)
	}
	return &state, nil
}
