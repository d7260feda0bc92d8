package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/facility-report-api/internal/models"
)

func sampleSnapshot() *models.ReplicaSnapshot {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	to := models.ReportStatusNew
	return &models.ReplicaSnapshot{
		Users: []models.User{{ID: "u-1", FullName: "Rina", Email: "rina@example.com", Role: models.RoleResident, CreatedAt: now, UpdatedAt: now}},
		Reports: []models.Report{
			{ID: "r-1", ReporterID: "u-1", Status: models.ReportStatusNew, CreatedAt: now, UpdatedAt: now},
			{ID: "r-2", ReporterID: "u-1", Status: models.ReportStatusNew, CreatedAt: now, UpdatedAt: now},
			{ID: "r-3", ReporterID: "u-1", Status: models.ReportStatusNew, CreatedAt: now, UpdatedAt: now},
		},
		Events: []models.ReportEvent{{ID: "e-1", Seq: 1, ReportID: "r-1", ActorID: "u-1", Kind: models.EventReported, ToStatus: &to, At: now}},
	}
}

func TestSnapshotReadsAllTablesInOneTransaction(t *testing.T) {
	primary, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReplicationRepository(primary, nil, 0)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users ORDER BY created_at ASC, id ASC")).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow("u-1", "Rina", "rina@example.com", "hash", "RESIDENT", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reports ORDER BY created_at ASC, id ASC")).
		WillReturnRows(reportRows("r-1", models.ReportStatusNew, nil, now, now, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_events ORDER BY seq ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seq", "report_id", "actor_id", "kind", "from_status", "to_status", "note", "at"}).
			AddRow("e-1", 1, "r-1", "u-1", "REPORTED", nil, "NEW", nil, now))
	mock.ExpectRollback()

	snap, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Users, 1)
	assert.Len(t, snap.Reports, 1)
	assert.Len(t, snap.Events, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMirrorReplacesReplicaInBatches(t *testing.T) {
	primary, _, cleanupPrimary := newMock(t)
	defer cleanupPrimary()
	replica, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReplicationRepository(primary, replica, 2)

	syncedAt := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM report_events")).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reports")).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("(?s)INSERT INTO users .*ON CONFLICT \\(id\\) DO NOTHING").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("(?s)INSERT INTO reports .*ON CONFLICT \\(id\\) DO NOTHING").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("(?s)INSERT INTO reports .*ON CONFLICT \\(id\\) DO NOTHING").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("(?s)INSERT INTO report_events .*ON CONFLICT \\(id\\) DO NOTHING").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO replication_state")).
		WithArgs(syncedAt, 1, 3, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Mirror(context.Background(), sampleSnapshot(), syncedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMirrorRollsBackOnFailure(t *testing.T) {
	primary, _, cleanupPrimary := newMock(t)
	defer cleanupPrimary()
	replica, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReplicationRepository(primary, replica, 500)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM report_events")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reports")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO reports").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Mirror(context.Background(), sampleSnapshot(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy reports")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMirrorWithoutReplica(t *testing.T) {
	primary, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewReplicationRepository(primary, nil, 0)

	assert.ErrorIs(t, repo.Mirror(context.Background(), sampleSnapshot(), time.Now()), ErrNoReplica)
	_, err := repo.State(context.Background())
	assert.ErrorIs(t, err, ErrNoReplica)
}

func TestStateNeverSynced(t *testing.T) {
	primary, _, cleanupPrimary := newMock(t)
	defer cleanupPrimary()
	replica, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReplicationRepository(primary, replica, 0)

	mock.ExpectQuery(regexp.QuoteMeta("FROM replication_state WHERE id = 1")).
		WillReturnRows(sqlmock.NewRows([]string{"synced_at", "users", "reports", "events"}))

	state, err := repo.State(context.Background())
	require.NoError(t, err)
	assert.Nil(t, state)
	assert.NoError(t, mock.ExpectationsWereMet())
}
