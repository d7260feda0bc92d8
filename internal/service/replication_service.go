package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/facility-report-api/internal/models"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

type replicationStore interface {
	Snapshot(ctx context.Context) (*models.ReplicaSnapshot, error)
	Mirror(ctx context.Context, snap *models.ReplicaSnapshot, syncedAt time.Time) error
	State(ctx context.Context) (*models.ReplicationState, error)
}

type reportCounter interface {
	Count(ctx context.Context) (int, error)
}

// ReplicationService mirrors the primary store into the replica. Each run is a full resync;
// a failed run leaves the replica exactly as the previous successful run left it.
type ReplicationService struct {
	store   replicationStore
	primary reportCounter
	replica reportCounter
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// ReplicationParams wires the service. Replica stays nil when no replica is configured.
type ReplicationParams struct {
	Store   replicationStore
	Primary reportCounter
	Replica reportCounter
	Cache   *CacheService
	Metrics *MetricsService
	Logger  *zap.Logger
	Timeout time.Duration
}

// NewReplicationService constructs the service.
func NewReplicationService(params ReplicationParams) *ReplicationService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &ReplicationService{
		store:   params.Store,
		primary: params.Primary,
		replica: params.Replica,
		cache:   params.Cache,
		metrics: params.Metrics,
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

// Run performs one resync under the configured timeout. Reaching the timeout is a failure.
func (s *ReplicationService) Run(ctx context.Context) (result *models.ReplicationResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := s.now().UTC()
	defer func() {
		elapsed := s.now().Sub(started)
		if err != nil {
			s.metrics.RecordReplication(err, elapsed, 0, 0, 0, started)
			s.logger.Error("replication failed", zap.Duration("elapsed", elapsed), zap.Error(err))
			return
		}
		result.Elapsed = elapsed
		s.metrics.RecordReplication(nil, elapsed, result.Users, result.Reports, result.Events, result.SyncedAt)
		s.logger.Info("replication completed",
			zap.Int("users", result.Users),
			zap.Int("reports", result.Reports),
			zap.Int("events", result.Events),
			zap.Int("invalidated", result.Invalidated),
			zap.Duration("elapsed", elapsed),
		)
	}()

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot primary: %w", err)
	}
	// The snapshot is at least as new as started, so started is a safe synced_at.
	if err = s.store.Mirror(ctx, snap, started); err != nil {
		return nil, fmt.Errorf("mirror replica: %w", err)
	}

	result = &models.ReplicationResult{
		Users:    len(snap.Users),
		Reports:  len(snap.Reports),
		Events:   len(snap.Events),
		SyncedAt: started,
	}
	deleted, cacheErr := s.cache.Invalidate(ctx, StatsCachePattern)
	if cacheErr == nil {
		result.Invalidated = deleted
	}
	return result, nil
}

// Check compares report counts between the primary and the replica.
func (s *ReplicationService) Check(ctx context.Context) (*models.ReplicaCheck, error) {
	primaryReports, err := s.primary.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count primary reports")
	}
	check := &models.ReplicaCheck{PrimaryReports: primaryReports}
	if s.replica == nil {
		return check, nil
	}
	check.ReplicaConfigured = true

	replicaReports, err := s.replica.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count replica reports")
	}
	check.ReplicaReports = &replicaReports
	check.InSync = replicaReports == primaryReports

	state, err := s.store.State(ctx)
	if err != nil {
		s.logger.Warn("read replication state failed", zap.Error(err))
	} else if state != nil {
		syncedAt := state.SyncedAt
		check.ReplicaSyncedAt = &syncedAt
	}
	return check, nil
}
