package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/facility-report-api/internal/models"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

// ConsistencyMode selects which store serves a read.
type ConsistencyMode string

const (
	ModeStrong ConsistencyMode = "strong"
	ModeWeak   ConsistencyMode = "weak"
)

// ReadSource names the store that actually served a read.
type ReadSource string

const (
	SourcePrimary ReadSource = "primary"
	SourceReplica ReadSource = "replica"
)

// ReportReader is the read surface shared by the primary and replica report stores.
type ReportReader interface {
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error)
	Count(ctx context.Context) (int, error)
	StatusSummary(ctx context.Context, from, until time.Time) (*models.StatusSnapshot, error)
	DurationRows(ctx context.Context, from, until time.Time) ([]models.DurationRow, error)
	TechnicianSummary(ctx context.Context, technicianID string) (*models.TechnicianSummary, error)
}

type replicaStateReader interface {
	State(ctx context.Context) (*models.ReplicationState, error)
}

// ParseConsistencyMode normalises a mode parameter. "eventual" is accepted as weak and an
// empty value selects fallback.
func ParseConsistencyMode(raw string, fallback ConsistencyMode) (ConsistencyMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return fallback, nil
	case string(ModeStrong):
		return ModeStrong, nil
	case string(ModeWeak), "eventual":
		return ModeWeak, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "mode must be strong or weak")
	}
}

// Route is the outcome of a routing decision.
type Route struct {
	Reader   ReportReader
	Mode     ConsistencyMode
	Source   ReadSource
	Fallback bool
	SyncedAt *time.Time
	// Cached is set by readers that answered from the cache instead of Reader.
	Cached bool
}

// Meta renders consistency metadata for the response envelope.
func (r Route) Meta() map[string]interface{} {
	meta := map[string]interface{}{
		"consistency": string(r.Mode),
		"source":      string(r.Source),
	}
	switch {
	case r.Fallback:
		meta["fallback"] = true
		meta["note"] = "replica not configured; served from primary"
	case r.Source == SourceReplica:
		meta["note"] = "weak read from replica; data may be stale"
	default:
		meta["note"] = "strong read from primary"
	}
	if r.Cached {
		meta["cached"] = true
	}
	if r.SyncedAt != nil {
		meta["replicaSyncedAt"] = r.SyncedAt.UTC().Format(time.RFC3339)
	}
	return meta
}

// ConsistencyRouter picks the primary or the replica for each read. It never writes.
type ConsistencyRouter struct {
	primary ReportReader
	replica ReportReader
	state   replicaStateReader
	metrics *MetricsService
	logger  *zap.Logger
}

// RouterParams wires the router. Replica and State stay nil when no replica is configured.
type RouterParams struct {
	Primary ReportReader
	Replica ReportReader
	State   replicaStateReader
	Metrics *MetricsService
	Logger  *zap.Logger
}

// NewConsistencyRouter constructs the router.
func NewConsistencyRouter(params RouterParams) *ConsistencyRouter {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsistencyRouter{
		primary: params.Primary,
		replica: params.Replica,
		state:   params.State,
		metrics: params.Metrics,
		logger:  logger,
	}
}

// ReplicaConfigured reports whether a replica reader is available.
func (r *ConsistencyRouter) ReplicaConfigured() bool {
	return r.replica != nil
}

// ForList routes list-style reads. A weak read without a replica falls back to the primary.
func (r *ConsistencyRouter) ForList(ctx context.Context, mode ConsistencyMode) Route {
	if mode == ModeWeak && r.replica != nil {
		return r.replicaRoute(ctx, "list")
	}
	route := Route{Reader: r.primary, Mode: mode, Source: SourcePrimary, Fallback: mode == ModeWeak}
	r.metrics.RecordRoute("list", string(route.Source))
	return route
}

// ForStats routes aggregate reads. A weak read without a replica is refused.
func (r *ConsistencyRouter) ForStats(ctx context.Context, mode ConsistencyMode) (Route, error) {
	if mode != ModeWeak {
		r.metrics.RecordRoute("stats", string(SourcePrimary))
		return Route{Reader: r.primary, Mode: ModeStrong, Source: SourcePrimary}, nil
	}
	if r.replica == nil {
		r.metrics.RecordRoute("stats", "refused")
		return Route{}, appErrors.Clone(appErrors.ErrReplicaUnavailable, "weak mode requires a configured replica database")
	}
	return r.replicaRoute(ctx, "stats"), nil
}

func (r *ConsistencyRouter) replicaRoute(ctx context.Context, kind string) Route {
	route := Route{Reader: r.replica, Mode: ModeWeak, Source: SourceReplica}
	if r.state != nil {
		state, err := r.state.State(ctx)
		if err != nil {
			r.logger.Warn("read replication state failed", zap.Error(err))
		} else if state != nil {
			syncedAt := state.SyncedAt
			route.SyncedAt = &syncedAt
		}
	}
	r.metrics.RecordRoute(kind, string(route.Source))
	return route
}
