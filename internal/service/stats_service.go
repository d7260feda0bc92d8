package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/facility-report-api/internal/dto"
	"github.com/noah-isme/facility-report-api/internal/models"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

const statsCachePrefix = "stats:"

// StatsCachePattern matches every cached statistics payload.
const StatsCachePattern = statsCachePrefix + "*"

// StatsService builds the dashboard summary: status totals over all reports and a per-day
// creation histogram over the requested range.
type StatsService struct {
	router   *ConsistencyRouter
	cache    *CacheService
	ranges   DateRangePolicy
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// StatsServiceConfig tunes the summary reader.
type StatsServiceConfig struct {
	Ranges   DateRangePolicy
	CacheTTL time.Duration
	Now      func() time.Time
}

// NewStatsService constructs the stats service. cache may be nil.
func NewStatsService(router *ConsistencyRouter, cache *CacheService, cfg StatsServiceConfig, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &StatsService{router: router, cache: cache, ranges: cfg.Ranges, cacheTTL: cfg.CacheTTL, logger: logger, now: now}
}

// Summary defaults to weak reads. Weak summaries are cached per replica sync: the key carries
// the synced_at the route observed, so a summary computed from an older sync can never be
// served under a newer replicaSyncedAt. Strong summaries always hit the primary.
func (s *StatsService) Summary(ctx context.Context, query dto.StatsQuery) (*models.StatsSummary, Route, error) {
	mode, err := ParseConsistencyMode(query.Mode, ModeWeak)
	if err != nil {
		return nil, Route{}, err
	}
	dateRange, err := s.ranges.Resolve(query.From, query.To, s.now())
	if err != nil {
		return nil, Route{}, err
	}
	route, err := s.router.ForStats(ctx, mode)
	if err != nil {
		return nil, Route{}, err
	}

	key := statsCacheKey(route.SyncedAt, dateRange)
	if route.Source == SourceReplica {
		var cached models.StatsSummary
		if s.cache.Get(ctx, key, &cached) {
			route.Cached = true
			return &cached, route, nil
		}
	}

	summary, err := s.compute(ctx, route.Reader, dateRange)
	if err != nil {
		s.logger.Error("stats summary failed", zap.String("source", string(route.Source)), zap.Error(err))
		return nil, route, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute statistics")
	}
	if route.Source == SourceReplica {
		s.cache.Set(ctx, key, summary, s.cacheTTL)
	}
	return summary, route, nil
}

func (s *StatsService) compute(ctx context.Context, reader ReportReader, dateRange models.DateRange) (*models.StatsSummary, error) {
	snap, err := reader.StatusSummary(ctx, dateRange.From, exclusiveEnd(dateRange))
	if err != nil {
		return nil, err
	}

	perStatus := make(map[models.ReportStatus]int, len(models.ReportStatuses))
	for _, status := range models.ReportStatuses {
		perStatus[status] = 0
	}
	for _, row := range snap.ByStatus {
		perStatus[row.Status] += row.Count
	}

	return &models.StatsSummary{
		Total:     snap.Total,
		PerStatus: perStatus,
		PerDay:    fillDays(dateRange, snap.Daily),
		From:      dateRange.From.Format(dayLayout),
		To:        dateRange.To.Format(dayLayout),
	}, nil
}

// fillDays returns one entry per day of r, ascending, with zero for days without reports.
func fillDays(r models.DateRange, counts []models.DailyCount) []models.DailyCount {
	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Date] += c.Count
	}
	var out []models.DailyCount
	for day := r.From; !day.After(r.To); day = day.AddDate(0, 0, 1) {
		key := day.Format(dayLayout)
		out = append(out, models.DailyCount{Date: key, Count: byDay[key]})
	}
	return out
}

// statsCacheKey scopes a summary to the replica generation it was read from. A replica with
// no readable sync state shares the "unsynced" generation.
func statsCacheKey(syncedAt *time.Time, r models.DateRange) string {
	generation := "unsynced"
	if syncedAt != nil {
		generation = strconv.FormatInt(syncedAt.UTC().UnixNano(), 10)
	}
	return fmt.Sprintf("%ssummary:%s:%s:%s", statsCachePrefix, generation, r.From.Format(dayLayout), r.To.Format(dayLayout))
}
