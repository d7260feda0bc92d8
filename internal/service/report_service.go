package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/facility-report-api/internal/dto"
	"github.com/noah-isme/facility-report-api/internal/models"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

const (
	scopeAll  = "all"
	scopeMine = "mine"
)

// ReportService serves report listings through the consistency router.
type ReportService struct {
	router *ConsistencyRouter
	logger *zap.Logger
}

// NewReportService constructs the listing service.
func NewReportService(router *ConsistencyRouter, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{router: router, logger: logger}
}

// List returns one page of reports. Residents only ever see their own reports; staff see all
// of them unless scope=mine. Lists default to strong reads.
func (s *ReportService) List(ctx context.Context, actor *models.JWTClaims, query dto.ReportListQuery) (*dto.ReportPage, Route, error) {
	if actor == nil {
		return nil, Route{}, appErrors.ErrUnauthorized
	}
	mode, err := ParseConsistencyMode(query.Mode, ModeStrong)
	if err != nil {
		return nil, Route{}, err
	}

	filter := models.ReportFilter{Page: query.Page, Limit: query.Limit}
	applyEnumFilters(&filter, query.Status, query.Category, query.Priority)

	switch actor.Role {
	case models.RoleResident:
		filter.ReporterID = &actor.UserID
	case models.RoleStaff:
		if strings.EqualFold(strings.TrimSpace(query.Scope), scopeMine) {
			filter.ReporterID = &actor.UserID
		}
	default:
		return nil, Route{}, appErrors.Clone(appErrors.ErrForbidden, "technicians use the task list")
	}

	route := s.router.ForList(ctx, mode)
	items, total, err := route.Reader.List(ctx, filter)
	if err != nil {
		s.logger.Error("list reports failed", zap.String("source", string(route.Source)), zap.Error(err))
		return nil, route, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	if items == nil {
		items = []models.Report{}
	}
	page, limit := models.NormalizePage(filter.Page, filter.Limit)
	return &dto.ReportPage{Items: items, Pagination: models.NewPagination(page, limit, total)}, route, nil
}

// applyEnumFilters copies recognised filter values onto filter. Unknown values are ignored
// rather than rejected. status accepts a comma separated list.
func applyEnumFilters(filter *models.ReportFilter, status, category, priority string) {
	for _, raw := range strings.Split(status, ",") {
		s := models.ReportStatus(strings.ToUpper(strings.TrimSpace(raw)))
		if s.Valid() && !containsReportStatus(filter.Statuses, s) {
			filter.Statuses = append(filter.Statuses, s)
		}
	}
	if c := models.ReportCategory(strings.ToUpper(strings.TrimSpace(category))); c.Valid() {
		filter.Category = &c
	}
	if p := models.ReportPriority(strings.ToUpper(strings.TrimSpace(priority))); p.Valid() {
		filter.Priority = &p
	}
}

func containsReportStatus(set []models.ReportStatus, status models.ReportStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
