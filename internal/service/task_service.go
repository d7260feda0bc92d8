package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/facility-report-api/internal/dto"
	"github.com/noah-isme/facility-report-api/internal/models"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

var taskTabStatuses = map[dto.TaskTab][]models.ReportStatus{
	dto.TaskTabActive: {models.ReportStatusReceived, models.ReportStatusInProgress},
	dto.TaskTabDone:   {models.ReportStatusDone},
}

// TaskService lists the reports assigned to a technician.
type TaskService struct {
	router *ConsistencyRouter
	logger *zap.Logger
}

// NewTaskService constructs the task reader.
func NewTaskService(router *ConsistencyRouter, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{router: router, logger: logger}
}

// ForTechnician returns one tab of the technician's tasks. An explicit status overrides the
// tab. The summary only ever filters by assignee and is read from the same source as the list.
func (s *TaskService) ForTechnician(ctx context.Context, actor *models.JWTClaims, query dto.TaskQuery) (*dto.TaskPage, Route, error) {
	if err := requireRole(actor, models.RoleTechnician); err != nil {
		return nil, Route{}, err
	}
	mode, err := ParseConsistencyMode(query.Mode, ModeStrong)
	if err != nil {
		return nil, Route{}, err
	}

	tab := dto.TaskTab(strings.ToUpper(strings.TrimSpace(query.Tab)))
	if _, ok := taskTabStatuses[tab]; !ok {
		tab = dto.TaskTabActive
	}

	filter := models.ReportFilter{TechnicianID: &actor.UserID, Page: query.Page, Limit: query.Limit}
	applyEnumFilters(&filter, query.Status, query.Category, query.Priority)
	if len(filter.Statuses) == 0 {
		filter.Statuses = taskTabStatuses[tab]
	}

	route := s.router.ForList(ctx, mode)
	items, total, err := route.Reader.List(ctx, filter)
	if err != nil {
		s.logger.Error("list technician tasks failed", zap.String("technician_id", actor.UserID), zap.Error(err))
		return nil, route, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	summary, err := route.Reader.TechnicianSummary(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("technician summary failed", zap.String("technician_id", actor.UserID), zap.Error(err))
		return nil, route, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise tasks")
	}
	if items == nil {
		items = []models.Report{}
	}

	page, limit := models.NormalizePage(filter.Page, filter.Limit)
	return &dto.TaskPage{
		Tab:        tab,
		Items:      items,
		Summary:    *summary,
		Pagination: models.NewPagination(page, limit, total),
	}, route, nil
}
