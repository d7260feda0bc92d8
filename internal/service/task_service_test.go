package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/facility-report-api/internal/dto"
	"github.com/noah-isme/facility-report-api/internal/models"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

func seedTasks(store *memReportStore) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tech := "tech-1"
	other := "tech-2"
	rows := []struct {
		status   models.ReportStatus
		category models.ReportCategory
		assignee *string
	}{
		{models.ReportStatusReceived, models.CategoryWater, &tech},
		{models.ReportStatusInProgress, models.CategoryElectricity, &tech},
		{models.ReportStatusInProgress, models.CategoryWater, &tech},
		{models.ReportStatusDone, models.CategoryWater, &tech},
		{models.ReportStatusDone, models.CategoryNetwork, &tech},
		{models.ReportStatusRejected, models.CategoryOther, &tech},
		{models.ReportStatusInProgress, models.CategoryWater, &other},
		{models.ReportStatusNew, models.CategoryWater, nil},
	}
	for i, row := range rows {
		store.seed(models.Report{
			ID:                   fmt.Sprintf("t-%d", i),
			Status:               row.status,
			Category:             row.category,
			Priority:             models.PriorityHigh,
			AssignedTechnicianID: row.assignee,
			CreatedAt:            base.Add(time.Duration(i) * time.Hour),
		})
	}
}

func TestTaskServiceTabs(t *testing.T) {
	store := newMemReportStore()
	seedTasks(store)
	svc := NewTaskService(NewConsistencyRouter(RouterParams{Primary: store}), nil)
	tech := claimsFor("tech-1", models.RoleTechnician)

	active, _, err := svc.ForTechnician(context.Background(), tech, dto.TaskQuery{})
	require.NoError(t, err)
	assert.Equal(t, dto.TaskTabActive, active.Tab)
	require.Len(t, active.Items, 3)
	assert.Equal(t, "t-2", active.Items[0].ID)

	done, _, err := svc.ForTechnician(context.Background(), tech, dto.TaskQuery{Tab: "done"})
	require.NoError(t, err)
	assert.Equal(t, dto.TaskTabDone, done.Tab)
	assert.Len(t, done.Items, 2)

	_, _, err = svc.ForTechnician(context.Background(), claimsFor("staff-1", models.RoleStaff), dto.TaskQuery{})
	assertCode(t, err, appErrors.ErrForbidden.Code)
}

func TestTaskSummaryIgnoresListFilters(t *testing.T) {
	store := newMemReportStore()
	seedTasks(store)
	svc := NewTaskService(NewConsistencyRouter(RouterParams{Primary: store}), nil)
	tech := claimsFor("tech-1", models.RoleTechnician)
	want := models.TechnicianSummary{Active: 3, Done: 2, Rejected: 1}

	queries := []dto.TaskQuery{
		{},
		{Tab: "DONE"},
		{Status: "DIKERJAKAN"},
		{Category: "WATER"},
		{Status: "SELESAI", Category: "NETWORK", Priority: "LOW"},
	}
	for _, q := range queries {
		page, _, err := svc.ForTechnician(context.Background(), tech, q)
		require.NoError(t, err)
		assert.Equal(t, want, page.Summary, "%+v", q)
	}

	filtered, _, err := svc.ForTechnician(context.Background(), tech, dto.TaskQuery{Status: "DIKERJAKAN", Category: "WATER"})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	assert.Equal(t, "t-2", filtered.Items[0].ID)
}
