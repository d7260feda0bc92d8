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

func seedListing(store *memReportStore) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		reporter := "resident-1"
		if i%3 == 0 {
			reporter = "resident-2"
		}
		status := models.ReportStatusNew
		if i%2 == 0 {
			status = models.ReportStatusReceived
		}
		store.seed(models.Report{
			ID:         fmt.Sprintf("r-%02d", i),
			ReporterID: reporter,
			Category:   models.CategoryWater,
			Priority:   models.PriorityMedium,
			Status:     status,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		})
	}
}

func TestReportServiceListScopes(t *testing.T) {
	primary := newMemReportStore()
	seedListing(primary)
	svc := NewReportService(NewConsistencyRouter(RouterParams{Primary: primary}), nil)
	ctx := context.Background()

	page, route, err := svc.List(ctx, claimsFor("resident-1", models.RoleResident), dto.ReportListQuery{Scope: "all"})
	require.NoError(t, err)
	assert.Equal(t, SourcePrimary, route.Source)
	assert.Equal(t, 8, page.Pagination.Total)
	for _, r := range page.Items {
		assert.Equal(t, "resident-1", r.ReporterID)
	}

	page, _, err = svc.List(ctx, claimsFor("staff-1", models.RoleStaff), dto.ReportListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 12, page.Pagination.Total)
	assert.Len(t, page.Items, models.DefaultPageLimit)
	assert.Equal(t, "r-11", page.Items[0].ID)
	assert.True(t, page.Pagination.HasNext)

	_, _, err = svc.List(ctx, claimsFor("tech-1", models.RoleTechnician), dto.ReportListQuery{})
	assertCode(t, err, appErrors.ErrForbidden.Code)

	_, _, err = svc.List(ctx, nil, dto.ReportListQuery{})
	assertCode(t, err, appErrors.ErrUnauthorized.Code)
}

func TestReportServiceListFiltersAndPaging(t *testing.T) {
	primary := newMemReportStore()
	seedListing(primary)
	svc := NewReportService(NewConsistencyRouter(RouterParams{Primary: primary}), nil)
	staff := claimsFor("staff-1", models.RoleStaff)

	page, _, err := svc.List(context.Background(), staff, dto.ReportListQuery{Status: "diproses", Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 6, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasPrev)
	assert.Len(t, page.Items, 1)

	// Unknown values are ignored instead of failing the request.
	page, _, err = svc.List(context.Background(), staff, dto.ReportListQuery{Status: "BROKEN", Category: "LAVA", Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 12, page.Pagination.Total)
	assert.Equal(t, models.MaxPageLimit, page.Pagination.Limit)
}

func TestReportServiceListModes(t *testing.T) {
	primary := newMemReportStore()
	replica := newMemReportStore()
	seedListing(primary)
	svc := NewReportService(NewConsistencyRouter(RouterParams{Primary: primary, Replica: replica}), nil)
	staff := claimsFor("staff-1", models.RoleStaff)

	page, route, err := svc.List(context.Background(), staff, dto.ReportListQuery{Mode: "weak"})
	require.NoError(t, err)
	assert.Equal(t, SourceReplica, route.Source)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)

	_, _, err = svc.List(context.Background(), staff, dto.ReportListQuery{Mode: "fast"})
	assertCode(t, err, appErrors.ErrValidation.Code)
}
