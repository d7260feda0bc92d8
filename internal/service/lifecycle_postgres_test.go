package service

import (
	"context"
	"net/http"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/facility-report-api/internal/dto"
	"github.com/noah-isme/facility-report-api/internal/models"
	"github.com/noah-isme/facility-report-api/internal/repository"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

var badUUID = &pq.Error{Code: "22P02", Message: "invalid input syntax for type uuid"}

func newPostgresLifecycle(t *testing.T) (*LifecycleService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	svc := NewLifecycleService(repository.NewReportRepository(sqlxdb), repository.NewUserRepository(sqlxdb), nil, nil)
	return svc, mock
}

func assertNotFound(t *testing.T, err error, message string) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, message, appErr.Message)
}

func TestLifecycleMalformedReportIDIsNotFound(t *testing.T) {
	staff := claimsFor("staff-1", models.RoleStaff)
	cases := map[string]func(*LifecycleService) error{
		"receive": func(svc *LifecycleService) error {
			_, err := svc.Receive(context.Background(), staff, "abc")
			return err
		},
		"reject": func(svc *LifecycleService) error {
			_, err := svc.Reject(context.Background(), staff, "abc", dto.RejectReportRequest{})
			return err
		},
		"resolve": func(svc *LifecycleService) error {
			_, err := svc.Resolve(context.Background(), staff, "abc", dto.ResolveReportRequest{})
			return err
		},
	}
	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			svc, mock := newPostgresLifecycle(t)
			mock.ExpectBegin()
			mock.ExpectQuery("UPDATE reports SET").WillReturnError(badUUID)
			mock.ExpectRollback()
			mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE id = $1")).WithArgs("abc").WillReturnError(badUUID)

			assertNotFound(t, call(svc), "report not found")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLifecycleMalformedTechnicianIDIsNotFound(t *testing.T) {
	svc, mock := newPostgresLifecycle(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).WithArgs("tono").WillReturnError(badUUID)

	_, err := svc.Assign(context.Background(), claimsFor("staff-1", models.RoleStaff), "0b7c1c7e-51a4-4a4e-9d7e-2f8f1f3a9c10",
		dto.AssignReportRequest{TechnicianID: "tono"})
	assertNotFound(t, err, "technician not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLifecycleEventsMalformedIDIsNotFound(t *testing.T) {
	svc, mock := newPostgresLifecycle(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE id = $1")).WithArgs("abc").WillReturnError(badUUID)

	_, err := svc.Events(context.Background(), claimsFor("staff-1", models.RoleStaff), "abc")
	assertNotFound(t, err, "report not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
