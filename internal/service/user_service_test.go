package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/facility-report-api/internal/models"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

type technicianRepoStub struct {
	technicians []models.Technician
	err         error
}

func (s technicianRepoStub) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	return s.technicians, s.err
}

func TestUserServiceListTechnicians(t *testing.T) {
	svc := NewUserService(technicianRepoStub{technicians: []models.Technician{{ID: "tech-1", FullName: "Tono"}}}, nil)
	technicians, err := svc.ListTechnicians(context.Background())
	require.NoError(t, err)
	require.Len(t, technicians, 1)
	assert.Equal(t, "Tono", technicians[0].FullName)

	empty, err := NewUserService(technicianRepoStub{}, nil).ListTechnicians(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, empty)

	_, err = NewUserService(technicianRepoStub{err: errors.New("boom")}, nil).ListTechnicians(context.Background())
	assertCode(t, err, appErrors.ErrInternal.Code)
}
