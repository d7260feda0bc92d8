package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/facility-report-api/internal/models"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

type technicianLister interface {
	ListTechnicians(ctx context.Context) ([]models.Technician, error)
}

// UserService exposes user directory reads.
type UserService struct {
	repo   technicianLister
	logger *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo technicianLister, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger}
}

// ListTechnicians returns every technician so staff can pick an assignee.
func (s *UserService) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	technicians, err := s.repo.ListTechnicians(ctx)
	if err != nil {
		s.logger.Error("list technicians failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list technicians")
	}
	if technicians == nil {
		technicians = []models.Technician{}
	}
	return technicians, nil
}
