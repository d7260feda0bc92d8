package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/facility-report-api/internal/dto"
	"github.com/noah-isme/facility-report-api/internal/models"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
	"github.com/noah-isme/facility-report-api/pkg/storage"
)

type photoSigner interface {
	ValidatePhoto(contentType string, size int64) error
	PresignPhoto(ctx context.Context, ownerID, contentType string, size int64) (*storage.PhotoUpload, error)
}

// UploadService hands residents presigned URLs for report photos. The returned photo URL is
// what the client later sends as photoUrl when creating the report.
type UploadService struct {
	signer    photoSigner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUploadService constructs the service. A nil signer means uploads are disabled.
func NewUploadService(signer photoSigner, validate *validator.Validate, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UploadService{signer: signer, validator: validate, logger: logger}
}

// PresignPhoto validates the declared file and issues an upload URL.
func (s *UploadService) PresignPhoto(ctx context.Context, actor *models.JWTClaims, req dto.PhotoUploadRequest) (*storage.PhotoUpload, error) {
	if err := requireRole(actor, models.RoleResident); err != nil {
		return nil, err
	}
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "photo uploads are disabled")
	}
	req.ContentType = strings.TrimSpace(req.ContentType)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload payload")
	}
	if err := s.signer.ValidatePhoto(req.ContentType, req.FileSize); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	upload, err := s.signer.PresignPhoto(ctx, actor.UserID, req.ContentType, req.FileSize)
	if err != nil {
		s.logger.Error("presign photo failed", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare upload")
	}
	return upload, nil
}
