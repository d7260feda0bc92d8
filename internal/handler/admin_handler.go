package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/facility-report-api/internal/dto"
	"github.com/noah-isme/facility-report-api/internal/models"
	"github.com/noah-isme/facility-report-api/pkg/response"
	"github.com/noah-isme/facility-report-api/pkg/storage"
)

type replicaChecker interface {
	Check(ctx context.Context) (*models.ReplicaCheck, error)
}

type technicianDirectory interface {
	ListTechnicians(ctx context.Context) ([]models.Technician, error)
}

type photoPresigner interface {
	PresignPhoto(ctx context.Context, actor *models.JWTClaims, req dto.PhotoUploadRequest) (*storage.PhotoUpload, error)
}

// AdminHandler groups the small supporting endpoints around the report lifecycle.
type AdminHandler struct {
	replication replicaChecker
	users       technicianDirectory
	uploads     photoPresigner
}

// NewAdminHandler constructs handler.
func NewAdminHandler(replication replicaChecker, users technicianDirectory, uploads photoPresigner) *AdminHandler {
	return &AdminHandler{replication: replication, users: users, uploads: uploads}
}

// ReplicaCheck godoc
// @Summary Compare primary and replica
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/replica-check [get]
func (h *AdminHandler) ReplicaCheck(c *gin.Context) {
	check, err := h.replication.Check(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, check, nil)
}

// Technicians godoc
// @Summary List technicians
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /technicians [get]
func (h *AdminHandler) Technicians(c *gin.Context) {
	technicians, err := h.users.ListTechnicians(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, technicians, nil)
}

// PresignPhoto godoc
// @Summary Request a photo upload URL
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.PhotoUploadRequest true "Declared file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /uploads/photo [post]
func (h *AdminHandler) PresignPhoto(c *gin.Context) {
	var req dto.PhotoUploadRequest
	if !bindJSON(c, &req, "invalid upload payload") {
		return
	}
	upload, err := h.uploads.PresignPhoto(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, upload, nil)
}
