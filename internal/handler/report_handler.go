package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/facility-report-api/internal/dto"
	"github.com/noah-isme/facility-report-api/internal/models"
	"github.com/noah-isme/facility-report-api/internal/service"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
	"github.com/noah-isme/facility-report-api/pkg/response"
)

type reportLifecycle interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateReportRequest) (*models.Report, error)
	Receive(ctx context.Context, actor *models.JWTClaims, id string) (*models.Report, error)
	Reject(ctx context.Context, actor *models.JWTClaims, id string, req dto.RejectReportRequest) (*models.Report, error)
	Assign(ctx context.Context, actor *models.JWTClaims, id string, req dto.AssignReportRequest) (*models.Report, error)
	Start(ctx context.Context, actor *models.JWTClaims, id string) (*models.Report, error)
	Resolve(ctx context.Context, actor *models.JWTClaims, id string, req dto.ResolveReportRequest) (*models.Report, error)
	Events(ctx context.Context, actor *models.JWTClaims, id string) ([]models.ReportEvent, error)
}

type reportLister interface {
	List(ctx context.Context, actor *models.JWTClaims, query dto.ReportListQuery) (*dto.ReportPage, service.Route, error)
}

// ReportHandler exposes report lifecycle endpoints.
type ReportHandler struct {
	lifecycle reportLifecycle
	reports   reportLister
}

// NewReportHandler constructs handler.
func NewReportHandler(lifecycle reportLifecycle, reports reportLister) *ReportHandler {
	return &ReportHandler{lifecycle: lifecycle, reports: reports}
}

// Create godoc
// @Summary File a maintenance report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.CreateReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	var req dto.CreateReportRequest
	if !bindJSON(c, &req, "invalid report payload") {
		return
	}
	report, err := h.lifecycle.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// List godoc
// @Summary List reports
// @Description Residents see their own reports, staff see all of them. mode=weak reads the replica when configured.
// @Tags Reports
// @Produce json
// @Param mode query string false "strong | weak"
// @Param status query string false "Status filter, comma separated"
// @Param category query string false "Category filter"
// @Param priority query string false "Priority filter"
// @Param scope query string false "all | mine (staff only)"
// @Param page query int false "Page"
// @Param limit query int false "Page size (5-50)"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	var query dto.ReportListQuery
	if !bindQuery(c, &query) {
		return
	}
	page, route, err := h.reports.List(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondRouted(c, page.Items, page.Pagination, route)
}

// Events godoc
// @Summary Report audit trail
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/events [get]
func (h *ReportHandler) Events(c *gin.Context) {
	events, err := h.lifecycle.Events(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Receive godoc
// @Summary Acknowledge a new report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/receive [post]
func (h *ReportHandler) Receive(c *gin.Context) {
	report, err := h.lifecycle.Receive(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	h.respond(c, report, err)
}

// Reject godoc
// @Summary Reject a new report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.RejectReportRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/{id}/reject [post]
func (h *ReportHandler) Reject(c *gin.Context) {
	var req dto.RejectReportRequest
	if !bindOptionalJSON(c, &req, "invalid reject payload") {
		return
	}
	report, err := h.lifecycle.Reject(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	h.respond(c, report, err)
}

// Assign godoc
// @Summary Assign a technician
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.AssignReportRequest true "Assignment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/assign [post]
func (h *ReportHandler) Assign(c *gin.Context) {
	var req dto.AssignReportRequest
	if !bindJSON(c, &req, "invalid assignment payload") {
		return
	}
	report, err := h.lifecycle.Assign(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	h.respond(c, report, err)
}

// Start godoc
// @Summary Start work on an assigned report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/{id}/start [post]
func (h *ReportHandler) Start(c *gin.Context) {
	report, err := h.lifecycle.Start(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	h.respond(c, report, err)
}

// Resolve godoc
// @Summary Resolve a report in progress
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.ResolveReportRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/{id}/resolve [post]
func (h *ReportHandler) Resolve(c *gin.Context) {
	var req dto.ResolveReportRequest
	if !bindOptionalJSON(c, &req, "invalid resolve payload") {
		return
	}
	report, err := h.lifecycle.Resolve(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	h.respond(c, report, err)
}

func (h *ReportHandler) respond(c *gin.Context, report *models.Report, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	if report == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
