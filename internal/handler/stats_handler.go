package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/facility-report-api/internal/dto"
	"github.com/noah-isme/facility-report-api/internal/models"
	"github.com/noah-isme/facility-report-api/internal/service"
	"github.com/noah-isme/facility-report-api/pkg/response"
)

type statsReader interface {
	Summary(ctx context.Context, query dto.StatsQuery) (*models.StatsSummary, service.Route, error)
}

type durationReader interface {
	Analyze(ctx context.Context, query dto.DurationQuery) (*dto.DurationReport, service.Route, error)
	Export(ctx context.Context, query dto.DurationQuery) (*service.DurationExport, service.Route, error)
}

// StatsHandler exposes dashboard statistics and duration analytics.
type StatsHandler struct {
	stats     statsReader
	durations durationReader
}

// NewStatsHandler constructs handler.
func NewStatsHandler(stats statsReader, durations durationReader) *StatsHandler {
	return &StatsHandler{stats: stats, durations: durations}
}

// Summary godoc
// @Summary Report statistics
// @Description Totals per status and reports created per day. Defaults to weak mode, which requires a replica.
// @Tags Statistics
// @Produce json
// @Param mode query string false "strong | weak"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /stats [get]
func (h *StatsHandler) Summary(c *gin.Context) {
	var query dto.StatsQuery
	if !bindQuery(c, &query) {
		return
	}
	summary, route, err := h.stats.Summary(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondRouted(c, summary, nil, route)
}

// Durations godoc
// @Summary Lifecycle duration analytics
// @Tags Statistics
// @Produce json
// @Param mode query string false "strong | weak"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/durations [get]
func (h *StatsHandler) Durations(c *gin.Context) {
	var query dto.DurationQuery
	if !bindQuery(c, &query) {
		return
	}
	report, route, err := h.durations.Analyze(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondRouted(c, report, report.Pagination, route)
}

// ExportDurations godoc
// @Summary Export duration details
// @Tags Statistics
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv | pdf | xlsx"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/durations/export [get]
func (h *StatsHandler) ExportDurations(c *gin.Context) {
	var query dto.DurationQuery
	if !bindQuery(c, &query) {
		return
	}
	file, _, err := h.durations.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.ContentType, file.Filename, file.Body)
}
