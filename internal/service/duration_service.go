package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/facility-report-api/internal/dto"
	"github.com/noah-isme/facility-report-api/internal/models"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
	"github.com/noah-isme/facility-report-api/pkg/export"
)

var durationExportHeaders = []string{
	"ID", "Title", "Status", "Created At", "Received At", "Started At", "Resolved At",
	"Response (min)", "Work (min)", "Total (min)",
}

// DurationExport is a rendered duration report ready to be served as a file.
type DurationExport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// DurationService measures how long reports spend in each lifecycle phase.
type DurationService struct {
	router   *ConsistencyRouter
	ranges   DateRangePolicy
	renderer *export.Renderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewDurationService constructs the analytics reader. A nil renderer disables exports.
func NewDurationService(router *ConsistencyRouter, ranges DateRangePolicy, renderer *export.Renderer, logger *zap.Logger) *DurationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DurationService{router: router, ranges: ranges, renderer: renderer, logger: logger, now: time.Now}
}

// Analyze summarises every report created in the range and returns one page of details.
func (s *DurationService) Analyze(ctx context.Context, query dto.DurationQuery) (*dto.DurationReport, Route, error) {
	dateRange, details, route, err := s.load(ctx, query)
	if err != nil {
		return nil, route, err
	}

	page, limit := models.NormalizePage(query.Page, query.Limit)
	start := models.PageOffset(page, limit)
	if start > len(details) {
		start = len(details)
	}
	end := start + limit
	if end > len(details) {
		end = len(details)
	}

	return &dto.DurationReport{
		Summary:    summarizeDurations(dateRange, details),
		Details:    details[start:end],
		Pagination: models.NewPagination(page, limit, len(details)),
	}, route, nil
}

// Export renders every detail row of the range in the requested format.
func (s *DurationService) Export(ctx context.Context, query dto.DurationQuery) (*DurationExport, Route, error) {
	if s.renderer == nil {
		return nil, Route{}, appErrors.Clone(appErrors.ErrUnavailable, "exports are disabled")
	}
	format, err := export.ParseFormat(query.Format)
	if err != nil {
		return nil, Route{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv, pdf or xlsx")
	}
	dateRange, details, route, err := s.load(ctx, query)
	if err != nil {
		return nil, route, err
	}

	dataset := export.NewDataset(durationExportHeaders...)
	for _, d := range details {
		if err := dataset.Append(
			d.ID,
			d.Title,
			string(d.Status),
			d.CreatedAt.UTC().Format(time.RFC3339),
			formatOptionalTime(d.ReceivedAt),
			formatOptionalTime(d.StartedAt),
			formatOptionalTime(d.ResolvedAt),
			formatOptionalMinutes(d.ResponseMinutes),
			formatOptionalMinutes(d.WorkMinutes),
			formatOptionalMinutes(d.TotalMinutes),
		); err != nil {
			return nil, route, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build export")
		}
	}

	from, to := dateRange.From.Format(dayLayout), dateRange.To.Format(dayLayout)
	body, err := s.renderer.Render(format, dataset, fmt.Sprintf("Report durations %s to %s", from, to))
	if err != nil {
		s.logger.Error("render duration export failed", zap.String("format", string(format)), zap.Error(err))
		return nil, route, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &DurationExport{
		Filename:    fmt.Sprintf("durations_%s_%s.%s", from, to, format),
		ContentType: format.ContentType(),
		Body:        body,
	}, route, nil
}

func (s *DurationService) load(ctx context.Context, query dto.DurationQuery) (models.DateRange, []dto.DurationDetail, Route, error) {
	mode, err := ParseConsistencyMode(query.Mode, ModeStrong)
	if err != nil {
		return models.DateRange{}, nil, Route{}, err
	}
	dateRange, err := s.ranges.Resolve(query.From, query.To, s.now())
	if err != nil {
		return models.DateRange{}, nil, Route{}, err
	}
	route, err := s.router.ForStats(ctx, mode)
	if err != nil {
		return models.DateRange{}, nil, Route{}, err
	}

	rows, err := route.Reader.DurationRows(ctx, dateRange.From, exclusiveEnd(dateRange))
	if err != nil {
		s.logger.Error("load duration rows failed", zap.String("source", string(route.Source)), zap.Error(err))
		return models.DateRange{}, nil, route, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load durations")
	}

	details := make([]dto.DurationDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, dto.DurationDetail{
			DurationRow:     row,
			ResponseMinutes: minutesBetween(&row.CreatedAt, row.ReceivedAt),
			WorkMinutes:     minutesBetween(row.StartedAt, row.ResolvedAt),
			TotalMinutes:    minutesBetween(&row.CreatedAt, row.ResolvedAt),
		})
	}
	return dateRange, details, route, nil
}

func summarizeDurations(dateRange models.DateRange, details []dto.DurationDetail) dto.DurationSummary {
	summary := dto.DurationSummary{
		Range: dto.DurationRange{From: dateRange.From.Format(dayLayout), To: dateRange.To.Format(dayLayout)},
		Total: len(details),
	}
	var response, work, total durationMean
	for _, d := range details {
		switch d.Status {
		case models.ReportStatusDone:
			summary.Finished++
		case models.ReportStatusRejected:
			summary.Rejected++
		case models.ReportStatusReceived:
			summary.Received++
		case models.ReportStatusInProgress:
			summary.InProgress++
		}
		response.add(&d.CreatedAt, d.ReceivedAt)
		work.add(d.StartedAt, d.ResolvedAt)
		total.add(&d.CreatedAt, d.ResolvedAt)
	}

	summary.AvgResponseMs, summary.AvgResponseMin = response.result()
	summary.AvgWorkMs, summary.AvgWorkMin = work.result()
	summary.AvgTotalMs, summary.AvgTotalMin = total.result()
	return summary
}

type durationMean struct {
	sum   time.Duration
	count int
}

func (m *durationMean) add(from, to *time.Time) {
	d, ok := phase(from, to)
	if !ok {
		return
	}
	m.sum += d
	m.count++
}

func (m durationMean) result() (ms int64, minutes int64) {
	if m.count == 0 {
		return 0, 0
	}
	mean := m.sum / time.Duration(m.count)
	return mean.Milliseconds(), int64(math.Round(mean.Minutes()))
}

// phase is the clamped non-negative span between two lifecycle stamps, if both exist.
func phase(from, to *time.Time) (time.Duration, bool) {
	if from == nil || to == nil {
		return 0, false
	}
	d := to.Sub(*from)
	if d < 0 {
		d = 0
	}
	return d, true
}

func minutesBetween(from, to *time.Time) *int64 {
	d, ok := phase(from, to)
	if !ok {
		return nil
	}
	minutes := int64(math.Round(d.Minutes()))
	return &minutes
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalMinutes(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
