package dto

import "github.com/noah-isme/facility-report-api/internal/models"

// CreateReportRequest captures POST /reports payload.
type CreateReportRequest struct {
	Category    models.ReportCategory `json:"category" validate:"required"`
	Title       string                `json:"title" validate:"required,min=3,max=150"`
	Description string                `json:"description" validate:"required,min=5,max=2000"`
	PhotoURL    *string               `json:"photoUrl" validate:"omitempty,url,max=500"`
	Priority    models.ReportPriority `json:"priority"`
	Location    string                `json:"location" validate:"max=120"`
}

// RejectReportRequest captures POST /reports/:id/reject payload.
type RejectReportRequest struct {
	Note *string `json:"note" validate:"omitempty,max=500"`
}

// ResolveReportRequest captures POST /reports/:id/resolve payload.
type ResolveReportRequest struct {
	Note *string `json:"note" validate:"omitempty,max=500"`
}

// AssignReportRequest captures POST /reports/:id/assign payload.
type AssignReportRequest struct {
	TechnicianID string `json:"technicianId" validate:"required"`
	Start        bool   `json:"start"`
}

// ReportListQuery captures GET /reports query parameters. Unknown enum values are ignored.
type ReportListQuery struct {
	Mode     string `form:"mode"`
	Status   string `form:"status"`
	Category string `form:"category"`
	Priority string `form:"priority"`
	Scope    string `form:"scope"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

// ReportPage is one page of reports.
type ReportPage struct {
	Items      []models.Report    `json:"items"`
	Pagination *models.Pagination `json:"-"`
}
