package dto

import "github.com/noah-isme/facility-report-api/internal/models"

// TaskTab selects a technician's task bucket.
type TaskTab string

const (
	TaskTabActive TaskTab = "ACTIVE"
	TaskTabDone   TaskTab = "DONE"
)

// TaskQuery captures GET /technician/tasks query parameters.
type TaskQuery struct {
	Mode     string `form:"mode"`
	Tab      string `form:"tab"`
	Status   string `form:"status"`
	Category string `form:"category"`
	Priority string `form:"priority"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

// TaskPage lists a technician's tasks with a summary that ignores list filters.
type TaskPage struct {
	Tab        TaskTab                  `json:"tab"`
	Items      []models.Report          `json:"items"`
	Summary    models.TechnicianSummary `json:"summary"`
	Pagination *models.Pagination       `json:"-"`
}
