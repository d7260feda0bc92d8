package dto

import "github.com/noah-isme/facility-report-api/internal/models"

// DurationQuery captures GET /admin/durations query parameters.
type DurationQuery struct {
	Mode   string `form:"mode"`
	From   string `form:"from"`
	To     string `form:"to"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Format string `form:"format"`
}

// DurationRange echoes the resolved inclusive range.
type DurationRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DurationSummary aggregates lifecycle durations over a range.
type DurationSummary struct {
	Range          DurationRange `json:"range"`
	Total          int           `json:"total"`
	Finished       int           `json:"finished"`
	Rejected       int           `json:"rejected"`
	Received       int           `json:"received"`
	InProgress     int           `json:"inProgress"`
	AvgResponseMs  int64         `json:"avgResponseMs"`
	AvgWorkMs      int64         `json:"avgWorkMs"`
	AvgTotalMs     int64         `json:"avgTotalMs"`
	AvgResponseMin int64         `json:"avgResponseMin"`
	AvgWorkMin     int64         `json:"avgWorkMin"`
	AvgTotalMin    int64         `json:"avgTotalMin"`
}

// DurationDetail is one report with its per-phase durations in minutes. A nil duration means
// one of its endpoints has not happened yet.
type DurationDetail struct {
	models.DurationRow
	ResponseMinutes *int64 `json:"responseMinutes"`
	WorkMinutes     *int64 `json:"workMinutes"`
	TotalMinutes    *int64 `json:"totalMinutes"`
}

// DurationReport is the response of GET /admin/durations.
type DurationReport struct {
	Summary    DurationSummary    `json:"summary"`
	Details    []DurationDetail   `json:"details"`
	Pagination *models.Pagination `json:"-"`
}
