package models

import "time"

// StatusCount is one row of a GROUP BY status query.
type StatusCount struct {
	Status ReportStatus `db:"status"`
	Count  int          `db:"count"`
}

// StatusSnapshot is the status histogram and the daily creation counts read from one
// consistent snapshot. Total equals the sum of ByStatus.
type StatusSnapshot struct {
	Total    int
	ByStatus []StatusCount
	Daily    []DailyCount
}

// DailyCount is the number of reports created on Date (YYYY-MM-DD, UTC).
type DailyCount struct {
	Date  string `db:"day" json:"date"`
	Count int    `db:"count" json:"count"`
}

// DateRange is an inclusive UTC day range.
type DateRange struct {
	From time.Time
	To   time.Time
}

// StatsSummary aggregates report counts for the dashboard.
type StatsSummary struct {
	Total     int                  `json:"total"`
	PerStatus map[ReportStatus]int `json:"perStatus"`
	PerDay    []DailyCount         `json:"perDay"`
	From      string               `json:"from"`
	To        string               `json:"to"`
}

// DurationRow carries the lifecycle timestamps used by duration analytics.
type DurationRow struct {
	ID         string       `db:"id" json:"id"`
	Title      string       `db:"title" json:"title"`
	Status     ReportStatus `db:"status" json:"status"`
	CreatedAt  time.Time    `db:"created_at" json:"createdAt"`
	ReceivedAt *time.Time   `db:"received_at" json:"receivedAt,omitempty"`
	StartedAt  *time.Time   `db:"started_at" json:"startedAt,omitempty"`
	ResolvedAt *time.Time   `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// TechnicianSummary counts a technician's reports irrespective of list filters.
type TechnicianSummary struct {
	Active   int `db:"active" json:"active"`
	Done     int `db:"done" json:"done"`
	Rejected int `db:"rejected" json:"rejected"`
}
