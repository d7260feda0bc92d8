package models

import "time"

// ReportStatus captures lifecycle states of a maintenance report.
type ReportStatus string

const (
	ReportStatusNew        ReportStatus = "NEW"
	ReportStatusReceived   ReportStatus = "DIPROSES"
	ReportStatusInProgress ReportStatus = "DIKERJAKAN"
	ReportStatusDone       ReportStatus = "SELESAI"
	ReportStatusRejected   ReportStatus = "DITOLAK"
)

// ReportStatuses lists every status in lifecycle order.
var ReportStatuses = []ReportStatus{
	ReportStatusNew,
	ReportStatusReceived,
	ReportStatusInProgress,
	ReportStatusDone,
	ReportStatusRejected,
}

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	for _, known := range ReportStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusDone || s == ReportStatusRejected
}

// ReportCategory classifies the facility affected.
type ReportCategory string

const (
	CategoryWater          ReportCategory = "WATER"
	CategoryElectricity    ReportCategory = "ELECTRICITY"
	CategoryNetwork        ReportCategory = "NETWORK"
	CategoryCleanliness    ReportCategory = "CLEANLINESS"
	CategoryPublicFacility ReportCategory = "PUBLIC_FACILITY"
	CategoryOther          ReportCategory = "OTHER"
)

// Valid reports whether c is a known category.
func (c ReportCategory) Valid() bool {
	switch c {
	case CategoryWater, CategoryElectricity, CategoryNetwork, CategoryCleanliness, CategoryPublicFacility, CategoryOther:
		return true
	}
	return false
}

// ReportPriority ranks urgency.
type ReportPriority string

const (
	PriorityLow    ReportPriority = "LOW"
	PriorityMedium ReportPriority = "MEDIUM"
	PriorityHigh   ReportPriority = "HIGH"
)

// Valid reports whether p is a known priority.
func (p ReportPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Report is a facility maintenance request. Rows are never deleted from the primary store.
type Report struct {
	ID                   string         `db:"id" json:"id"`
	ReporterID           string         `db:"reporter_id" json:"reporterId"`
	Category             ReportCategory `db:"category" json:"category"`
	Title                string         `db:"title" json:"title"`
	Description          string         `db:"description" json:"description"`
	PhotoURL             *string        `db:"photo_url" json:"photoUrl,omitempty"`
	Priority             ReportPriority `db:"priority" json:"priority"`
	Location             string         `db:"location" json:"location"`
	Status               ReportStatus   `db:"status" json:"status"`
	AssignedTechnicianID *string        `db:"assigned_technician_id" json:"assignedTechnicianId,omitempty"`
	CreatedAt            time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updatedAt"`
	ReceivedAt           *time.Time     `db:"received_at" json:"receivedAt,omitempty"`
	StartedAt            *time.Time     `db:"started_at" json:"startedAt,omitempty"`
	ResolvedAt           *time.Time     `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// ReportFilter captures listing criteria. All set fields are ANDed.
type ReportFilter struct {
	Statuses     []ReportStatus
	Category     *ReportCategory
	Priority     *ReportPriority
	ReporterID   *string
	TechnicianID *string
	Page         int
	Limit        int
}

// ReportTransition describes one guarded status change. The update applies only while the
// report's current status is in From (and, when set, the assignee constraint holds).
type ReportTransition struct {
	ReportID string
	From     []ReportStatus
	// To is nil when the status stays unchanged (plain assignment).
	To *ReportStatus

	RequireAssigneeID *string
	RequireAssigned   bool
	SetTechnicianID   *string

	StampReceived bool
	StampStarted  bool
	StampResolved bool

	At    time.Time
	Event ReportEvent
}
