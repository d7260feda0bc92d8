package models

import "time"

// EventKind enumerates audit trail entries.
type EventKind string

const (
	EventReported      EventKind = "REPORTED"
	EventStatusChanged EventKind = "STATUS_CHANGED"
	EventAssigned      EventKind = "ASSIGNED"
)

// ReportEvent is an immutable audit record. Seq breaks ties between events sharing At.
type ReportEvent struct {
	ID         string        `db:"id" json:"id"`
	Seq        int64         `db:"seq" json:"seq"`
	ReportID   string        `db:"report_id" json:"reportId"`
	ActorID    string        `db:"actor_id" json:"actorId"`
	Kind       EventKind     `db:"kind" json:"kind"`
	FromStatus *ReportStatus `db:"from_status" json:"fromStatus,omitempty"`
	ToStatus   *ReportStatus `db:"to_status" json:"toStatus,omitempty"`
	Note       *string       `db:"note" json:"note,omitempty"`
	At         time.Time     `db:"at" json:"at"`
}
