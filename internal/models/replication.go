package models

import "time"

// ReplicaSnapshot is a consistent copy of the primary tables taken by the replication job.
type ReplicaSnapshot struct {
	Users   []User
	Reports []Report
	Events  []ReportEvent
}

// ReplicationState is the replica's record of its last successful mirror.
type ReplicationState struct {
	SyncedAt time.Time `db:"synced_at" json:"syncedAt"`
	Users    int       `db:"users" json:"users"`
	Reports  int       `db:"reports" json:"reports"`
	Events   int       `db:"events" json:"events"`
}

// ReplicationResult summarises one replication run.
type ReplicationResult struct {
	Users       int           `json:"users"`
	Reports     int           `json:"reports"`
	Events      int           `json:"events"`
	SyncedAt    time.Time     `json:"syncedAt"`
	Elapsed     time.Duration `json:"elapsed"`
	Invalidated int           `json:"invalidated"`
}

// ReplicaCheck compares primary and replica row counts.
type ReplicaCheck struct {
	ReplicaConfigured bool       `json:"replicaConfigured"`
	PrimaryReports    int        `json:"primaryReports"`
	ReplicaReports    *int       `json:"replicaReports,omitempty"`
	ReplicaSyncedAt   *time.Time `json:"replicaSyncedAt,omitempty"`
	InSync            bool       `json:"inSync"`
}
