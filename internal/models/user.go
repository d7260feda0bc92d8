package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleResident   UserRole = "RESIDENT"
	RoleStaff      UserRole = "STAFF"
	RoleTechnician UserRole = "TECHNICIAN"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleResident, RoleStaff, RoleTechnician:
		return true
	}
	return false
}

// User represents an application user stored in the users table. Residents file reports,
// staff triage them and technicians work on them.
type User struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"fullName"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	RoomNumber   *string   `db:"room_number" json:"roomNumber,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Technician is the public projection of a technician account.
type Technician struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"fullName"`
	Email    string `db:"email" json:"email"`
}
