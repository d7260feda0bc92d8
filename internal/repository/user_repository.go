package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/facility-report-api/internal/models"
)

// ErrDuplicateEmail is returned when the unique email constraint rejects an insert.
var ErrDuplicateEmail = errors.New("email already registered")

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

// isMalformedID reports whether Postgres refused a lookup key that is not a valid uuid.
// Such a key cannot name any row, so lookups treat it as not found.
func isMalformedID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == invalidTextRepresentation
}

const userColumns = `id, full_name, email, password_hash, role, room_number, created_at, updated_at`

// UserRepository provides database access for residents, staff and technicians.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address. Emails are stored lower-cased.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, strings.ToLower(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ListTechnicians returns technician accounts ordered by name.
func (r *UserRepository) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	const query = `SELECT id, full_name, email FROM users WHERE role = $1 ORDER BY full_name ASC, id ASC`
	technicians := make([]models.Technician, 0)
	if err := r.db.SelectContext(ctx, &technicians, query, models.RoleTechnician); err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	return technicians, nil
}

// Create inserts a new user. A duplicate email yields ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = strings.ToLower(user.Email)

	const query = `INSERT INTO users (id, full_name, email, password_hash, role, room_number, created_at, updated_at) VALUES (:id, :full_name, :email, :password_hash, :role, :room_number, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
