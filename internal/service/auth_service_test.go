package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/facility-report-api/internal/models"
	"github.com/noah-isme/facility-report-api/internal/repository"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

type mockAuthRepo struct {
	users     map[string]*models.User
	createErr error
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	repo := &mockAuthRepo{users: map[string]*models.User{}}
	for _, u := range users {
		repo.users[u.Email] = u
	}
	return repo
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.users[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	user.ID = "u-new"
	m.users[user.Email] = user
	return nil
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "test"})
}

func hashed(t *testing.T, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRegisterCreatesResident(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	room := "B-7"
	info, err := svc.Register(context.Background(), models.RegisterRequest{FullName: " Rina ", Email: "Rina@Example.com", Password: "secret1", RoomNumber: &room})
	require.NoError(t, err)
	assert.Equal(t, models.RoleResident, info.Role)
	assert.Equal(t, "rina@example.com", info.Email)
	assert.Equal(t, "Rina", info.FullName)

	stored := repo.users["rina@example.com"]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u-1", Email: "rina@example.com"})
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{FullName: "Rina", Email: "rina@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict.Code))
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(newMockAuthRepo())

	_, err := svc.Register(context.Background(), models.RegisterRequest{FullName: "R", Email: "not-an-email", Password: "123"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
}

func TestLoginIssuesValidToken(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "staff-1", Email: "staff@example.com", FullName: "Sari", Role: models.RoleStaff, PasswordHash: hashed(t, "pass123")})
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@example.com", Password: "pass123"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "staff-1", Email: "staff@example.com", Role: models.RoleStaff, PasswordHash: hashed(t, "pass123")})
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@example.com", Password: "nope"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials.Code))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "nope"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials.Code))
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u-1", Email: "a@example.com", Role: models.RoleResident, PasswordHash: hashed(t, "pass123")})
	issuer := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "other", AccessTokenExpiry: time.Hour})
	resp, err := issuer.Login(context.Background(), models.LoginRequest{Email: "a@example.com", Password: "pass123"})
	require.NoError(t, err)

	_, err = newAuthService(repo).ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized.Code))
}
