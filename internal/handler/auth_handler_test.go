package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/facility-report-api/internal/models"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

type fakeAuth struct {
	loginErr error
}

func (f *fakeAuth) Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error) {
	if req.Email == "taken@example.com" {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	return &models.UserInfo{ID: "u-1", Email: req.Email, Role: models.RoleResident}, nil
}

func (f *fakeAuth) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.LoginResponse{AccessToken: "signed-token", ExpiresIn: 3600}, nil
}

func (f *fakeAuth) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	return &models.UserInfo{ID: userID}, nil
}

func TestAuthHandlerLoginSetsCookie(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{}, false)
	c, rec := newTestContext(http.MethodPost, "/auth/login", models.LoginRequest{Email: "a@example.com", Password: "secret1"}, nil)

	h.Login(c)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := rec.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(cookie, "token=signed-token"), cookie)
	assert.Contains(t, cookie, "HttpOnly")
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{loginErr: appErrors.ErrInvalidCredentials}, false)
	c, rec := newTestContext(http.MethodPost, "/auth/login", models.LoginRequest{Email: "a@example.com", Password: "wrong"}, nil)

	h.Login(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestAuthHandlerRegister(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{}, false)
	c, rec := newTestContext(http.MethodPost, "/auth/register", models.RegisterRequest{FullName: "Rani", Email: "rani@example.com", Password: "secret1"}, nil)
	h.Register(c)
	assert.Equal(t, http.StatusCreated, rec.Code)

	c, rec = newTestContext(http.MethodPost, "/auth/register", models.RegisterRequest{FullName: "Rani", Email: "taken@example.com", Password: "secret1"}, nil)
	h.Register(c)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthHandlerMeRequiresClaims(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{}, false)
	c, rec := newTestContext(http.MethodGet, "/auth/me", nil, nil)
	h.Me(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/auth/me", nil, &models.JWTClaims{UserID: "u-1"})
	h.Me(c)
	assert.Equal(t, http.StatusOK, rec.Code)
}
