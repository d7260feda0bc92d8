package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/facility-report-api/internal/models"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

type validatorStub map[string]*models.JWTClaims

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newProtectedRouter(roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator := validatorStub{
		"staff-token":    {UserID: "staff-1", Role: models.RoleStaff},
		"resident-token": {UserID: "resident-1", Role: models.RoleResident},
	}
	router := gin.New()
	router.GET("/protected", JWT(validator), RequireRoles(roles...), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.String(http.StatusOK, claims.UserID)
	})
	return router
}

func TestJWTAcceptsHeaderAndCookie(t *testing.T) {
	router := newProtectedRouter(models.RoleStaff)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer staff-token")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "staff-1", rec.Body.String())

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "staff-token"})
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTRejectsMissingOrBadTokens(t *testing.T) {
	router := newProtectedRouter(models.RoleStaff)

	for _, header := range []string{"", "Token staff-token", "Bearer ", "Bearer nope"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestRequireRolesForbidsOtherRoles(t *testing.T) {
	router := newProtectedRouter(models.RoleStaff)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer resident-token")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestResponseMetaMerges(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	WithResponseMeta()(c)

	AddMeta(c, map[string]interface{}{"consistency": "weak"})
	AddMeta(c, map[string]interface{}{"source": "replica"})
	meta := ExtractMeta(c)
	assert.Equal(t, "weak", meta["consistency"])
	assert.Equal(t, "replica", meta["source"])
	assert.Contains(t, meta, "processingTimeMs")
}
