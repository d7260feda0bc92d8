package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/facility-report-api/internal/middleware"
	"github.com/noah-isme/facility-report-api/internal/models"
	"github.com/noah-isme/facility-report-api/internal/service"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
	"github.com/noah-isme/facility-report-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// respondRouted writes a 200 envelope carrying the consistency metadata of route.
func respondRouted(c *gin.Context, data interface{}, pagination *models.Pagination, route service.Route) {
	middleware.AddMeta(c, route.Meta())
	response.JSON(c, http.StatusOK, data, pagination, middleware.ExtractMeta(c))
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body as the zero payload.
func bindOptionalJSON(c *gin.Context, dest interface{}, message string) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, dest, message)
}

func bindQuery(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return false
	}
	return true
}
