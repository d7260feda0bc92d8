package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/facility-report-api/internal/service"
)

// UnmatchedRoute labels requests that matched no registered route. Raw URLs are never used
// as labels, so requests for random paths or malformed report ids cannot grow the series count.
const UnmatchedRoute = "unmatched"

// Metrics records one latency observation per request, labelled by route template
// (for example /api/v1/reports/:id/receive) rather than by concrete path.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = UnmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
