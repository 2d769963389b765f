package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pchs-registration-api/internal/service"
)

// Metrics records request latency and status per route template.
// Requests that match no route share one label so signed photo tokens never become labels.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, duration)
	}
}
