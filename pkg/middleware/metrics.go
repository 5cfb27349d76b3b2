package middleware

import (
	"time"

	"memories/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func MetricsMiddleware(provider metrics.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		provider.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
