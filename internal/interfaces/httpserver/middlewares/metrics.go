package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"voice-gateway/internal/infrastructure/metrics"
)

// Metrics records per-request duration labeled by method, matched route and
// status. Unmatched routes are grouped under a single label to keep
// cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
