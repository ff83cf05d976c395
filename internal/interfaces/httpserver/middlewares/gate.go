package middlewares

import (
	"github.com/gin-gonic/gin"

	"voice-gateway/internal/utils/platformerrors"
)

// RequireFeature rejects requests with 503 when a feature's credentials are
// not configured. The hint names the environment variables to set so an
// operator can diagnose the gap from the response body alone.
func RequireFeature(enabled func() bool, hint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled() {
			platformerrors.WriteServiceUnavailable(c, hint)
			c.Abort()
			return
		}
		c.Next()
	}
}
