package responses

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"voice-gateway/internal/utils/platformerrors"
)

// HandleError handles errors and writes appropriate HTTP responses.
// Platform errors are mapped by type; anything else is an internal error.
func HandleError(c *gin.Context, err error, message string) {
	logger := log.With().Str("path", c.Request.URL.Path).Logger()
	if platformErr := platformerrors.GetPlatformError(err); platformErr == nil && message != "" {
		logger = logger.With().Str("context", message).Logger()
	}
	platformerrors.WriteError(c, err, logger)
}

// HandleNewError creates and writes a new typed error response.
// Use this for route-level errors like validation failures.
func HandleNewError(c *gin.Context, errorType platformerrors.ErrorType, message string) {
	status := platformerrors.ErrorTypeToHTTPStatus(errorType)
	c.JSON(status, platformerrors.HTTPErrorResponse{
		Error: &platformerrors.HTTPErrorDetail{
			Message: message,
			Type:    platformerrors.ErrorTypeToString(errorType),
		},
	})
}
