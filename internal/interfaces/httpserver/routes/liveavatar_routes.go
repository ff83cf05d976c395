package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voice-gateway/internal/config"
	"voice-gateway/internal/domain/avatar"
	"voice-gateway/internal/interfaces/httpserver/handlers"
	"voice-gateway/internal/interfaces/httpserver/requests"
	"voice-gateway/internal/interfaces/httpserver/responses"
	"voice-gateway/internal/utils/platformerrors"
)

// RegisterLiveAvatarRoutes registers the raw provider session routes. The
// status route sits outside the feature gate so clients can probe
// availability before attempting a session.
func RegisterLiveAvatarRoutes(router gin.IRouter, gate gin.HandlerFunc, cfg *config.Config, handler *handlers.LiveAvatarHandler) {
	group := router.Group("/liveavatar")
	group.GET("/status", providerStatus(cfg))

	gated := group.Group("")
	gated.Use(gate)
	gated.POST("/session/token", issueSessionToken(handler))
	gated.POST("/speak", speak(handler))
	gated.POST("/interrupt", interruptSession(handler))
}

// issueSessionToken godoc
// @Summary      Issue a raw provider session token
// @Description  Issues a session token pair directly from the avatar provider, served from the pre-warm pool when the request matches pool defaults. The caller owns the session lifecycle.
// @Tags         LiveAvatar
// @Accept       json
// @Produce      json
// @Param        request body requests.SessionTokenRequest false "Token request"
// @Success      200 {object} responses.SessionTokenResponse
// @Failure      502 {object} responses.ErrorResponse
// @Router       /liveavatar/session/token [post]
func issueSessionToken(handler *handlers.LiveAvatarHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.SessionTokenRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body")
				return
			}
		}

		sess, err := handler.IssueToken(c.Request.Context(), avatar.CreateParams{
			Mode:     req.Mode,
			AvatarID: req.AvatarID,
			Persona:  req.AvatarPersona,
			Sandbox:  req.IsSandbox,
		})
		if err != nil {
			responses.HandleError(c, err, "failed to issue session token")
			return
		}

		c.JSON(http.StatusOK, responses.SessionTokenResponse{
			SessionToken: sess.SessionToken,
			SessionID:    sess.SessionID,
		})
	}
}

// speak godoc
// @Summary      Dispatch a speak task on a raw session
// @Description  Sends text for the avatar to speak. Best-effort: a failed dispatch yields a null task_id, never an error status.
// @Tags         LiveAvatar
// @Accept       json
// @Produce      json
// @Param        request body requests.SpeakRequest true "Speak request"
// @Success      200 {object} responses.SpeakResponse
// @Failure      400 {object} responses.ErrorResponse
// @Router       /liveavatar/speak [post]
func speak(handler *handlers.LiveAvatarHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.SpeakRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "session_id is required")
			return
		}

		result := handler.Speak(c.Request.Context(), req.SessionID, req.Text, req.TaskType)
		c.JSON(http.StatusOK, responses.SpeakResponse{
			TaskID: result.TaskID,
			Error:  result.Error,
		})
	}
}

// interruptSession godoc
// @Summary      Interrupt a raw session
// @Description  Cuts off current avatar speech on the session. Failure is benign and reported as success=false.
// @Tags         LiveAvatar
// @Accept       json
// @Produce      json
// @Param        request body requests.InterruptRequest true "Interrupt request"
// @Success      200 {object} responses.SuccessResponse
// @Failure      400 {object} responses.ErrorResponse
// @Router       /liveavatar/interrupt [post]
func interruptSession(handler *handlers.LiveAvatarHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.InterruptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "session_id is required")
			return
		}

		result := handler.Interrupt(c.Request.Context(), req.SessionID)
		c.JSON(http.StatusOK, responses.SuccessResponse{
			Success: result.Success,
			Error:   result.Error,
		})
	}
}

// providerStatus godoc
// @Summary      Avatar provider availability
// @Description  Reports whether the avatar provider credentials are configured and which avatar is the default.
// @Tags         LiveAvatar
// @Produce      json
// @Success      200 {object} responses.ProviderStatusResponse
// @Router       /liveavatar/status [get]
func providerStatus(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "available"
		if !cfg.AvatarEnabled() {
			status = "not_configured"
		}
		c.JSON(http.StatusOK, responses.ProviderStatusResponse{
			Status:          status,
			DefaultAvatarID: cfg.DefaultAvatarID,
		})
	}
}
