package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voice-gateway/internal/domain/avatar"
	"voice-gateway/internal/interfaces/httpserver/handlers"
	"voice-gateway/internal/interfaces/httpserver/requests"
	"voice-gateway/internal/interfaces/httpserver/responses"
	"voice-gateway/internal/utils/platformerrors"
)

// RegisterAvatarRoutes registers the client-keyed avatar session routes.
func RegisterAvatarRoutes(router gin.IRouter, handler *handlers.AvatarHandler) {
	router.POST("/session", createAvatarSession(handler))
	router.POST("/stream", streamText(handler))
	router.POST("/interrupt", interruptAvatar(handler))
	router.POST("/stop", stopAvatarSession(handler))
	router.GET("/stats", avatarStats(handler))
}

// createAvatarSession godoc
// @Summary      Create or reuse an avatar session for a client
// @Description  Returns the client's existing session when one is still creating or active, otherwise establishes a new provider session and returns its media-routing connection info.
// @Tags         Avatar
// @Accept       json
// @Produce      json
// @Param        request body requests.AvatarSessionRequest true "Session request"
// @Success      200 {object} responses.AvatarSessionResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      502 {object} responses.ErrorResponse
// @Router       /heygen/session [post]
func createAvatarSession(handler *handlers.AvatarHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.AvatarSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "clientId is required")
			return
		}

		info, err := handler.CreateSession(c.Request.Context(), req.ClientID, avatar.CreateParams{
			AvatarID: req.AvatarID,
			VoiceID:  req.VoiceID,
		})
		if err != nil {
			responses.HandleError(c, err, "failed to create avatar session")
			return
		}

		c.JSON(http.StatusOK, responses.NewAvatarSessionResponse(info))
	}
}

// streamText godoc
// @Summary      Send text for the avatar to speak
// @Description  Dispatches a speak task. Delivery is best-effort: a failed dispatch yields a null taskId with the upstream error, never an error status.
// @Tags         Avatar
// @Accept       json
// @Produce      json
// @Param        request body requests.AvatarStreamRequest true "Stream request"
// @Success      200 {object} responses.TaskResponse
// @Failure      400 {object} responses.ErrorResponse
// @Router       /heygen/stream [post]
func streamText(handler *handlers.AvatarHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.AvatarStreamRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "sessionId is required")
			return
		}

		result := handler.SendText(c.Request.Context(), req.SessionID, req.Text, req.TaskType)
		c.JSON(http.StatusOK, responses.TaskResponse{
			TaskID: result.TaskID,
			Error:  result.Error,
		})
	}
}

// interruptAvatar godoc
// @Summary      Interrupt current avatar speech
// @Description  Cuts off whatever the avatar is saying. Interrupting an idle avatar fails benignly with success=false.
// @Tags         Avatar
// @Accept       json
// @Produce      json
// @Param        request body requests.AvatarInterruptRequest true "Interrupt request"
// @Success      200 {object} responses.SuccessResponse
// @Failure      400 {object} responses.ErrorResponse
// @Router       /heygen/interrupt [post]
func interruptAvatar(handler *handlers.AvatarHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.AvatarInterruptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "sessionId is required")
			return
		}

		result := handler.Interrupt(c.Request.Context(), req.SessionID)
		c.JSON(http.StatusOK, responses.SuccessResponse{
			Success: result.Success,
			Error:   result.Error,
		})
	}
}

// stopAvatarSession godoc
// @Summary      Stop an avatar session
// @Description  Ends the session identified by sessionId or clientId and removes its record. Idempotent: stopping an unknown session still succeeds.
// @Tags         Avatar
// @Accept       json
// @Produce      json
// @Param        request body requests.AvatarStopRequest true "Stop request"
// @Success      200 {object} responses.SuccessResponse
// @Failure      400 {object} responses.ErrorResponse
// @Router       /heygen/stop [post]
func stopAvatarSession(handler *handlers.AvatarHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.AvatarStopRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body")
			return
		}
		if req.SessionID == "" && req.ClientID == "" {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "sessionId or clientId is required")
			return
		}

		handler.Stop(c.Request.Context(), req.SessionID, req.ClientID)
		c.JSON(http.StatusOK, responses.SuccessResponse{Success: true})
	}
}

// avatarStats godoc
// @Summary      Avatar session statistics
// @Description  Reports session counts by status and quota headroom against the provider plan.
// @Tags         Avatar
// @Produce      json
// @Success      200 {object} responses.AvatarStatsResponse
// @Router       /heygen/stats [get]
func avatarStats(handler *handlers.AvatarHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, quota := handler.Stats(c.Request.Context())
		c.JSON(http.StatusOK, responses.NewAvatarStatsResponse(stats, quota))
	}
}
