package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voice-gateway/internal/config"
	"voice-gateway/internal/interfaces/httpserver/handlers"
	"voice-gateway/internal/interfaces/httpserver/requests"
	"voice-gateway/internal/interfaces/httpserver/responses"
	"voice-gateway/internal/utils/platformerrors"
)

// RegisterOrchestratedRoutes registers the orchestrated room session routes.
// The status route sits outside the feature gate.
func RegisterOrchestratedRoutes(router gin.IRouter, gate gin.HandlerFunc, cfg *config.Config, handler *handlers.OrchestratorHandler) {
	group := router.Group("/orchestrated")
	group.GET("/status", orchestratedStatus(cfg, handler))

	gated := group.Group("/session")
	gated.Use(gate)
	gated.POST("/start", startOrchestratedSession(handler))
	gated.POST("/stop", stopOrchestratedSession(handler))
}

// startOrchestratedSession godoc
// @Summary      Start an orchestrated session
// @Description  Creates a media-routing room (generating a name when absent) and mints a scoped participant token. The AI worker joins on its own when it observes the room.
// @Tags         Orchestrated
// @Accept       json
// @Produce      json
// @Param        request body requests.OrchestratedStartRequest false "Start request"
// @Success      200 {object} responses.OrchestratedSessionResponse
// @Failure      502 {object} responses.ErrorResponse
// @Router       /orchestrated/session/start [post]
func startOrchestratedSession(handler *handlers.OrchestratorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.OrchestratedStartRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body")
				return
			}
		}

		sess, err := handler.StartSession(c.Request.Context(), req.RoomName)
		if err != nil {
			responses.HandleError(c, err, "failed to start orchestrated session")
			return
		}

		c.JSON(http.StatusOK, responses.OrchestratedSessionResponse{
			URL:       sess.URL,
			RoomName:  sess.RoomName,
			UserToken: sess.UserToken,
		})
	}
}

// stopOrchestratedSession godoc
// @Summary      Stop an orchestrated session
// @Description  Deletes the named room. Succeeds even when deletion fails upstream: rooms auto-expire when empty.
// @Tags         Orchestrated
// @Accept       json
// @Produce      json
// @Param        request body requests.OrchestratedStopRequest false "Stop request"
// @Success      200 {object} responses.SuccessResponse
// @Router       /orchestrated/session/stop [post]
func stopOrchestratedSession(handler *handlers.OrchestratorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.OrchestratedStopRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body")
				return
			}
		}

		handler.StopSession(c.Request.Context(), req.RoomName)
		c.JSON(http.StatusOK, responses.SuccessResponse{Success: true})
	}
}

// orchestratedStatus godoc
// @Summary      Orchestrated mode availability
// @Description  Reports whether orchestrated sessions can be started with the current configuration, and the number of rooms currently live on the routing service.
// @Tags         Orchestrated
// @Produce      json
// @Success      200 {object} responses.OrchestratedStatusResponse
// @Router       /orchestrated/status [get]
func orchestratedStatus(cfg *config.Config, handler *handlers.OrchestratorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		configured := cfg.LiveKitConfigured()
		resp := responses.OrchestratedStatusResponse{
			Available:         configured,
			LiveKitConfigured: configured,
			DefaultAvatarID:   cfg.DefaultAvatarID,
		}
		if configured && handler != nil {
			// Listing failure degrades the response, never the status probe.
			if count, err := handler.ActiveRoomCount(c.Request.Context()); err == nil {
				resp.ActiveRooms = &count
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
