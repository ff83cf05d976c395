package routes

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"voice-gateway/internal/interfaces/httpserver/handlers"
	"voice-gateway/internal/interfaces/httpserver/responses"
	"voice-gateway/internal/utils/platformerrors"
)

// maxSDPBytes bounds the SDP offer body. Offers are a few KB in practice.
const maxSDPBytes = 1 << 20

// RegisterTokenRoutes registers the speech-API credential and call-setup routes.
func RegisterTokenRoutes(router gin.IRouter, handler *handlers.TokenHandler) {
	router.GET("/token", getToken(handler))
	router.POST("/session", createCall(handler))
}

// getToken godoc
// @Summary      Get an ephemeral speech-API credential
// @Description  Returns the cached credential, exchanging a fresh one when the cached value is within the refresh margin of expiry.
// @Tags         Speech API
// @Produce      json
// @Success      200 {object} responses.TokenResponse
// @Failure      502 {object} responses.ErrorResponse
// @Router       /token [get]
func getToken(handler *handlers.TokenHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret, err := handler.GetToken(c.Request.Context())
		if err != nil {
			responses.HandleError(c, err, "failed to get token")
			return
		}
		c.JSON(http.StatusOK, responses.NewTokenResponse(secret))
	}
}

// createCall godoc
// @Summary      Set up a realtime speech call
// @Description  Forwards the raw SDP offer to the speech API and returns the raw SDP answer. The body is opaque to the gateway.
// @Tags         Speech API
// @Accept       plain
// @Produce      plain
// @Success      200 {string} string "SDP answer"
// @Failure      400 {object} responses.ErrorResponse
// @Failure      502 {object} responses.ErrorResponse
// @Router       /session [post]
func createCall(handler *handlers.TokenHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		offer, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSDPBytes))
		if err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "failed to read request body")
			return
		}
		if len(offer) == 0 {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "empty SDP offer")
			return
		}

		answer, err := handler.ExchangeSDP(c.Request.Context(), offer)
		if err != nil {
			responses.HandleError(c, err, "call setup failed")
			return
		}

		c.Data(http.StatusOK, "application/sdp", answer)
	}
}
