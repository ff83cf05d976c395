package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-gateway/internal/interfaces/httpserver/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	engine := gin.New()
	engine.Use(middlewares.RequestID())
	engine.GET("/x", func(c *gin.Context) {
		assert.NotEmpty(t, middlewares.GetRequestID(c))
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDPropagatesIncoming(t *testing.T) {
	engine := gin.New()
	engine.Use(middlewares.RequestID())
	engine.GET("/x", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestRequireFeatureBlocksWhenDisabled(t *testing.T) {
	engine := gin.New()
	group := engine.Group("/gated")
	group.Use(middlewares.RequireFeature(func() bool { return false }, "set THE_KEY"))
	group.GET("/x", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gated/x", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "set THE_KEY")
	assert.Contains(t, rec.Body.String(), "configuration_error")
}

func TestRequireFeaturePassesWhenEnabled(t *testing.T) {
	engine := gin.New()
	engine.Use(middlewares.RequireFeature(func() bool { return true }, "unused"))
	engine.GET("/x", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	engine := gin.New()
	engine.Use(middlewares.CORS())
	engine.POST("/x", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/x", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
