// Package routes wires the gateway's HTTP routes. All routes live at the
// root level to match the paths the mobile client ships with.
package routes

import (
	"github.com/gin-gonic/gin"

	"voice-gateway/internal/config"
	"voice-gateway/internal/infrastructure/auth"
	"voice-gateway/internal/interfaces/httpserver/handlers"
	"voice-gateway/internal/interfaces/httpserver/middlewares"
)

// Provider holds route configuration.
type Provider struct {
	cfg           *config.Config
	handlers      *handlers.Provider
	authValidator *auth.Validator
}

// NewProvider creates a new route provider.
func NewProvider(cfg *config.Config, handlerProvider *handlers.Provider, authValidator *auth.Validator) *Provider {
	return &Provider{
		cfg:           cfg,
		handlers:      handlerProvider,
		authValidator: authValidator,
	}
}

// Register registers all routes on the engine. Feature-gated groups answer
// 503 with a remediation hint when their credential set is absent; the status
// routes stay reachable so clients can probe availability.
func (p *Provider) Register(engine *gin.Engine) {
	root := engine.Group("")
	if p.authValidator != nil {
		root.Use(p.authValidator.Middleware())
	}

	RegisterTokenRoutes(root, p.handlers.Token)

	avatarGate := middlewares.RequireFeature(p.cfg.AvatarEnabled,
		"avatar provider not configured; set LIVEAVATAR_API_KEY or HEYGEN_API_KEY")

	heygen := root.Group("/heygen")
	heygen.Use(avatarGate)
	RegisterAvatarRoutes(heygen, p.handlers.Avatar)

	RegisterLiveAvatarRoutes(root, avatarGate, p.cfg, p.handlers.LiveAvatar)

	livekitGate := middlewares.RequireFeature(p.cfg.LiveKitConfigured,
		"media routing not configured; set LIVEKIT_WS_URL, LIVEKIT_API_KEY and LIVEKIT_API_SECRET")

	RegisterOrchestratedRoutes(root, livekitGate, p.cfg, p.handlers.Orchestrator)
}
