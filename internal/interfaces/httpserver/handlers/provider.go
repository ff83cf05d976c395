package handlers

import (
	"github.com/google/wire"

	"voice-gateway/internal/domain/avatar"
	"voice-gateway/internal/domain/orchestrator"
	"voice-gateway/internal/domain/token"
	"voice-gateway/internal/infrastructure/openai"
)

// Provider holds all HTTP handlers. Avatar, LiveAvatar and Orchestrator are
// nil when their feature's credentials are not configured; routes behind the
// feature gate are never reached in that case.
type Provider struct {
	Token        *TokenHandler
	Avatar       *AvatarHandler
	LiveAvatar   *LiveAvatarHandler
	Orchestrator *OrchestratorHandler
}

// NewProvider creates a new handler provider.
func NewProvider(
	cache *token.Cache,
	openaiClient *openai.Client,
	avatarService avatar.Service,
	avatarProvider avatar.Provider,
	orchestratorService orchestrator.Service,
) *Provider {
	p := &Provider{
		Token: NewTokenHandler(cache, openaiClient),
	}
	if avatarService != nil {
		p.Avatar = NewAvatarHandler(avatarService)
		p.LiveAvatar = NewLiveAvatarHandler(avatarService, avatarProvider)
	}
	if orchestratorService != nil {
		p.Orchestrator = NewOrchestratorHandler(orchestratorService)
	}
	return p
}

// HandlerProvider provides all handlers for wire.
var HandlerProvider = wire.NewSet(
	NewProvider,
)
