//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"voice-gateway/internal/config"
	"voice-gateway/internal/domain/avatar"
	"voice-gateway/internal/domain/orchestrator"
	"voice-gateway/internal/domain/token"
	"voice-gateway/internal/infrastructure/auth"
	"voice-gateway/internal/infrastructure/heygen"
	"voice-gateway/internal/infrastructure/livekit"
	"voice-gateway/internal/infrastructure/openai"
	"voice-gateway/internal/infrastructure/store"
	"voice-gateway/internal/interfaces/httpserver"
	"voice-gateway/internal/interfaces/httpserver/handlers"
)

// ProviderSet is the wire provider set for the application.
var ProviderSet = wire.NewSet(
	// Infrastructure providers
	openai.NewClient,
	ProvideTokenCache,
	ProvideAvatarProvider,
	ProvideSessionStore,
	ProvideSessionPool,
	ProvideSweeper,
	ProvideTokenGenerator,
	ProvideRoomClient,
	ProvideAuthValidator,

	// Domain providers
	ProvideAvatarService,
	ProvideOrchestratorService,

	// Interface providers
	handlers.HandlerProvider,
	httpserver.New,

	// Application
	NewApplication,
)

// ProvideTokenCache provides the speech-API credential cache.
func ProvideTokenCache(client *openai.Client, cfg *config.Config, log zerolog.Logger) *token.Cache {
	return token.NewCache(client, cfg.TokenRefreshMargin, log)
}

// ProvideAvatarProvider provides the streaming-avatar provider client.
func ProvideAvatarProvider(cfg *config.Config, log zerolog.Logger) avatar.Provider {
	return heygen.NewClient(cfg, log)
}

// ProvideSessionStore provides the avatar session store.
func ProvideSessionStore(log zerolog.Logger) avatar.Store {
	return store.NewMemoryStore(log)
}

// ProvideSessionPool provides the pre-warm session pool.
func ProvideSessionPool(provider avatar.Provider, cfg *config.Config, log zerolog.Logger) *avatar.Pool {
	return avatar.NewPool(provider, poolDefaults(cfg), cfg.PoolSize, cfg.PoolEntryTTL, log)
}

// ProvideSweeper provides the stale session sweeper.
func ProvideSweeper(sessionStore avatar.Store, cfg *config.Config, log zerolog.Logger) *store.Sweeper {
	return store.NewSweeper(sessionStore, cfg.SessionStaleTTL, cfg.SessionSweepInterval, log)
}

// ProvideTokenGenerator provides a media-routing token generator.
func ProvideTokenGenerator(cfg *config.Config) orchestrator.TokenGenerator {
	return livekit.NewTokenGenerator(cfg)
}

// ProvideRoomClient provides a media-routing room client.
func ProvideRoomClient(cfg *config.Config) orchestrator.RoomClient {
	return livekit.NewRoomClient(cfg)
}

// ProvideAuthValidator provides an auth validator.
func ProvideAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

// ProvideAvatarService provides the avatar session service.
func ProvideAvatarService(
	sessionStore avatar.Store,
	provider avatar.Provider,
	pool *avatar.Pool,
	cfg *config.Config,
	log zerolog.Logger,
) avatar.Service {
	return avatar.NewService(sessionStore, provider, pool, poolDefaults(cfg), cfg.MaxConcurrentSessions, log)
}

// ProvideOrchestratorService provides the room orchestrator service.
func ProvideOrchestratorService(
	rooms orchestrator.RoomClient,
	tokens orchestrator.TokenGenerator,
	cfg *config.Config,
	log zerolog.Logger,
) orchestrator.Service {
	return orchestrator.NewService(rooms, tokens, cfg.LiveKitWsURL, cfg.LiveKitTokenTTL, log)
}

func poolDefaults(cfg *config.Config) avatar.CreateParams {
	return avatar.CreateParams{
		AvatarID: cfg.DefaultAvatarID,
		VoiceID:  cfg.DefaultVoiceID,
		Language: cfg.DefaultLanguage,
		Mode:     avatar.ModeFull,
	}
}

// CreateApplication creates the application with all dependencies wired.
func CreateApplication(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
) (*Application, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
