// @title           Voice Gateway
// @version         1.0
// @description     Orchestration gateway for a mobile voice assistant.
// @description     Brokers speech-API credentials, streaming-avatar sessions and media-routing rooms.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Optional JWT Bearer token

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"voice-gateway/internal/config"
	"voice-gateway/internal/domain/avatar"
	"voice-gateway/internal/domain/orchestrator"
	"voice-gateway/internal/domain/token"
	"voice-gateway/internal/infrastructure/auth"
	"voice-gateway/internal/infrastructure/heygen"
	"voice-gateway/internal/infrastructure/livekit"
	"voice-gateway/internal/infrastructure/logger"
	"voice-gateway/internal/infrastructure/observability"
	"voice-gateway/internal/infrastructure/openai"
	"voice-gateway/internal/infrastructure/store"
	"voice-gateway/internal/interfaces/httpserver"
	"voice-gateway/internal/interfaces/httpserver/handlers"
)

// Application holds the main application components. The sweeper and pool are
// nil when the avatar provider is not configured.
type Application struct {
	httpServer *httpserver.HTTPServer
	sweeper    *store.Sweeper
	pool       *avatar.Pool
	log        zerolog.Logger
}

// NewApplication creates a new application instance.
func NewApplication(httpServer *httpserver.HTTPServer, sweeper *store.Sweeper, pool *avatar.Pool, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		sweeper:    sweeper,
		pool:       pool,
		log:        log,
	}
}

// Start runs the application.
func (a *Application) Start(ctx context.Context) error {
	if a.sweeper != nil {
		a.sweeper.Start(ctx)
	}
	if a.pool != nil {
		go a.pool.Prewarm(ctx)
	}

	// Run HTTP server (blocks until context cancelled)
	err := a.httpServer.Run(ctx)

	if a.sweeper != nil {
		a.sweeper.Stop()
	}

	return err
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup observability
	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	// Initialize auth validator
	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth validator")
	}

	// Speech-API credential cache (always on; the key is validated at load)
	openaiClient := openai.NewClient(cfg, log)
	tokenCache := token.NewCache(openaiClient, cfg.TokenRefreshMargin, log)

	// Avatar provider stack (feature-gated on credentials)
	var (
		avatarProvider avatar.Provider
		avatarService  avatar.Service
		pool           *avatar.Pool
		sweeper        *store.Sweeper
	)
	if cfg.AvatarEnabled() {
		avatarProvider = heygen.NewClient(cfg, log)

		poolDefaults := avatar.CreateParams{
			AvatarID: cfg.DefaultAvatarID,
			VoiceID:  cfg.DefaultVoiceID,
			Language: cfg.DefaultLanguage,
			Mode:     avatar.ModeFull,
		}
		pool = avatar.NewPool(avatarProvider, poolDefaults, cfg.PoolSize, cfg.PoolEntryTTL, log)

		sessionStore := store.NewMemoryStore(log)
		sweeper = store.NewSweeper(sessionStore, cfg.SessionStaleTTL, cfg.SessionSweepInterval, log)

		avatarService = avatar.NewService(
			sessionStore,
			avatarProvider,
			pool,
			poolDefaults,
			cfg.MaxConcurrentSessions,
			log,
		)
	} else {
		log.Warn().Msg("avatar provider credentials absent, avatar routes disabled")
	}

	// Room orchestration stack (feature-gated on LiveKit credentials)
	var orchestratorService orchestrator.Service
	if cfg.LiveKitConfigured() {
		tokenGen := livekit.NewTokenGenerator(cfg)
		roomClient := livekit.NewRoomClient(cfg)
		orchestratorService = orchestrator.NewService(
			roomClient,
			tokenGen,
			cfg.LiveKitWsURL,
			cfg.LiveKitTokenTTL,
			log,
		)
	} else {
		log.Warn().Msg("LiveKit credentials absent, orchestrated routes disabled")
	}

	handlerProvider := handlers.NewProvider(tokenCache, openaiClient, avatarService, avatarProvider, orchestratorService)

	// Initialize HTTP server
	httpServer := httpserver.New(cfg, log, handlerProvider, authValidator)

	// Create and start application
	app := NewApplication(httpServer, sweeper, pool, log)

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Bool("avatar_enabled", cfg.AvatarEnabled()).
		Bool("livekit_configured", cfg.LiveKitConfigured()).
		Msg("starting application")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
