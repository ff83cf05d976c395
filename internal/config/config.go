package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the voice-gateway service.
type Config struct {
	// Service settings
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"voice-gateway"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// OpenTelemetry
	EnableTracing bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// Auth (optional JWKS bearer validation)
	AuthEnabled  bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer   string `env:"ISSUER"`
	AuthAudience string `env:"AUDIENCE"`
	AuthJWKSURL  string `env:"JWKS_URL"`

	// OpenAI realtime speech API. The API key is the only hard requirement:
	// the gateway cannot serve its primary purpose without it.
	OpenAIAPIKey        string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL       string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
	OpenAIRealtimeModel string        `env:"OPENAI_REALTIME_MODEL" envDefault:"gpt-4o-realtime-preview"`
	OpenAIVoice         string        `env:"OPENAI_VOICE" envDefault:"verse"`
	TokenRefreshMargin  time.Duration `env:"TOKEN_REFRESH_MARGIN" envDefault:"60s"`
	UpstreamTimeout     time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`

	// HeyGen / LiveAvatar streaming-avatar provider (optional feature gate)
	HeyGenAPIKey      string `env:"HEYGEN_API_KEY"`
	HeyGenBaseURL     string `env:"HEYGEN_BASE_URL" envDefault:"https://api.heygen.com"`
	LiveAvatarAPIKey  string `env:"LIVEAVATAR_API_KEY"`
	LiveAvatarBaseURL string `env:"LIVEAVATAR_BASE_URL" envDefault:"https://api.liveavatar.com"`
	DefaultAvatarID   string `env:"DEFAULT_AVATAR_ID" envDefault:"Katya_ProfessionalLook2_public"`
	DefaultVoiceID    string `env:"DEFAULT_VOICE_ID"`
	DefaultLanguage   string `env:"AVATAR_LANGUAGE" envDefault:"en"`

	// Avatar session management
	SessionSweepInterval  time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`
	SessionStaleTTL       time.Duration `env:"SESSION_STALE_TTL" envDefault:"30m"`
	PoolSize              int           `env:"SESSION_POOL_SIZE" envDefault:"2"`
	PoolEntryTTL          time.Duration `env:"SESSION_POOL_TTL" envDefault:"5m"`
	MaxConcurrentSessions int           `env:"MAX_CONCURRENT_SESSIONS" envDefault:"3"`

	// LiveKit media routing (optional feature gate, enables orchestrated mode)
	LiveKitWsURL     string        `env:"LIVEKIT_WS_URL" envDefault:"ws://localhost:7880"`
	LiveKitAPIKey    string        `env:"LIVEKIT_API_KEY"`
	LiveKitAPISecret string        `env:"LIVEKIT_API_SECRET"`
	LiveKitTokenTTL  time.Duration `env:"LIVEKIT_TOKEN_TTL" envDefault:"1h"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	// Validate auth configuration
	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("JWKS_URL is required when AUTH_ENABLED is true")
		}
	}

	// The OpenAI key is mandatory; avatar and LiveKit credentials are
	// feature gates checked per-route instead of at startup.
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return cfg, nil
}

// Addr returns the HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// AvatarEnabled reports whether the streaming-avatar provider is configured.
func (c *Config) AvatarEnabled() bool {
	return strings.TrimSpace(c.LiveAvatarAPIKey) != "" || strings.TrimSpace(c.HeyGenAPIKey) != ""
}

// AvatarAccountKey returns the account key used for legacy-endpoint calls.
// The LiveAvatar key takes precedence when both providers are configured.
func (c *Config) AvatarAccountKey() string {
	if key := strings.TrimSpace(c.LiveAvatarAPIKey); key != "" {
		return key
	}
	return strings.TrimSpace(c.HeyGenAPIKey)
}

// LiveKitConfigured reports whether orchestrated mode is available.
func (c *Config) LiveKitConfigured() bool {
	return strings.TrimSpace(c.LiveKitAPIKey) != "" && strings.TrimSpace(c.LiveKitAPISecret) != ""
}
