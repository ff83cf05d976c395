package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "voice-gateway", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 60*time.Second, cfg.TokenRefreshMargin)
	assert.Equal(t, 5*time.Minute, cfg.SessionSweepInterval)
	assert.Equal(t, 30*time.Minute, cfg.SessionStaleTTL)
	assert.Equal(t, 2, cfg.PoolSize)
	assert.Equal(t, 5*time.Minute, cfg.PoolEntryTTL)
	assert.False(t, cfg.AvatarEnabled())
	assert.False(t, cfg.LiveKitConfigured())
}

func TestLoadValidatesAuthSettings(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("ISSUER", "")
	t.Setenv("JWKS_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ISSUER")
}

func TestAvatarAccountKeyPrecedence(t *testing.T) {
	cfg := &Config{HeyGenAPIKey: "legacy-key"}
	assert.Equal(t, "legacy-key", cfg.AvatarAccountKey())
	assert.True(t, cfg.AvatarEnabled())

	cfg.LiveAvatarAPIKey = "primary-key"
	assert.Equal(t, "primary-key", cfg.AvatarAccountKey(), "primary key wins when both are set")
}

func TestLiveKitConfigured(t *testing.T) {
	cfg := &Config{LiveKitAPIKey: "key"}
	assert.False(t, cfg.LiveKitConfigured(), "both key and secret are needed")

	cfg.LiveKitAPISecret = "secret"
	assert.True(t, cfg.LiveKitConfigured())
}
