package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-gateway/internal/config"
	"voice-gateway/internal/utils/platformerrors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		OpenAIAPIKey:        "sk-test",
		OpenAIBaseURL:       srv.URL,
		OpenAIRealtimeModel: "gpt-4o-realtime-preview",
		OpenAIVoice:         "verse",
		UpstreamTimeout:     5 * time.Second,
	}
	return NewClient(cfg, zerolog.Nop())
}

func TestMintEphemeralToken(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/realtime/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-realtime-preview", body["model"])
		assert.Equal(t, "verse", body["voice"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"client_secret": {"value": "ek_test", "expires_at": 1756200000}}`))
	})
	client := newTestClient(t, handler)

	secret, err := client.MintEphemeralToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ek_test", secret.Value)
	assert.Equal(t, int64(1756200000), secret.ExpiresAt)
}

func TestMintEphemeralTokenMissingSecret(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))

	_, err := client.MintEphemeralToken(context.Background())
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeExternal, platformerrors.GetPlatformError(err).Type)
}

func TestMintEphemeralTokenUpstreamError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid key"}`, http.StatusUnauthorized)
	}))

	_, err := client.MintEphemeralToken(context.Background())
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeExternal, platformerrors.GetPlatformError(err).Type)
}

func TestExchangeSDPPassthrough(t *testing.T) {
	const offer = "v=0\r\no=- 0 0 IN IP4 127.0.0.1\r\n"
	const answer = "v=0\r\no=- 1 1 IN IP4 127.0.0.1\r\n"

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/realtime", r.URL.Path)
		assert.Equal(t, "gpt-4o-realtime-preview", r.URL.Query().Get("model"))
		assert.Equal(t, "application/sdp", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, offer, string(body), "offer must pass through unmodified")

		w.Header().Set("Content-Type", "application/sdp")
		_, _ = w.Write([]byte(answer))
	})
	client := newTestClient(t, handler)

	got, err := client.ExchangeSDP(context.Background(), []byte(offer))
	require.NoError(t, err)
	assert.Equal(t, answer, string(got), "answer must pass through unmodified")
}

func TestExchangeSDPUpstreamError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad offer", http.StatusBadRequest)
	}))

	_, err := client.ExchangeSDP(context.Background(), []byte("v=0"))
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeExternal, platformerrors.GetPlatformError(err).Type)
}
