package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-gateway/internal/config"
	"voice-gateway/internal/domain/avatar"
	"voice-gateway/internal/domain/orchestrator"
	"voice-gateway/internal/domain/token"
	"voice-gateway/internal/infrastructure/auth"
	"voice-gateway/internal/infrastructure/heygen"
	"voice-gateway/internal/infrastructure/openai"
	"voice-gateway/internal/infrastructure/store"
	"voice-gateway/internal/interfaces/httpserver"
	"voice-gateway/internal/interfaces/httpserver/handlers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeUpstreams stands in for the speech API and both avatar API generations.
type fakeUpstreams struct {
	speech       *httptest.Server
	avatar       *httptest.Server
	sessionSeq   atomic.Int32
	tokenMints   atomic.Int32
	avatarStarts atomic.Int32
}

func newFakeUpstreams(t *testing.T) *fakeUpstreams {
	t.Helper()
	f := &fakeUpstreams{}

	speechMux := http.NewServeMux()
	speechMux.HandleFunc("/v1/realtime/sessions", func(w http.ResponseWriter, r *http.Request) {
		f.tokenMints.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"client_secret": {"value": "ek_test", "expires_at": 4102444800}}`))
	})
	speechMux.HandleFunc("/v1/realtime", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/sdp")
		_, _ = w.Write([]byte("v=0\r\nanswer\r\n"))
	})
	f.speech = httptest.NewServer(speechMux)
	t.Cleanup(f.speech.Close)

	avatarMux := http.NewServeMux()
	avatarMux.HandleFunc("/v1/sessions/token", func(w http.ResponseWriter, r *http.Request) {
		n := f.sessionSeq.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"session_id":    "sess-" + string(rune('0'+n)),
				"session_token": "bearer-" + string(rune('0'+n)),
			},
		})
	})
	avatarMux.HandleFunc("/v1/sessions/start", func(w http.ResponseWriter, r *http.Request) {
		f.avatarStarts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"url": "wss://routing.example.com", "access_token": "routing-token"}}`))
	})
	avatarMux.HandleFunc("/v1/sessions/stop", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	f.avatar = httptest.NewServer(avatarMux)
	t.Cleanup(f.avatar.Close)

	return f
}

func testConfig(f *fakeUpstreams, avatarEnabled bool) *config.Config {
	cfg := &config.Config{
		ServiceName:           "voice-gateway",
		Environment:           "test",
		HTTPPort:              0,
		ShutdownTimeout:       time.Second,
		OpenAIAPIKey:          "sk-test",
		OpenAIBaseURL:         f.speech.URL,
		OpenAIRealtimeModel:   "gpt-4o-realtime-preview",
		OpenAIVoice:           "verse",
		TokenRefreshMargin:    60 * time.Second,
		UpstreamTimeout:       5 * time.Second,
		HeyGenBaseURL:         f.avatar.URL,
		LiveAvatarBaseURL:     f.avatar.URL,
		DefaultAvatarID:       "avatar-default",
		DefaultLanguage:       "en",
		SessionSweepInterval:  5 * time.Minute,
		SessionStaleTTL:       30 * time.Minute,
		PoolSize:              2,
		PoolEntryTTL:          5 * time.Minute,
		MaxConcurrentSessions: 3,
	}
	if avatarEnabled {
		cfg.LiveAvatarAPIKey = "account-key"
	}
	return cfg
}

// fakeOrchestrator stands in for the room orchestrator in routes that only
// need its observable surface.
type fakeOrchestrator struct {
	rooms map[string]orchestrator.RoomInfo
}

func (f *fakeOrchestrator) CreateSession(ctx context.Context, roomName string) (*orchestrator.RoomSession, error) {
	return &orchestrator.RoomSession{URL: "wss://media.example.com", RoomName: roomName, UserToken: "jwt"}, nil
}

func (f *fakeOrchestrator) StopSession(ctx context.Context, roomName string) {}

func (f *fakeOrchestrator) ActiveRooms(ctx context.Context) (map[string]orchestrator.RoomInfo, error) {
	return f.rooms, nil
}

func newTestServer(t *testing.T, cfg *config.Config) *gin.Engine {
	return newTestServerWith(t, cfg, nil)
}

func newTestServerWith(t *testing.T, cfg *config.Config, orch orchestrator.Service) *gin.Engine {
	t.Helper()
	log := zerolog.Nop()

	openaiClient := openai.NewClient(cfg, log)
	tokenCache := token.NewCache(openaiClient, cfg.TokenRefreshMargin, log)

	var (
		avatarProvider avatar.Provider
		avatarService  avatar.Service
	)
	if cfg.AvatarEnabled() {
		avatarProvider = heygen.NewClient(cfg, log)
		sessionStore := store.NewMemoryStore(log)
		defaults := avatar.CreateParams{
			AvatarID: cfg.DefaultAvatarID,
			Language: cfg.DefaultLanguage,
			Mode:     avatar.ModeFull,
		}
		avatarService = avatar.NewService(sessionStore, avatarProvider, nil, defaults, cfg.MaxConcurrentSessions, log)
	}

	authValidator, err := auth.NewValidator(context.Background(), cfg, log)
	require.NoError(t, err)

	handlerProvider := handlers.NewProvider(tokenCache, openaiClient, avatarService, avatarProvider, orch)
	server := httpserver.New(cfg, log, handlerProvider, authValidator)
	return server.Engine()
}

func doJSON(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	engine := newTestServer(t, testConfig(newFakeUpstreams(t), true))

	for _, path := range []string{"/health", "/healthz", "/readyz", "/"} {
		rec := doJSON(engine, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestGetTokenCachesCredential(t *testing.T) {
	upstreams := newFakeUpstreams(t)
	engine := newTestServer(t, testConfig(upstreams, true))

	for i := 0; i < 3; i++ {
		rec := doJSON(engine, http.MethodGet, "/token", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ek_test", body["client_secret"]["value"])
	}

	assert.Equal(t, int32(1), upstreams.tokenMints.Load(), "repeated calls inside the margin hit the cache")
}

func TestSDPCallSetup(t *testing.T) {
	engine := newTestServer(t, testConfig(newFakeUpstreams(t), true))

	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader("v=0\r\noffer\r\n"))
	req.Header.Set("Content-Type", "application/sdp")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v=0\r\nanswer\r\n", rec.Body.String())
}

func TestSDPCallSetupRejectsEmptyBody(t *testing.T) {
	engine := newTestServer(t, testConfig(newFakeUpstreams(t), true))

	rec := doJSON(engine, http.MethodPost, "/session", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDoubleAvatarSessionReturnsExisting(t *testing.T) {
	upstreams := newFakeUpstreams(t)
	engine := newTestServer(t, testConfig(upstreams, true))

	first := doJSON(engine, http.MethodPost, "/heygen/session", `{"clientId": "c1"}`)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	var firstBody map[string]any
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstBody))
	require.NotEmpty(t, firstBody["sessionId"])
	assert.Equal(t, "wss://routing.example.com", firstBody["liveKitUrl"])
	assert.Nil(t, firstBody["existing"])

	second := doJSON(engine, http.MethodPost, "/heygen/session", `{"clientId": "c1"}`)
	require.Equal(t, http.StatusOK, second.Code)

	var secondBody map[string]any
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondBody))
	assert.Equal(t, true, secondBody["existing"])
	assert.Equal(t, firstBody["sessionId"], secondBody["sessionId"])
	assert.Equal(t, int32(1), upstreams.avatarStarts.Load(), "second call must not create a second provider session")
}

func TestAvatarSessionRequiresClientID(t *testing.T) {
	engine := newTestServer(t, testConfig(newFakeUpstreams(t), true))

	rec := doJSON(engine, http.MethodPost, "/heygen/session", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvatarStopIsIdempotent(t *testing.T) {
	engine := newTestServer(t, testConfig(newFakeUpstreams(t), true))

	create := doJSON(engine, http.MethodPost, "/heygen/session", `{"clientId": "c1"}`)
	require.Equal(t, http.StatusOK, create.Code)

	for i := 0; i < 2; i++ {
		rec := doJSON(engine, http.MethodPost, "/heygen/stop", `{"clientId": "c1"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])
	}
}

func TestAvatarStatsEndpoint(t *testing.T) {
	engine := newTestServer(t, testConfig(newFakeUpstreams(t), true))

	create := doJSON(engine, http.MethodPost, "/heygen/session", `{"clientId": "c1"}`)
	require.Equal(t, http.StatusOK, create.Code)

	rec := doJSON(engine, http.MethodGet, "/heygen/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sessions struct {
			Total  int `json:"total"`
			Active int `json:"active"`
		} `json:"sessions"`
		Quota struct {
			MaxConcurrent int `json:"max_concurrent"`
			Available     int `json:"available"`
		} `json:"quota"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Sessions.Total)
	assert.Equal(t, 1, body.Sessions.Active)
	assert.Equal(t, 3, body.Quota.MaxConcurrent)
	assert.Equal(t, 2, body.Quota.Available)
}

func TestFeatureGateWhenAvatarUnconfigured(t *testing.T) {
	engine := newTestServer(t, testConfig(newFakeUpstreams(t), false))

	for _, path := range []string{"/heygen/session", "/heygen/stream", "/liveavatar/session/token", "/liveavatar/speak"} {
		rec := doJSON(engine, http.MethodPost, path, `{"clientId": "c1", "sessionId": "s", "session_id": "s"}`)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code, path)

		var body map[string]map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "configuration_error", body["error"]["type"], path)
		assert.Contains(t, body["error"]["message"], "LIVEAVATAR_API_KEY", "hint must name the missing credentials")
	}
}

func TestStatusRoutesBypassFeatureGate(t *testing.T) {
	engine := newTestServer(t, testConfig(newFakeUpstreams(t), false))

	rec := doJSON(engine, http.MethodGet, "/liveavatar/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_configured", body["status"])
	assert.Equal(t, "avatar-default", body["defaultAvatarId"])

	rec = doJSON(engine, http.MethodGet, "/orchestrated/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["available"])
	assert.Equal(t, false, body["livekitConfigured"])
}

func TestOrchestratedGateWhenLiveKitUnconfigured(t *testing.T) {
	engine := newTestServer(t, testConfig(newFakeUpstreams(t), true))

	rec := doJSON(engine, http.MethodPost, "/orchestrated/session/start", `{}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"]["message"], "LIVEKIT_API_KEY")
}

func TestOrchestratedStatusReportsActiveRooms(t *testing.T) {
	cfg := testConfig(newFakeUpstreams(t), true)
	cfg.LiveKitAPIKey = "key"
	cfg.LiveKitAPISecret = "secret"
	orch := &fakeOrchestrator{rooms: map[string]orchestrator.RoomInfo{
		"room_a": {Name: "room_a", NumParticipants: 2},
	}}
	engine := newTestServerWith(t, cfg, orch)

	rec := doJSON(engine, http.MethodGet, "/orchestrated/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["available"])
	assert.Equal(t, float64(1), body["activeRooms"], "live room count comes from the routing service")
}

func TestLiveAvatarTokenIssuance(t *testing.T) {
	engine := newTestServer(t, testConfig(newFakeUpstreams(t), true))

	rec := doJSON(engine, http.MethodPost, "/liveavatar/session/token", `{"mode": "CUSTOM"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["session_id"])
	assert.NotEmpty(t, body["session_token"])
}

func TestUnknownRouteReturns404(t *testing.T) {
	engine := newTestServer(t, testConfig(newFakeUpstreams(t), true))

	rec := doJSON(engine, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
