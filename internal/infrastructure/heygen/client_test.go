package heygen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-gateway/internal/config"
	"voice-gateway/internal/domain/avatar"
	"voice-gateway/internal/utils/platformerrors"
)

func newTestClient(t *testing.T, primary http.Handler, legacy http.Handler) (*Client, *httptest.Server, *httptest.Server) {
	t.Helper()
	primarySrv := httptest.NewServer(primary)
	t.Cleanup(primarySrv.Close)
	legacySrv := httptest.NewServer(legacy)
	t.Cleanup(legacySrv.Close)

	cfg := &config.Config{
		LiveAvatarAPIKey:  "account-key",
		LiveAvatarBaseURL: primarySrv.URL,
		HeyGenBaseURL:     legacySrv.URL,
		UpstreamTimeout:   5 * time.Second,
		SessionStaleTTL:   30 * time.Minute,
	}
	return NewClient(cfg, zerolog.Nop()), primarySrv, legacySrv
}

func jsonHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestCreateSessionResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "coded envelope",
			body: `{"code":100,"data":{"session_id":"sess-1","session_token":"bearer-1"}}`,
		},
		{
			name: "flat",
			body: `{"session_id":"sess-1","session_token":"bearer-1"}`,
		},
		{
			name: "alternate names",
			body: `{"sessionId":"sess-1","token":"bearer-1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotKey atomic.Value
			primary := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/v1/sessions/token", r.URL.Path)
				gotKey.Store(r.Header.Get("X-API-KEY"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			})
			client, _, _ := newTestClient(t, primary, jsonHandler(http.StatusOK, `{}`))

			sess, err := client.CreateSession(context.Background(), avatar.CreateParams{
				AvatarID: "avatar-1",
				Mode:     avatar.ModeFull,
			})
			require.NoError(t, err)
			assert.Equal(t, "sess-1", sess.SessionID)
			assert.Equal(t, "bearer-1", sess.SessionToken)
			assert.Equal(t, "account-key", gotKey.Load())

			assert.Equal(t, "bearer-1", client.loadBearer("sess-1"), "bearer must be cached for follow-up calls")
		})
	}
}

func TestCreateSessionForwardsContextID(t *testing.T) {
	var gotBody map[string]any
	primary := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotBody = body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"session_id":"sess-1","session_token":"bearer-1"}`))
	})
	client, _, _ := newTestClient(t, primary, jsonHandler(http.StatusOK, `{}`))

	_, err := client.CreateSession(context.Background(), avatar.CreateParams{
		AvatarID:  "avatar-1",
		Mode:      avatar.ModeFull,
		ContextID: "ctx-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "ctx-42", gotBody["context_id"])

	_, err = client.CreateSession(context.Background(), avatar.CreateParams{
		AvatarID: "avatar-1",
		Mode:     avatar.ModeFull,
	})
	require.NoError(t, err)
	_, present := gotBody["context_id"]
	assert.False(t, present, "context_id is omitted when unset")
}

func TestCreateSessionUnrecognizedShape(t *testing.T) {
	client, _, _ := newTestClient(t,
		jsonHandler(http.StatusOK, `{"something":"else"}`),
		jsonHandler(http.StatusOK, `{}`),
	)

	_, err := client.CreateSession(context.Background(), avatar.CreateParams{AvatarID: "a"})
	require.Error(t, err)

	platformErr := platformerrors.GetPlatformError(err)
	require.NotNil(t, platformErr)
	assert.Equal(t, platformerrors.ErrorTypeExternal, platformErr.Type)
}

func TestCreateSessionUpstreamError(t *testing.T) {
	client, _, _ := newTestClient(t,
		jsonHandler(http.StatusUnauthorized, `{"message":"bad key"}`),
		jsonHandler(http.StatusOK, `{}`),
	)

	_, err := client.CreateSession(context.Background(), avatar.CreateParams{AvatarID: "a"})
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeExternal, platformerrors.GetPlatformError(err).Type)
}

func TestStartSessionRequiresCachedBearer(t *testing.T) {
	client, _, _ := newTestClient(t,
		jsonHandler(http.StatusOK, `{}`),
		jsonHandler(http.StatusOK, `{}`),
	)

	_, err := client.StartSession(context.Background(), "unknown-session")
	require.Error(t, err)

	platformErr := platformerrors.GetPlatformError(err)
	require.NotNil(t, platformErr)
	assert.Equal(t, platformerrors.ErrorTypeState, platformErr.Type)
}

func TestStartSessionReturnsConnectionInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/v1/sessions/token", jsonHandler(http.StatusOK,
		`{"data":{"session_id":"sess-1","session_token":"bearer-1"}}`))
	mux.HandleFunc("/v1/sessions/start", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer bearer-1", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sess-1", body["session_id"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"url":"wss://routing.example.com","access_token":"routing-token"}}`))
	})
	client, _, _ := newTestClient(t, mux, jsonHandler(http.StatusOK, `{}`))

	_, err := client.CreateSession(context.Background(), avatar.CreateParams{AvatarID: "a"})
	require.NoError(t, err)

	info, err := client.StartSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "wss://routing.example.com", info.URL)
	assert.Equal(t, "routing-token", info.AccessToken)
}

func TestSendTextWhitespaceSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	client, _, _ := newTestClient(t, counting, counting)

	result := client.SendText(context.Background(), "sess-1", "   \n\t", "repeat")

	require.NotNil(t, result)
	assert.Nil(t, result.TaskID)
	assert.Empty(t, result.Error)
	assert.Equal(t, int32(0), hits.Load(), "whitespace text must not reach any endpoint")
}

func TestSendTextFallsBackToLegacy(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/v1/sessions/token", jsonHandler(http.StatusOK,
		`{"data":{"session_id":"sess-1","session_token":"bearer-1"}}`))
	mux.Handle("/v1/sessions/task", jsonHandler(http.StatusInternalServerError, `{"message":"boom"}`))

	var legacyKey atomic.Value
	legacy := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/streaming.task", r.URL.Path)
		legacyKey.Store(r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"task_id":"task-9"}}`))
	})
	client, _, _ := newTestClient(t, mux, legacy)

	_, err := client.CreateSession(context.Background(), avatar.CreateParams{AvatarID: "a"})
	require.NoError(t, err)

	result := client.SendText(context.Background(), "sess-1", "hello", "")
	require.NotNil(t, result)
	require.NotNil(t, result.TaskID)
	assert.Equal(t, "task-9", *result.TaskID)
	assert.Empty(t, result.Error)
	assert.Equal(t, "account-key", legacyKey.Load())
}

func TestSendTextSoftFailureWhenBothEndpointsFail(t *testing.T) {
	failing := jsonHandler(http.StatusInternalServerError, `{"message":"boom"}`)
	client, _, _ := newTestClient(t, failing, failing)

	result := client.SendText(context.Background(), "sess-1", "hello", "repeat")

	require.NotNil(t, result)
	assert.Nil(t, result.TaskID)
	assert.NotEmpty(t, result.Error, "soft failure must carry the upstream error")
}

func TestInterruptSoftFailure(t *testing.T) {
	failing := jsonHandler(http.StatusBadRequest, `{"message":"not speaking"}`)
	client, _, _ := newTestClient(t, failing, failing)

	result := client.Interrupt(context.Background(), "sess-1")

	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestInterruptSucceedsOnLegacyFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/v1/sessions/token", jsonHandler(http.StatusOK,
		`{"data":{"session_id":"sess-1","session_token":"bearer-1"}}`))
	mux.Handle("/v1/sessions/interrupt", jsonHandler(http.StatusInternalServerError, `{}`))
	legacy := jsonHandler(http.StatusOK, `{}`)
	client, _, _ := newTestClient(t, mux, legacy)

	_, err := client.CreateSession(context.Background(), avatar.CreateParams{AvatarID: "a"})
	require.NoError(t, err)

	result := client.Interrupt(context.Background(), "sess-1")
	assert.True(t, result.Success)
}

func TestStopSessionEmptyIDIsNoOp(t *testing.T) {
	var hits atomic.Int32
	counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})
	client, _, _ := newTestClient(t, counting, counting)

	require.NoError(t, client.StopSession(context.Background(), ""))
	assert.Equal(t, int32(0), hits.Load())
}

func TestStopSessionWithoutBearerSucceedsOffline(t *testing.T) {
	var hits atomic.Int32
	counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})
	client, _, _ := newTestClient(t, counting, counting)

	require.NoError(t, client.StopSession(context.Background(), "never-created"))
	assert.Equal(t, int32(0), hits.Load(), "no bearer means no authenticated stop is possible")
}

func TestStopSessionSendsReasonAndClearsBearer(t *testing.T) {
	var stopHits atomic.Int32
	mux := http.NewServeMux()
	mux.Handle("/v1/sessions/token", jsonHandler(http.StatusOK,
		`{"data":{"session_id":"sess-1","session_token":"bearer-1"}}`))
	mux.HandleFunc("/v1/sessions/stop", func(w http.ResponseWriter, r *http.Request) {
		stopHits.Add(1)
		assert.Equal(t, "Bearer bearer-1", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "USER_DISCONNECTED", body["reason"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	client, _, _ := newTestClient(t, mux, jsonHandler(http.StatusOK, `{}`))

	_, err := client.CreateSession(context.Background(), avatar.CreateParams{AvatarID: "a"})
	require.NoError(t, err)

	require.NoError(t, client.StopSession(context.Background(), "sess-1"))
	assert.Equal(t, int32(1), stopHits.Load())

	// Second stop finds no bearer and never reaches the wire.
	require.NoError(t, client.StopSession(context.Background(), "sess-1"))
	assert.Equal(t, int32(1), stopHits.Load())
}

func TestBearerTablePrunesByTTL(t *testing.T) {
	client, _, _ := newTestClient(t, jsonHandler(http.StatusOK, `{}`), jsonHandler(http.StatusOK, `{}`))

	base := time.Now()
	client.now = func() time.Time { return base }
	client.storeBearer("sess-1", "bearer-1")

	client.now = func() time.Time { return base.Add(31 * time.Minute) }
	assert.Empty(t, client.loadBearer("sess-1"), "idle bearers must age out with the session TTL")
}
