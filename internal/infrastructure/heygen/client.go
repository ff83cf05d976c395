// Package heygen adapts the streaming-avatar provider's two API generations:
// the LiveAvatar session API (session-scoped Bearer tokens) and the legacy
// HeyGen streaming API (account key). Speak and interrupt fall back from the
// primary endpoint to the legacy one and degrade to soft failures.
package heygen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"voice-gateway/internal/config"
	"voice-gateway/internal/domain/avatar"
	"voice-gateway/internal/infrastructure/metrics"
	"voice-gateway/internal/utils/platformerrors"
)

const stopReason = "USER_DISCONNECTED"

type bearerEntry struct {
	token    string
	lastUsed time.Time
}

// Client implements avatar.Provider against the LiveAvatar and legacy HeyGen APIs.
type Client struct {
	httpClient   *resty.Client
	legacyClient *resty.Client
	accountKey   string
	primaryBase  string
	legacyBase   string
	log          zerolog.Logger

	// Session-scoped bearer tokens, required for all follow-up calls on the
	// primary API. Entries for abandoned sessions are pruned by TTL so the
	// table cannot outgrow the session store.
	mu        sync.Mutex
	bearers   map[string]bearerEntry
	bearerTTL time.Duration
	now       func() time.Time
}

var _ avatar.Provider = (*Client)(nil)

// NewClient creates a provider client from the gateway configuration.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		httpClient: resty.New().
			SetHeader("Content-Type", "application/json").
			SetTimeout(cfg.UpstreamTimeout),
		legacyClient: resty.New().
			SetHeader("Content-Type", "application/json").
			SetTimeout(cfg.UpstreamTimeout),
		accountKey:  cfg.AvatarAccountKey(),
		primaryBase: strings.TrimRight(cfg.LiveAvatarBaseURL, "/"),
		legacyBase:  strings.TrimRight(cfg.HeyGenBaseURL, "/"),
		log:         log.With().Str("component", "avatar-provider").Logger(),
		bearers:     make(map[string]bearerEntry),
		bearerTTL:   cfg.SessionStaleTTL,
		now:         time.Now,
	}
}

// CreateSession issues a session token on the primary API and caches the
// returned bearer keyed by session ID for subsequent calls.
func (c *Client) CreateSession(ctx context.Context, params avatar.CreateParams) (*avatar.ProviderSession, error) {
	body := map[string]any{
		"mode":      params.Mode,
		"avatar_id": params.AvatarID,
	}
	if params.VoiceID != "" {
		body["voice_id"] = params.VoiceID
	}
	if params.Persona != "" {
		body["avatar_persona"] = params.Persona
	}
	if params.Language != "" {
		body["language"] = params.Language
	}
	if params.ContextID != "" {
		body["context_id"] = params.ContextID
	}
	if params.Sandbox {
		body["is_sandbox"] = true
	}

	started := c.now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-API-KEY", c.accountKey).
		SetBody(body).
		Post(c.primaryBase + "/v1/sessions/token")
	metrics.UpstreamRequestDuration.WithLabelValues("liveavatar", "create_session").
		Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, classify("session token request failed", err)
	}
	if resp.IsError() {
		return nil, platformerrors.NewExternal(
			fmt.Sprintf("session token request returned %d", resp.StatusCode()),
			errors.New(truncate(resp.String())),
		)
	}

	parsed, err := decodeBody(resp.Body())
	if err != nil {
		return nil, err
	}
	for _, extract := range tokenExtractors {
		if sess := extract(parsed); sess != nil {
			c.storeBearer(sess.SessionID, sess.SessionToken)
			c.log.Info().
				Str("session_id", sess.SessionID).
				Str("avatar_id", params.AvatarID).
				Msg("provider session token issued")
			return sess, nil
		}
	}
	return nil, platformerrors.NewExternal("unrecognized session token response shape", nil)
}

// StartSession exchanges a created session for media-routing connection info.
// Requires the bearer cached by CreateSession.
func (c *Client) StartSession(ctx context.Context, sessionID string) (*avatar.ConnectionInfo, error) {
	bearer := c.loadBearer(sessionID)
	if bearer == "" {
		return nil, platformerrors.New(platformerrors.LayerInfrastructure, platformerrors.ErrorTypeState,
			"no session token cached for session; call createSession first", nil)
	}

	started := c.now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(bearer).
		SetBody(map[string]any{"session_id": sessionID}).
		Post(c.primaryBase + "/v1/sessions/start")
	metrics.UpstreamRequestDuration.WithLabelValues("liveavatar", "start_session").
		Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, classify("session start request failed", err)
	}
	if resp.IsError() {
		return nil, platformerrors.NewExternal(
			fmt.Sprintf("session start returned %d", resp.StatusCode()),
			errors.New(truncate(resp.String())),
		)
	}

	parsed, err := decodeBody(resp.Body())
	if err != nil {
		return nil, err
	}
	for _, extract := range connectionExtractors {
		if info := extract(parsed); info != nil {
			c.log.Info().Str("session_id", sessionID).Msg("provider session started")
			return info, nil
		}
	}
	return nil, platformerrors.NewExternal("unrecognized session start response shape", nil)
}

// SendText dispatches text for the avatar to speak. Best-effort: tries the
// primary endpoint, falls back to the legacy streaming endpoint with the
// account key, and reports a soft failure when both fail. Empty or
// whitespace-only text is a no-op success without any network call.
func (c *Client) SendText(ctx context.Context, sessionID, text, taskType string) *avatar.TaskResult {
	if strings.TrimSpace(text) == "" {
		return &avatar.TaskResult{}
	}
	if taskType == "" {
		taskType = "repeat"
	}

	body := map[string]any{
		"session_id": sessionID,
		"text":       text,
		"task_type":  taskType,
	}

	taskID, primaryErr := c.postTask(ctx, sessionID, "/v1/sessions/task", body)
	if primaryErr == nil {
		return &avatar.TaskResult{TaskID: taskID}
	}

	metrics.ProviderFallbacks.WithLabelValues("send_text").Inc()
	c.log.Warn().Err(primaryErr).Str("session_id", sessionID).Msg("primary speak failed, trying legacy endpoint")

	taskID, legacyErr := c.postLegacyTask(ctx, "/v1/streaming.task", body)
	if legacyErr == nil {
		return &avatar.TaskResult{TaskID: taskID}
	}

	c.log.Warn().Err(legacyErr).Str("session_id", sessionID).Msg("speak failed on both endpoints")
	return &avatar.TaskResult{Error: legacyErr.Error()}
}

// Interrupt cuts off the avatar's current speech. Failure is benign when the
// avatar is not speaking and is reported as success=false, never an error.
func (c *Client) Interrupt(ctx context.Context, sessionID string) *avatar.InterruptResult {
	body := map[string]any{"session_id": sessionID}

	_, primaryErr := c.postTask(ctx, sessionID, "/v1/sessions/interrupt", body)
	if primaryErr == nil {
		return &avatar.InterruptResult{Success: true}
	}
	metrics.ProviderFallbacks.WithLabelValues("interrupt").Inc()
	c.log.Debug().Err(primaryErr).Str("session_id", sessionID).Msg("primary interrupt failed, trying legacy endpoint")

	if _, err := c.postLegacyTask(ctx, "/v1/streaming.interrupt", body); err != nil {
		return &avatar.InterruptResult{Success: false, Error: err.Error()}
	}
	return &avatar.InterruptResult{Success: true}
}

// StopSession ends a provider session. Idempotent: an empty session ID
// succeeds immediately, and the cached bearer is cleared regardless of the
// upstream outcome.
func (c *Client) StopSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	bearer := c.loadBearer(sessionID)
	c.dropBearer(sessionID)

	if bearer == "" {
		// Nothing to authenticate the stop with; the provider times the
		// session out on its own.
		return nil
	}

	started := c.now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(bearer).
		SetBody(map[string]any{
			"session_id": sessionID,
			"reason":     stopReason,
		}).
		Post(c.primaryBase + "/v1/sessions/stop")
	metrics.UpstreamRequestDuration.WithLabelValues("liveavatar", "stop_session").
		Observe(time.Since(started).Seconds())
	if err != nil {
		return classify("session stop request failed", err)
	}
	if resp.IsError() {
		return platformerrors.NewExternal(
			fmt.Sprintf("session stop returned %d", resp.StatusCode()),
			errors.New(truncate(resp.String())),
		)
	}
	c.log.Info().Str("session_id", sessionID).Msg("provider session stopped")
	return nil
}

// postTask posts to a primary-API session operation using the cached bearer.
func (c *Client) postTask(ctx context.Context, sessionID, path string, body map[string]any) (*string, error) {
	bearer := c.loadBearer(sessionID)
	if bearer == "" {
		return nil, fmt.Errorf("no session token cached for %s", sessionID)
	}

	started := c.now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(bearer).
		SetBody(body).
		Post(c.primaryBase + path)
	metrics.UpstreamRequestDuration.WithLabelValues("liveavatar", path).
		Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("primary endpoint returned %d: %s", resp.StatusCode(), truncate(resp.String()))
	}
	return extractTaskID(resp.Body()), nil
}

// postLegacyTask posts to the legacy streaming API with the account key.
func (c *Client) postLegacyTask(ctx context.Context, path string, body map[string]any) (*string, error) {
	started := c.now()
	resp, err := c.legacyClient.R().
		SetContext(ctx).
		SetHeader("X-Api-Key", c.accountKey).
		SetBody(body).
		Post(c.legacyBase + path)
	metrics.UpstreamRequestDuration.WithLabelValues("heygen", path).
		Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("legacy endpoint returned %d: %s", resp.StatusCode(), truncate(resp.String()))
	}
	return extractTaskID(resp.Body()), nil
}

func extractTaskID(raw []byte) *string {
	parsed, err := decodeBody(raw)
	if err != nil {
		return nil
	}
	scope := parsed
	if data, ok := parsed["data"].(map[string]any); ok {
		scope = data
	}
	if id := firstString(scope, "task_id", "taskId"); id != "" {
		return &id
	}
	return nil
}

func (c *Client) storeBearer(sessionID, token string) {
	if sessionID == "" || token == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneBearersLocked()
	c.bearers[sessionID] = bearerEntry{token: token, lastUsed: c.now()}
}

func (c *Client) loadBearer(sessionID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneBearersLocked()
	entry, ok := c.bearers[sessionID]
	if !ok {
		return ""
	}
	entry.lastUsed = c.now()
	c.bearers[sessionID] = entry
	return entry.token
}

func (c *Client) dropBearer(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bearers, sessionID)
}

func (c *Client) pruneBearersLocked() {
	cutoff := c.now().Add(-c.bearerTTL)
	for id, entry := range c.bearers {
		if entry.lastUsed.Before(cutoff) {
			delete(c.bearers, id)
		}
	}
}

func decodeBody(raw []byte) (map[string]any, error) {
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, platformerrors.NewExternal("upstream response is not valid JSON", err)
	}
	return parsed, nil
}

// classify maps transport-level failures to the error taxonomy: deadline and
// network timeouts become timeout errors, everything else is external.
func classify(message string, err error) *platformerrors.PlatformError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return platformerrors.New(platformerrors.LayerInfrastructure, platformerrors.ErrorTypeTimeout, message, err)
	}
	return platformerrors.NewExternal(message, err)
}

func truncate(s string) string {
	const max = 300
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
