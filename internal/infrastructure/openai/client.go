// Package openai wraps the realtime speech API endpoints the gateway
// brokers: ephemeral token exchange and SDP call setup.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"voice-gateway/internal/config"
	"voice-gateway/internal/domain/token"
	"voice-gateway/internal/infrastructure/metrics"
	"voice-gateway/internal/utils/platformerrors"
)

// Client calls the realtime speech API.
type Client struct {
	httpClient *resty.Client
	apiKey     string
	baseURL    string
	model      string
	voice      string
	log        zerolog.Logger
}

var _ token.Exchanger = (*Client)(nil)

// NewClient creates a realtime speech API client.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		httpClient: resty.New().SetTimeout(cfg.UpstreamTimeout),
		apiKey:     cfg.OpenAIAPIKey,
		baseURL:    strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		model:      cfg.OpenAIRealtimeModel,
		voice:      cfg.OpenAIVoice,
		log:        log.With().Str("component", "speech-api").Logger(),
	}
}

type sessionResponse struct {
	ClientSecret struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
}

// MintEphemeralToken exchanges the account key for a short-lived client token.
func (c *Client) MintEphemeralToken(ctx context.Context) (*token.ClientSecret, error) {
	var result sessionResponse

	started := time.Now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"model": c.model,
			"voice": c.voice,
		}).
		SetResult(&result).
		Post(c.baseURL + "/v1/realtime/sessions")
	metrics.UpstreamRequestDuration.WithLabelValues("openai", "mint_token").
		Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, classify("ephemeral token exchange failed", err)
	}
	if resp.IsError() {
		return nil, platformerrors.NewExternal(
			fmt.Sprintf("token exchange returned %d", resp.StatusCode()),
			errors.New(truncate(resp.String())),
		)
	}
	if result.ClientSecret.Value == "" {
		return nil, platformerrors.NewExternal("token exchange response missing client_secret", nil)
	}

	return &token.ClientSecret{
		Value:     result.ClientSecret.Value,
		ExpiresAt: result.ClientSecret.ExpiresAt,
	}, nil
}

// ExchangeSDP forwards a client SDP offer to the realtime call-setup endpoint
// and returns the raw SDP answer. The payload is opaque to the gateway.
func (c *Client) ExchangeSDP(ctx context.Context, offer []byte) ([]byte, error) {
	started := time.Now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeader("Content-Type", "application/sdp").
		SetBody(offer).
		Post(c.baseURL + "/v1/realtime?model=" + c.model)
	metrics.UpstreamRequestDuration.WithLabelValues("openai", "exchange_sdp").
		Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, classify("SDP exchange failed", err)
	}
	if resp.IsError() {
		return nil, platformerrors.NewExternal(
			fmt.Sprintf("SDP exchange returned %d", resp.StatusCode()),
			errors.New(truncate(resp.String())),
		)
	}
	return resp.Body(), nil
}

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
