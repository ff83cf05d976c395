package handlers

import (
	"context"

	"voice-gateway/internal/domain/token"
	"voice-gateway/internal/infrastructure/openai"
)

// TokenHandler handles speech-API credential and call-setup requests.
type TokenHandler struct {
	cache  *token.Cache
	openai *openai.Client
}

// NewTokenHandler creates a new token handler.
func NewTokenHandler(cache *token.Cache, client *openai.Client) *TokenHandler {
	return &TokenHandler{cache: cache, openai: client}
}

// GetToken returns a cached or freshly exchanged ephemeral credential.
func (h *TokenHandler) GetToken(ctx context.Context) (*token.ClientSecret, error) {
	return h.cache.GetToken(ctx)
}

// ExchangeSDP forwards a raw SDP offer and returns the raw SDP answer.
func (h *TokenHandler) ExchangeSDP(ctx context.Context, offer []byte) ([]byte, error) {
	return h.openai.ExchangeSDP(ctx, offer)
}
