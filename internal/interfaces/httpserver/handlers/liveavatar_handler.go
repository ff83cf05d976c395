package handlers

import (
	"context"

	"voice-gateway/internal/domain/avatar"
)

// LiveAvatarHandler exposes the raw provider session API. Unlike the
// client-keyed flow, tokens issued here are not tracked in the store: the
// caller owns the session lifecycle.
type LiveAvatarHandler struct {
	service  avatar.Service
	provider avatar.Provider
}

// NewLiveAvatarHandler creates a new raw session handler.
func NewLiveAvatarHandler(service avatar.Service, provider avatar.Provider) *LiveAvatarHandler {
	return &LiveAvatarHandler{service: service, provider: provider}
}

// IssueToken issues a provider session token, from the pre-warm pool when the
// request matches pool defaults.
func (h *LiveAvatarHandler) IssueToken(ctx context.Context, params avatar.CreateParams) (*avatar.ProviderSession, error) {
	return h.service.IssueSessionToken(ctx, params)
}

// Speak dispatches a speak task on a raw provider session. Best-effort.
func (h *LiveAvatarHandler) Speak(ctx context.Context, sessionID, text, taskType string) *avatar.TaskResult {
	return h.provider.SendText(ctx, sessionID, text, taskType)
}

// Interrupt interrupts a raw provider session. Best-effort.
func (h *LiveAvatarHandler) Interrupt(ctx context.Context, sessionID string) *avatar.InterruptResult {
	return h.provider.Interrupt(ctx, sessionID)
}
