package handlers

import (
	"context"

	"voice-gateway/internal/domain/avatar"
)

// AvatarHandler handles client-keyed avatar session requests.
type AvatarHandler struct {
	service avatar.Service
}

// NewAvatarHandler creates a new avatar handler.
func NewAvatarHandler(service avatar.Service) *AvatarHandler {
	return &AvatarHandler{service: service}
}

// CreateSession returns the client's existing session or establishes a new one.
func (h *AvatarHandler) CreateSession(ctx context.Context, clientID string, params avatar.CreateParams) (*avatar.SessionInfo, error) {
	return h.service.CreateClientSession(ctx, clientID, params)
}

// SendText dispatches text for the avatar to speak. Best-effort.
func (h *AvatarHandler) SendText(ctx context.Context, sessionID, text, taskType string) *avatar.TaskResult {
	return h.service.SendText(ctx, sessionID, text, taskType)
}

// Interrupt cuts off current avatar speech. Best-effort.
func (h *AvatarHandler) Interrupt(ctx context.Context, sessionID string) *avatar.InterruptResult {
	return h.service.Interrupt(ctx, sessionID)
}

// Stop ends a session identified by provider session ID or client ID.
func (h *AvatarHandler) Stop(ctx context.Context, sessionID, clientID string) {
	h.service.Stop(ctx, sessionID, clientID)
}

// Stats returns session counts and quota headroom.
func (h *AvatarHandler) Stats(ctx context.Context) (avatar.Stats, avatar.Quota) {
	return h.service.Stats(ctx)
}
