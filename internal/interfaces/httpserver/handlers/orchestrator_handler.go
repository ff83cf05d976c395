package handlers

import (
	"context"

	"voice-gateway/internal/domain/orchestrator"
)

// OrchestratorHandler handles orchestrated room session requests.
type OrchestratorHandler struct {
	service orchestrator.Service
}

// NewOrchestratorHandler creates a new orchestrator handler.
func NewOrchestratorHandler(service orchestrator.Service) *OrchestratorHandler {
	return &OrchestratorHandler{service: service}
}

// StartSession creates a room and mints a participant token.
func (h *OrchestratorHandler) StartSession(ctx context.Context, roomName string) (*orchestrator.RoomSession, error) {
	return h.service.CreateSession(ctx, roomName)
}

// StopSession tears down the named room. Best-effort.
func (h *OrchestratorHandler) StopSession(ctx context.Context, roomName string) {
	h.service.StopSession(ctx, roomName)
}

// ActiveRoomCount reports how many rooms are currently live on the routing
// service.
func (h *OrchestratorHandler) ActiveRoomCount(ctx context.Context) (int, error) {
	rooms, err := h.service.ActiveRooms(ctx)
	if err != nil {
		return 0, err
	}
	return len(rooms), nil
}
