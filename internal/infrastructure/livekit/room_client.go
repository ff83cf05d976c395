package livekit

import (
	"context"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"voice-gateway/internal/config"
	"voice-gateway/internal/domain/orchestrator"
)

// RoomClient provides access to LiveKit room management APIs.
type RoomClient struct {
	client *lksdk.RoomServiceClient
}

// NewRoomClient creates a new LiveKit room client.
func NewRoomClient(cfg *config.Config) *RoomClient {
	client := lksdk.NewRoomServiceClient(cfg.LiveKitWsURL, cfg.LiveKitAPIKey, cfg.LiveKitAPISecret)
	return &RoomClient{client: client}
}

// CreateRoom creates a room with the given name. Empty rooms auto-expire
// after the configured empty timeout.
func (c *RoomClient) CreateRoom(ctx context.Context, name string) error {
	_, err := c.client.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:         name,
		EmptyTimeout: 300, // seconds
	})
	return err
}

// DeleteRoom removes a room, disconnecting any remaining participants.
func (c *RoomClient) DeleteRoom(ctx context.Context, name string) error {
	_, err := c.client.DeleteRoom(ctx, &livekit.DeleteRoomRequest{
		Room: name,
	})
	return err
}

// ListActiveRooms returns all active rooms with participant counts.
func (c *RoomClient) ListActiveRooms(ctx context.Context) (map[string]orchestrator.RoomInfo, error) {
	resp, err := c.client.ListRooms(ctx, &livekit.ListRoomsRequest{})
	if err != nil {
		return nil, err
	}

	rooms := make(map[string]orchestrator.RoomInfo)
	for _, room := range resp.Rooms {
		rooms[room.Name] = orchestrator.RoomInfo{
			Name:            room.Name,
			NumParticipants: int(room.NumParticipants),
		}
	}
	return rooms, nil
}
