// Package orchestrator creates and tears down media-routing rooms and mints
// participant access tokens for orchestrated mode. The AI worker is never
// invoked from here: it self-dispatches when it observes a participant join.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voice-gateway/internal/utils/idgen"
	"voice-gateway/internal/utils/platformerrors"
)

// RoomSession is the connection info handed to the human participant. The
// routing service is the system of record; nothing is retained server-side
// after the response.
type RoomSession struct {
	URL       string `json:"url"`
	RoomName  string `json:"roomName"`
	UserToken string `json:"userToken"`
}

// RoomInfo is a live room as reported by the media-routing service.
type RoomInfo struct {
	Name            string
	NumParticipants int
}

// RoomClient manages rooms on the media-routing service.
type RoomClient interface {
	CreateRoom(ctx context.Context, name string) error
	DeleteRoom(ctx context.Context, name string) error
	ListActiveRooms(ctx context.Context) (map[string]RoomInfo, error)
}

// TokenGenerator mints scoped participant access tokens.
type TokenGenerator interface {
	Generate(room, identity string, ttl time.Duration) (string, error)
}

// Service defines the room orchestration operations.
type Service interface {
	CreateSession(ctx context.Context, roomName string) (*RoomSession, error)
	StopSession(ctx context.Context, roomName string)
	ActiveRooms(ctx context.Context) (map[string]RoomInfo, error)
}

type service struct {
	rooms    RoomClient
	tokens   TokenGenerator
	wsURL    string
	tokenTTL time.Duration
	log      zerolog.Logger
}

// NewService creates a room orchestrator service.
func NewService(rooms RoomClient, tokens TokenGenerator, wsURL string, tokenTTL time.Duration, log zerolog.Logger) Service {
	return &service{
		rooms:    rooms,
		tokens:   tokens,
		wsURL:    wsURL,
		tokenTTL: tokenTTL,
		log:      log.With().Str("component", "room-orchestrator").Logger(),
	}
}

// CreateSession creates a room (generating a name when absent) and mints a
// participant token scoped to it. "Already exists" from the routing service
// is tolerated: a client reconnecting to a named room is a normal flow.
func (s *service) CreateSession(ctx context.Context, roomName string) (*RoomSession, error) {
	if roomName == "" {
		generated, err := idgen.GenerateRoomName()
		if err != nil {
			return nil, platformerrors.New(platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
				"failed to generate room name", err)
		}
		roomName = generated
	}

	if err := s.rooms.CreateRoom(ctx, roomName); err != nil {
		if isAlreadyExists(err) {
			s.log.Info().Str("room", roomName).Msg("room already exists, reusing")
		} else {
			return nil, platformerrors.NewExternal("room creation failed", err)
		}
	}

	identity, err := idgen.GenerateSecureID("user", 16)
	if err != nil {
		return nil, platformerrors.New(platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"failed to generate participant identity", err)
	}

	userToken, err := s.tokens.Generate(roomName, identity, s.tokenTTL)
	if err != nil {
		return nil, platformerrors.NewExternal("participant token minting failed", err)
	}

	s.log.Info().
		Str("room", roomName).
		Str("identity", identity).
		Msg("orchestrated session created")

	return &RoomSession{
		URL:       s.wsURL,
		RoomName:  roomName,
		UserToken: userToken,
	}, nil
}

// StopSession deletes the room. Deletion failure is logged, not propagated:
// rooms auto-expire when empty regardless.
func (s *service) StopSession(ctx context.Context, roomName string) {
	if roomName == "" {
		return
	}
	if err := s.rooms.DeleteRoom(ctx, roomName); err != nil {
		s.log.Warn().Err(err).Str("room", roomName).Msg("room deletion failed")
		return
	}
	s.log.Info().Str("room", roomName).Msg("orchestrated session stopped")
}

// ActiveRooms lists the rooms currently live on the routing service.
func (s *service) ActiveRooms(ctx context.Context) (map[string]RoomInfo, error) {
	rooms, err := s.rooms.ListActiveRooms(ctx)
	if err != nil {
		return nil, platformerrors.NewExternal("room listing failed", err)
	}
	return rooms, nil
}

func isAlreadyExists(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists")
}
