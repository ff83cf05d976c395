// Package responses contains HTTP response DTOs for the voice gateway.
package responses

import (
	"voice-gateway/internal/domain/avatar"
	"voice-gateway/internal/domain/token"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// TokenResponse carries an ephemeral speech-API credential.
type TokenResponse struct {
	ClientSecret ClientSecret `json:"client_secret"`
}

// ClientSecret is the credential value and its unix expiry.
type ClientSecret struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at"`
}

// NewTokenResponse builds a TokenResponse from a cached credential.
func NewTokenResponse(secret *token.ClientSecret) TokenResponse {
	return TokenResponse{
		ClientSecret: ClientSecret{
			Value:     secret.Value,
			ExpiresAt: secret.ExpiresAt,
		},
	}
}

// AvatarSessionResponse is the connection info for a client's avatar session.
type AvatarSessionResponse struct {
	SessionID    string             `json:"sessionId"`
	LiveKitURL   string             `json:"liveKitUrl"`
	LiveKitToken string             `json:"liveKitToken"`
	ICEServers   []avatar.ICEServer `json:"iceServers"`
	Existing     bool               `json:"existing,omitempty"`
}

// NewAvatarSessionResponse builds an AvatarSessionResponse from session info.
func NewAvatarSessionResponse(info *avatar.SessionInfo) AvatarSessionResponse {
	iceServers := info.ICEServers
	if iceServers == nil {
		iceServers = []avatar.ICEServer{}
	}
	return AvatarSessionResponse{
		SessionID:    info.SessionID,
		LiveKitURL:   info.RoutingURL,
		LiveKitToken: info.RoutingToken,
		ICEServers:   iceServers,
		Existing:     info.Existing,
	}
}

// TaskResponse reports a dispatched speak task. TaskID is null when the
// dispatch soft-failed.
type TaskResponse struct {
	TaskID *string `json:"taskId"`
	Error  string  `json:"error,omitempty"`
}

// SuccessResponse reports a boolean outcome.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AvatarStatsResponse reports session counts and quota headroom.
type AvatarStatsResponse struct {
	Sessions SessionCounts `json:"sessions"`
	Quota    avatar.Quota  `json:"quota"`
}

// SessionCounts breaks the store down by status.
type SessionCounts struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Creating int `json:"creating"`
}

// NewAvatarStatsResponse builds an AvatarStatsResponse from store stats.
func NewAvatarStatsResponse(stats avatar.Stats, quota avatar.Quota) AvatarStatsResponse {
	return AvatarStatsResponse{
		Sessions: SessionCounts{
			Total:    stats.Total,
			Active:   stats.Active,
			Creating: stats.Creating,
		},
		Quota: quota,
	}
}

// SessionTokenResponse is a raw provider session token pair.
type SessionTokenResponse struct {
	SessionToken string `json:"session_token"`
	SessionID    string `json:"session_id"`
}

// SpeakResponse reports a raw provider speak dispatch.
type SpeakResponse struct {
	TaskID *string `json:"task_id"`
	Error  string  `json:"error,omitempty"`
}

// ProviderStatusResponse reports avatar provider availability.
type ProviderStatusResponse struct {
	Status          string `json:"status"`
	DefaultAvatarID string `json:"defaultAvatarId"`
}

// OrchestratedSessionResponse is the connection info for an orchestrated room.
type OrchestratedSessionResponse struct {
	URL       string `json:"url"`
	RoomName  string `json:"roomName"`
	UserToken string `json:"userToken"`
}

// OrchestratedStatusResponse reports orchestrated-mode availability.
// ActiveRooms is omitted when the routing service could not be queried.
type OrchestratedStatusResponse struct {
	Available         bool   `json:"available"`
	LiveKitConfigured bool   `json:"livekitConfigured"`
	DefaultAvatarID   string `json:"defaultAvatarId"`
	ActiveRooms       *int   `json:"activeRooms,omitempty"`
}
