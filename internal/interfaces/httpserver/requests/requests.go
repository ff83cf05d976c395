// Package requests contains HTTP request DTOs for the voice gateway.
package requests

// AvatarSessionRequest is the body for client-keyed avatar session creation.
type AvatarSessionRequest struct {
	ClientID string `json:"clientId" binding:"required"`
	AvatarID string `json:"avatarId,omitempty"`
	VoiceID  string `json:"voiceId,omitempty"`
}

// AvatarStreamRequest dispatches text for the avatar to speak.
type AvatarStreamRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Text      string `json:"text"`
	TaskType  string `json:"taskType,omitempty"`
}

// AvatarInterruptRequest cuts off current avatar speech.
type AvatarInterruptRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// AvatarStopRequest ends an avatar session by either identifier.
type AvatarStopRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	ClientID  string `json:"clientId,omitempty"`
}

// SessionTokenRequest is the body for raw provider session token issuance.
// Field names mirror the provider's API.
type SessionTokenRequest struct {
	Mode          string `json:"mode,omitempty"`
	AvatarID      string `json:"avatar_id,omitempty"`
	AvatarPersona string `json:"avatar_persona,omitempty"`
	IsSandbox     bool   `json:"is_sandbox,omitempty"`
}

// SpeakRequest dispatches a speak task on a raw provider session.
type SpeakRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Text      string `json:"text"`
	TaskType  string `json:"task_type,omitempty"`
}

// InterruptRequest interrupts a raw provider session.
type InterruptRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// OrchestratedStartRequest optionally names the room to create or rejoin.
type OrchestratedStartRequest struct {
	RoomName string `json:"roomName,omitempty"`
}

// OrchestratedStopRequest names the room to tear down.
type OrchestratedStopRequest struct {
	RoomName string `json:"roomName,omitempty"`
}
