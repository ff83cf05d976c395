package avatar

import "context"

// SessionMode selects the provider conversation mode.
const (
	// ModeFull lets the provider drive its own conversation AI.
	ModeFull = "FULL"
	// ModeCustom is BYOLI: externally generated audio drives the avatar.
	ModeCustom = "CUSTOM"
)

// CreateParams are the inputs for issuing a provider session token.
// ContextID ties the session to a prior provider-side conversation context.
type CreateParams struct {
	AvatarID  string
	VoiceID   string
	Persona   string
	Language  string
	Mode      string
	ContextID string
	Sandbox   bool
}

// ProviderSession is an issued provider session token pair.
type ProviderSession struct {
	SessionID    string `json:"session_id"`
	SessionToken string `json:"session_token"`
}

// ConnectionInfo is the media-routing connection info returned by session start.
type ConnectionInfo struct {
	URL         string      `json:"url"`
	AccessToken string      `json:"access_token"`
	ICEServers  []ICEServer `json:"ice_servers,omitempty"`
}

// TaskResult is the outcome of a text-to-speech dispatch. TaskID is nil on
// soft failure; Error carries the upstream message when both endpoints failed.
type TaskResult struct {
	TaskID *string `json:"task_id"`
	Error  string  `json:"error,omitempty"`
}

// InterruptResult is the outcome of an interrupt. A false Success is benign:
// interrupting an avatar that is not speaking is expected to fail upstream.
type InterruptResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Provider is the adapter to the external streaming-avatar API family.
//
// SendText and Interrupt are best-effort signaling operations and never
// return an error: delivery failure must not abort the caller's flow.
type Provider interface {
	CreateSession(ctx context.Context, params CreateParams) (*ProviderSession, error)
	StartSession(ctx context.Context, sessionID string) (*ConnectionInfo, error)
	SendText(ctx context.Context, sessionID, text, taskType string) *TaskResult
	Interrupt(ctx context.Context, sessionID string) *InterruptResult
	StopSession(ctx context.Context, sessionID string) error
}
