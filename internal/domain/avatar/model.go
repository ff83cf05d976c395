package avatar

import "time"

// Status represents the lifecycle state of an avatar session.
type Status string

const (
	// StatusCreating indicates the provider session is being established.
	StatusCreating Status = "creating"
	// StatusActive indicates the avatar is live and reachable.
	StatusActive Status = "active"
	// StatusStopping indicates a stop has been requested.
	StatusStopping Status = "stopping"
	// StatusStopped indicates the session has ended.
	StatusStopped Status = "stopped"
)

// ICEServer describes a STUN/TURN server handed to the client.
type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// Record is a per-client avatar session record. One active session per
// clientId: a create request while one is active returns the existing record.
type Record struct {
	ClientID          string      `json:"client_id"`
	ProviderSessionID string      `json:"provider_session_id"`
	AvatarID          string      `json:"avatar_id"`
	RoutingURL        string      `json:"routing_url"`
	RoutingToken      string      `json:"routing_token"`
	ICEServers        []ICEServer `json:"ice_servers,omitempty"`
	Status            Status      `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	LastActivity      time.Time   `json:"last_activity"`
}

// Update is a partial record merged onto an existing one by Store.Set.
// Zero-valued fields are left untouched; CreatedAt is never overwritten.
type Update struct {
	ProviderSessionID string
	AvatarID          string
	RoutingURL        string
	RoutingToken      string
	ICEServers        []ICEServer
	Status            Status
}

// Stats holds session counts by status.
type Stats struct {
	Total    int `json:"total"`
	Creating int `json:"creating"`
	Active   int `json:"active"`
	Stopping int `json:"stopping"`
	Stopped  int `json:"stopped"`
}
