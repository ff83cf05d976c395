package heygen

import (
	"encoding/json"

	"voice-gateway/internal/domain/avatar"
)

// The provider's response shapes are inconsistent across endpoints and API
// generations. Extraction is an ordered list of pure strategies tried in
// sequence; the first match wins. Unrecognized shapes are a protocol error
// surfaced by the caller.

type tokenExtractor func(map[string]any) *avatar.ProviderSession

var tokenExtractors = []tokenExtractor{
	extractTokenEnvelope,
	extractTokenFlat,
	extractTokenAlternate,
}

// extractTokenEnvelope handles the coded envelope with nested data:
// {"code": 100, "data": {"session_id": "...", "session_token": "..."}}
func extractTokenEnvelope(body map[string]any) *avatar.ProviderSession {
	data, ok := body["data"].(map[string]any)
	if !ok {
		return nil
	}
	id := stringField(data, "session_id")
	if id == "" {
		return nil
	}
	return &avatar.ProviderSession{
		SessionID:    id,
		SessionToken: firstString(data, "session_token", "token", "access_token"),
	}
}

// extractTokenFlat handles the flat shape:
// {"session_id": "...", "session_token": "..."}
func extractTokenFlat(body map[string]any) *avatar.ProviderSession {
	id := stringField(body, "session_id")
	if id == "" {
		return nil
	}
	return &avatar.ProviderSession{
		SessionID:    id,
		SessionToken: firstString(body, "session_token", "token", "access_token"),
	}
}

// extractTokenAlternate handles camel-cased field names seen on older builds:
// {"data": {"sessionId": "...", "sessionToken": "..."}} and its flat variant.
func extractTokenAlternate(body map[string]any) *avatar.ProviderSession {
	scope := body
	if data, ok := body["data"].(map[string]any); ok {
		scope = data
	}
	id := stringField(scope, "sessionId")
	if id == "" {
		return nil
	}
	return &avatar.ProviderSession{
		SessionID:    id,
		SessionToken: firstString(scope, "sessionToken", "token"),
	}
}

type connectionExtractor func(map[string]any) *avatar.ConnectionInfo

var connectionExtractors = []connectionExtractor{
	extractConnectionEnvelope,
	extractConnectionFlat,
}

// extractConnectionEnvelope handles {"data": {"url": ..., "access_token": ..., "ice_servers": [...]}}.
func extractConnectionEnvelope(body map[string]any) *avatar.ConnectionInfo {
	data, ok := body["data"].(map[string]any)
	if !ok {
		return nil
	}
	return extractConnectionFlat(data)
}

// extractConnectionFlat handles the same fields at top level, tolerating
// livekit-prefixed names returned by the legacy generation.
func extractConnectionFlat(body map[string]any) *avatar.ConnectionInfo {
	url := firstString(body, "url", "livekit_url", "ws_url")
	if url == "" {
		return nil
	}
	info := &avatar.ConnectionInfo{
		URL:         url,
		AccessToken: firstString(body, "access_token", "livekit_token", "token"),
	}
	if raw, ok := body["ice_servers"]; ok {
		info.ICEServers = decodeICEServers(raw)
	}
	return info
}

func decodeICEServers(raw any) []avatar.ICEServer {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var servers []avatar.ICEServer
	if err := json.Unmarshal(encoded, &servers); err != nil {
		return nil
	}
	return servers
}

func stringField(m map[string]any, key string) string {
	value, _ := m[key].(string)
	return value
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := stringField(m, key); value != "" {
			return value
		}
	}
	return ""
}
