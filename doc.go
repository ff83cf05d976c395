// Package voicegateway implements the orchestration gateway for a mobile
// voice assistant. It brokers short-lived credentials and session lifecycles
// between the client and three upstream services.
//
// The gateway provides:
//   - Cached ephemeral speech-API credentials with lazy refresh
//   - Raw SDP call setup passthrough to the speech API
//   - Streaming-avatar session management keyed by client, with a pre-warm
//     token pool and stale-session sweeping
//   - Raw avatar provider session token issuance, speak and interrupt
//   - Orchestrated room sessions with scoped participant tokens
//   - Optional JWT bearer authentication via JWKS
package voicegateway
