package avatar

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"voice-gateway/internal/infrastructure/metrics"
)

// SessionInfo is the connection info returned to a client for its avatar session.
type SessionInfo struct {
	SessionID    string
	RoutingURL   string
	RoutingToken string
	ICEServers   []ICEServer
	Existing     bool
}

// Quota reports concurrent-session headroom against the provider plan.
type Quota struct {
	MaxConcurrent int `json:"max_concurrent"`
	InUse         int `json:"in_use"`
	Available     int `json:"available"`
}

// Service defines the avatar session orchestration operations.
type Service interface {
	// CreateClientSession returns the client's existing session when one is
	// still creating or active, otherwise establishes a new one, consuming a
	// pooled token when the request is pool-eligible.
	CreateClientSession(ctx context.Context, clientID string, params CreateParams) (*SessionInfo, error)

	// IssueSessionToken issues a bare provider session token, from the pool
	// when eligible.
	IssueSessionToken(ctx context.Context, params CreateParams) (*ProviderSession, error)

	// SendText dispatches text-to-speech. Best-effort: never returns an error.
	SendText(ctx context.Context, sessionID, text, taskType string) *TaskResult

	// Interrupt cuts off current avatar speech. Best-effort.
	Interrupt(ctx context.Context, sessionID string) *InterruptResult

	// Stop ends a session identified by provider session ID or client ID.
	Stop(ctx context.Context, sessionID, clientID string)

	// Stats returns store counts and quota headroom.
	Stats(ctx context.Context) (Stats, Quota)
}

type service struct {
	store         Store
	provider      Provider
	pool          *Pool
	defaults      CreateParams
	maxConcurrent int
	log           zerolog.Logger

	// Per-clientId serialization: two concurrent creates for the same client
	// must not both observe "no active session" across the provider call.
	// Entries are refcounted and dropped when the last holder releases, so
	// the table stays proportional to in-flight requests, not to every
	// clientId ever seen.
	clientMu sync.Mutex
	clients  map[string]*clientLock
}

type clientLock struct {
	mu   sync.Mutex
	refs int
}

// NewService creates the avatar session service.
func NewService(store Store, provider Provider, pool *Pool, defaults CreateParams, maxConcurrent int, log zerolog.Logger) Service {
	return &service{
		store:         store,
		provider:      provider,
		pool:          pool,
		defaults:      defaults,
		maxConcurrent: maxConcurrent,
		log:           log.With().Str("component", "avatar-service").Logger(),
		clients:       make(map[string]*clientLock),
	}
}

func (s *service) lockClient(clientID string) func() {
	s.clientMu.Lock()
	l, ok := s.clients[clientID]
	if !ok {
		l = &clientLock{}
		s.clients[clientID] = l
	}
	l.refs++
	s.clientMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.clientMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.clients, clientID)
		}
		s.clientMu.Unlock()
	}
}

func (s *service) CreateClientSession(ctx context.Context, clientID string, params CreateParams) (*SessionInfo, error) {
	unlock := s.lockClient(clientID)
	defer unlock()

	if rec := s.store.Get(ctx, clientID); rec != nil &&
		(rec.Status == StatusCreating || rec.Status == StatusActive) {
		metrics.AvatarSessionsReused.Inc()
		s.log.Info().
			Str("client_id", clientID).
			Str("session_id", rec.ProviderSessionID).
			Msg("returning existing session")
		return &SessionInfo{
			SessionID:    rec.ProviderSessionID,
			RoutingURL:   rec.RoutingURL,
			RoutingToken: rec.RoutingToken,
			ICEServers:   rec.ICEServers,
			Existing:     true,
		}, nil
	}

	s.applyDefaults(&params)
	s.store.Set(ctx, clientID, Update{AvatarID: params.AvatarID, Status: StatusCreating})

	sess, err := s.IssueSessionToken(ctx, params)
	if err != nil {
		s.store.Remove(ctx, clientID)
		return nil, err
	}

	conn, err := s.provider.StartSession(ctx, sess.SessionID)
	if err != nil {
		s.store.Remove(ctx, clientID)
		return nil, err
	}

	s.store.Set(ctx, clientID, Update{
		ProviderSessionID: sess.SessionID,
		RoutingURL:        conn.URL,
		RoutingToken:      conn.AccessToken,
		ICEServers:        conn.ICEServers,
		Status:            StatusActive,
	})

	metrics.AvatarSessionsCreated.Inc()
	metrics.ActiveAvatarSessions.Inc()
	s.log.Info().
		Str("client_id", clientID).
		Str("session_id", sess.SessionID).
		Str("avatar_id", params.AvatarID).
		Msg("avatar session created")

	return &SessionInfo{
		SessionID:    sess.SessionID,
		RoutingURL:   conn.URL,
		RoutingToken: conn.AccessToken,
		ICEServers:   conn.ICEServers,
	}, nil
}

func (s *service) IssueSessionToken(ctx context.Context, params CreateParams) (*ProviderSession, error) {
	s.applyDefaults(&params)

	if s.pool != nil && s.pool.Eligible(params) {
		if pooled := s.pool.Withdraw(); pooled != nil {
			return &ProviderSession{
				SessionID:    pooled.SessionID,
				SessionToken: pooled.SessionToken,
			}, nil
		}
	}

	return s.provider.CreateSession(ctx, params)
}

func (s *service) SendText(ctx context.Context, sessionID, text, taskType string) *TaskResult {
	if rec := s.store.GetByProviderSessionID(ctx, sessionID); rec != nil {
		// Touch so an actively speaking session is never swept.
		s.store.Get(ctx, rec.ClientID)
	}
	return s.provider.SendText(ctx, sessionID, text, taskType)
}

func (s *service) Interrupt(ctx context.Context, sessionID string) *InterruptResult {
	return s.provider.Interrupt(ctx, sessionID)
}

func (s *service) Stop(ctx context.Context, sessionID, clientID string) {
	var rec *Record
	if clientID != "" {
		rec = s.store.Get(ctx, clientID)
	}
	if rec == nil && sessionID != "" {
		rec = s.store.GetByProviderSessionID(ctx, sessionID)
	}

	// The gauge only counted sessions that reached active; a record stopped
	// mid-creation must not drive it negative.
	wasActive := rec != nil && rec.Status == StatusActive

	if rec != nil {
		s.store.UpdateStatus(ctx, rec.ClientID, StatusStopping)
		if sessionID == "" {
			sessionID = rec.ProviderSessionID
		}
	}

	if err := s.provider.StopSession(ctx, sessionID); err != nil {
		// Stop is best-effort: the record is dropped either way and the
		// provider side times the session out on its own.
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("upstream stop failed")
	}

	if rec != nil {
		s.store.Remove(ctx, rec.ClientID)
		if wasActive {
			metrics.ActiveAvatarSessions.Dec()
		}
		s.log.Info().
			Str("client_id", rec.ClientID).
			Str("session_id", rec.ProviderSessionID).
			Msg("avatar session stopped")
	}
}

func (s *service) Stats(ctx context.Context) (Stats, Quota) {
	stats := s.store.Stats(ctx)
	inUse := stats.Creating + stats.Active
	available := s.maxConcurrent - inUse
	if available < 0 {
		available = 0
	}
	return stats, Quota{
		MaxConcurrent: s.maxConcurrent,
		InUse:         inUse,
		Available:     available,
	}
}

func (s *service) applyDefaults(params *CreateParams) {
	if params.AvatarID == "" {
		params.AvatarID = s.defaults.AvatarID
	}
	if params.VoiceID == "" {
		params.VoiceID = s.defaults.VoiceID
	}
	if params.Language == "" {
		params.Language = s.defaults.Language
	}
	if params.Mode == "" {
		params.Mode = s.defaults.Mode
	}
}
