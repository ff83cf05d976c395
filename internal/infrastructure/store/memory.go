package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voice-gateway/internal/domain/avatar"
)

// MemoryStore is a mutex-based in-memory avatar session store keyed by
// clientId, with a secondary index on provider session ID.
// Thread-safe via sync.RWMutex.
type MemoryStore struct {
	mu            sync.RWMutex
	records       map[string]*avatar.Record
	providerIndex map[string]string // provider session ID -> client ID
	now           func() time.Time
	log           zerolog.Logger
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore(log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		records:       make(map[string]*avatar.Record),
		providerIndex: make(map[string]string),
		now:           time.Now,
		log:           log.With().Str("component", "session-store").Logger(),
	}
}

// Set merges a partial update onto the record for clientID, creating it if
// absent. CreatedAt is preserved; LastActivity is refreshed.
func (s *MemoryStore) Set(ctx context.Context, clientID string, update avatar.Update) *avatar.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.records[clientID]
	if !ok {
		rec = &avatar.Record{
			ClientID:  clientID,
			CreatedAt: now,
		}
		s.records[clientID] = rec
	}

	if update.ProviderSessionID != "" && update.ProviderSessionID != rec.ProviderSessionID {
		delete(s.providerIndex, rec.ProviderSessionID)
		rec.ProviderSessionID = update.ProviderSessionID
		s.providerIndex[rec.ProviderSessionID] = clientID
	}
	if update.AvatarID != "" {
		rec.AvatarID = update.AvatarID
	}
	if update.RoutingURL != "" {
		rec.RoutingURL = update.RoutingURL
	}
	if update.RoutingToken != "" {
		rec.RoutingToken = update.RoutingToken
	}
	if update.ICEServers != nil {
		rec.ICEServers = update.ICEServers
	}
	if update.Status != "" {
		rec.Status = update.Status
	}
	rec.LastActivity = now

	copied := *rec
	return &copied
}

// Get returns the record for clientID or nil, touching LastActivity.
func (s *MemoryStore) Get(ctx context.Context, clientID string) *avatar.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[clientID]
	if !ok {
		return nil
	}
	rec.LastActivity = s.now()
	copied := *rec
	return &copied
}

// GetByProviderSessionID returns the record holding the given provider
// session, or nil. Uses the secondary index, falling back to a scan for
// records written before their provider session was known.
func (s *MemoryStore) GetByProviderSessionID(ctx context.Context, providerSessionID string) *avatar.Record {
	if providerSessionID == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if clientID, ok := s.providerIndex[providerSessionID]; ok {
		if rec, ok := s.records[clientID]; ok {
			copied := *rec
			return &copied
		}
	}
	for _, rec := range s.records {
		if rec.ProviderSessionID == providerSessionID {
			copied := *rec
			return &copied
		}
	}
	return nil
}

// UpdateStatus transitions the record's status. Returns false if absent.
func (s *MemoryStore) UpdateStatus(ctx context.Context, clientID string, status avatar.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[clientID]
	if !ok {
		return false
	}
	rec.Status = status
	rec.LastActivity = s.now()
	return true
}

// Remove deletes and returns the record, or nil if absent.
func (s *MemoryStore) Remove(ctx context.Context, clientID string) *avatar.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[clientID]
	if !ok {
		return nil
	}
	delete(s.providerIndex, rec.ProviderSessionID)
	delete(s.records, clientID)
	return rec
}

// ListActive returns all records with status active.
func (s *MemoryStore) ListActive(ctx context.Context) []*avatar.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*avatar.Record
	for _, rec := range s.records {
		if rec.Status == avatar.StatusActive {
			copied := *rec
			result = append(result, &copied)
		}
	}
	return result
}

// List returns all records without touching LastActivity.
func (s *MemoryStore) List(ctx context.Context) []*avatar.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*avatar.Record, 0, len(s.records))
	for _, rec := range s.records {
		copied := *rec
		result = append(result, &copied)
	}
	return result
}

// Stats returns session counts by status.
func (s *MemoryStore) Stats(ctx context.Context) avatar.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := avatar.Stats{Total: len(s.records)}
	for _, rec := range s.records {
		switch rec.Status {
		case avatar.StatusCreating:
			stats.Creating++
		case avatar.StatusActive:
			stats.Active++
		case avatar.StatusStopping:
			stats.Stopping++
		case avatar.StatusStopped:
			stats.Stopped++
		}
	}
	return stats
}
