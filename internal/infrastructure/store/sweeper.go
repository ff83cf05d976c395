package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voice-gateway/internal/domain/avatar"
	"voice-gateway/internal/infrastructure/metrics"
)

// Sweeper removes abandoned avatar session records on a fixed interval.
// Any record whose LastActivity is older than the stale threshold is removed
// regardless of status — including active sessions abandoned by disconnected
// clients. This is the store's only reclamation mechanism.
type Sweeper struct {
	store     avatar.Store
	staleTTL  time.Duration
	interval  time.Duration
	log       zerolog.Logger
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewSweeper creates a session sweeper.
func NewSweeper(store avatar.Store, staleTTL, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		staleTTL: staleTTL,
		interval: interval,
		log:      log.With().Str("component", "session-sweeper").Logger(),
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop in background.
// Safe to call multiple times - only the first call starts the sweeper.
func (s *Sweeper) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.run(ctx)
		s.log.Info().
			Dur("interval", s.interval).
			Dur("stale_ttl", s.staleTTL).
			Msg("session sweeper started")
	})
}

// Stop gracefully shuts down the sweeper.
// Safe to call multiple times - only the first call stops the sweeper.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.log.Info().Msg("session sweeper stopped")
	})
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("context cancelled, shutting down sweeper")
			return
		case <-s.done:
			s.log.Debug().Msg("done signal received, shutting down sweeper")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep removes every record staler than the threshold and returns the count.
func (s *Sweeper) Sweep(ctx context.Context) int {
	cutoff := time.Now().Add(-s.staleTTL)
	removed := 0

	for _, rec := range s.store.List(ctx) {
		if rec.LastActivity.After(cutoff) {
			continue
		}
		if dropped := s.store.Remove(ctx, rec.ClientID); dropped != nil {
			removed++
			metrics.SweepDeletions.Inc()
			if dropped.Status == avatar.StatusActive {
				metrics.ActiveAvatarSessions.Dec()
			}
			s.log.Info().
				Str("client_id", rec.ClientID).
				Str("session_id", rec.ProviderSessionID).
				Str("status", string(rec.Status)).
				Dur("idle", time.Since(rec.LastActivity)).
				Msg("stale session removed")
		}
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("sweep cycle completed")
	}
	return removed
}
