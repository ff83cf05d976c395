package avatar

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voice-gateway/internal/infrastructure/metrics"
)

// PooledSession is a pre-warmed provider session token.
type PooledSession struct {
	SessionToken string
	SessionID    string
	CreatedAt    time.Time
}

// Pool maintains a bounded FIFO of pre-generated session tokens so the hot
// path never waits on provider token issuance. Entries expire after a TTL
// and are pruned from the front before any withdrawal. Replenishment runs in
// the background after each withdrawal; its failure is logged and retried
// only on the next withdrawal, never proactively.
type Pool struct {
	mu       sync.Mutex
	entries  []PooledSession
	capacity int
	ttl      time.Duration

	provider      Provider
	defaults      CreateParams
	replenishWait time.Duration
	now           func() time.Time
	log           zerolog.Logger
}

// NewPool creates a session pool. defaults are the provider parameters used
// for every pooled issuance; only requests matching them may consume entries.
func NewPool(provider Provider, defaults CreateParams, capacity int, ttl time.Duration, log zerolog.Logger) *Pool {
	return &Pool{
		capacity:      capacity,
		ttl:           ttl,
		provider:      provider,
		defaults:      defaults,
		replenishWait: 500 * time.Millisecond,
		now:           time.Now,
		log:           log.With().Str("component", "session-pool").Logger(),
	}
}

// Eligible reports whether a request may consume a pooled entry. Any
// customization forces a fresh, uncached issuance.
func (p *Pool) Eligible(params CreateParams) bool {
	return params.AvatarID == p.defaults.AvatarID &&
		params.Mode == p.defaults.Mode &&
		params.Persona == "" &&
		params.ContextID == "" &&
		!params.Sandbox
}

// Prewarm fills the pool to capacity. Failures are logged, not fatal: a cold
// pool only costs the first callers issuance latency.
func (p *Pool) Prewarm(ctx context.Context) {
	for i := 0; i < p.capacity; i++ {
		if err := p.Replenish(ctx); err != nil {
			p.log.Warn().Err(err).Int("filled", i).Msg("prewarm stopped early")
			return
		}
	}
	p.log.Info().Int("size", p.capacity).Msg("session pool prewarmed")
}

// Withdraw prunes expired entries from the front, then returns the oldest
// remaining entry, or nil if the pool is empty. A successful withdrawal
// schedules an asynchronous replenish so the caller never waits on refill.
func (p *Pool) Withdraw() *PooledSession {
	p.mu.Lock()
	p.pruneLocked()

	if len(p.entries) == 0 {
		p.mu.Unlock()
		metrics.RecordPoolWithdrawal(false)
		return nil
	}

	entry := p.entries[0]
	p.entries = p.entries[1:]
	remaining := len(p.entries)
	p.mu.Unlock()

	metrics.RecordPoolWithdrawal(true)
	p.log.Debug().
		Str("session_id", entry.SessionID).
		Int("remaining", remaining).
		Msg("pooled session withdrawn")

	go func() {
		time.Sleep(p.replenishWait)
		if err := p.Replenish(context.Background()); err != nil {
			metrics.PoolReplenishFailures.Inc()
			p.log.Warn().Err(err).Msg("background replenish failed")
		}
	}()

	return &entry
}

// Replenish issues exactly one new token and appends it, unless the pool is
// already at capacity.
func (p *Pool) Replenish(ctx context.Context) error {
	p.mu.Lock()
	if len(p.entries) >= p.capacity {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	sess, err := p.provider.CreateSession(ctx, p.defaults)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) >= p.capacity {
		// Filled concurrently; the extra token is abandoned and left to the
		// provider-side session timeout.
		return nil
	}
	p.entries = append(p.entries, PooledSession{
		SessionToken: sess.SessionToken,
		SessionID:    sess.SessionID,
		CreatedAt:    p.now(),
	})
	p.log.Debug().Str("session_id", sess.SessionID).Int("size", len(p.entries)).Msg("pool replenished")
	return nil
}

// Size returns the current number of pooled entries.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// pruneLocked drops expired entries from the front, preserving FIFO order.
func (p *Pool) pruneLocked() {
	cutoff := p.now().Add(-p.ttl)
	for len(p.entries) > 0 && p.entries[0].CreatedAt.Before(cutoff) {
		p.log.Debug().Str("session_id", p.entries[0].SessionID).Msg("pruned expired pool entry")
		p.entries = p.entries[1:]
	}
}
