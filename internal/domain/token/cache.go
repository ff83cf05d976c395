// Package token caches the ephemeral speech-API credential the mobile client
// uses for its direct realtime connection.
package token

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voice-gateway/internal/infrastructure/metrics"
)

// ClientSecret is a short-lived upstream credential.
type ClientSecret struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at"` // unix seconds, upstream-reported expiry
}

// Exchanger mints a fresh ephemeral token from the upstream speech API.
type Exchanger interface {
	MintEphemeralToken(ctx context.Context) (*ClientSecret, error)
}

// Cache holds one exchangeable ephemeral token and refreshes it lazily on
// demand. There is no background refresh loop: a long idle period past expiry
// simply makes the next caller pay full fetch latency. Refresh is serialized
// under the cache mutex, so at most one upstream fetch happens per expiry
// epoch even under concurrent callers.
type Cache struct {
	mu        sync.Mutex
	exchanger Exchanger
	margin    time.Duration
	cached    *ClientSecret
	now       func() time.Time
	log       zerolog.Logger
}

// NewCache creates a credential cache with the given refresh margin.
func NewCache(exchanger Exchanger, margin time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		exchanger: exchanger,
		margin:    margin,
		now:       time.Now,
		log:       log.With().Str("component", "token-cache").Logger(),
	}
}

// GetToken returns the cached credential while it is comfortably inside its
// validity window, otherwise performs a synchronous fetch-and-replace. On
// success the cache is overwritten unconditionally with the upstream value.
func (c *Cache) GetToken(ctx context.Context) (*ClientSecret, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		remaining := time.Unix(c.cached.ExpiresAt, 0).Sub(c.now())
		if remaining > c.margin {
			metrics.TokenCacheHits.Inc()
			c.log.Debug().Dur("remaining", remaining).Msg("serving cached token")
			return c.cached, nil
		}
	}

	secret, err := c.exchanger.MintEphemeralToken(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("token exchange failed")
		return nil, err
	}

	metrics.TokenRefreshes.Inc()
	c.cached = secret
	c.log.Info().
		Int64("expires_at", secret.ExpiresAt).
		Msg("ephemeral token refreshed")
	return secret, nil
}
