// Package auth provides optional bearer-token validation against a JWKS
// endpoint. Disabled by default: the gateway's routes are open to the mobile
// client unless AUTH_ENABLED is set.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"voice-gateway/internal/config"
)

// Validator validates JWTs against the configured JWKS endpoint.
type Validator struct {
	cfg  *config.Config
	log  zerolog.Logger
	jwks *keyfunc.JWKS
}

// NewValidator fetches the JWKS when auth is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	if !cfg.AuthEnabled {
		return &Validator{cfg: cfg, log: log}, nil
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, keyfunc.Options{
		Ctx: ctx,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS: %w", err)
	}

	return &Validator{
		cfg:  cfg,
		log:  log.With().Str("component", "auth").Logger(),
		jwks: jwks,
	}, nil
}

// Middleware enforces bearer auth when enabled.
func (v *Validator) Middleware() gin.HandlerFunc {
	if v == nil || !v.cfg.AuthEnabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		opts := []jwt.ParserOption{jwt.WithIssuer(v.cfg.AuthIssuer)}
		if v.cfg.AuthAudience != "" {
			opts = append(opts, jwt.WithAudience(v.cfg.AuthAudience))
		}

		claims := jwt.MapClaims{}
		parsed, err := jwt.ParseWithClaims(tokenString, claims, v.jwks.Keyfunc, opts...)
		if err != nil || !parsed.Valid {
			v.log.Debug().Err(err).Msg("jwt validation failed")
			abortUnauthorized(c, "invalid token")
			return
		}

		if sub, err := claims.GetSubject(); err == nil {
			c.Set("user_id", sub)
		}
		c.Set("auth_token", parsed)
		c.Next()
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
	})
}
