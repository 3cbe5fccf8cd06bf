package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/golang-jwt/jwt/v5"
)

// Tokens reads the persisted bearer token. Tokens that are JWTs past their
// expiry are reported as absent; opaque tokens are passed through.
type Tokens struct {
	store storage.Store
	now   func() time.Time
}

func NewTokens(store storage.Store) *Tokens {
	return &Tokens{store: store, now: time.Now}
}

func (t *Tokens) Token(ctx context.Context) string {
	token, err := storage.GetString(ctx, t.store, storage.KeyAuthToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read auth token", "error", err)
		return ""
	}
	if token == "" || t.expired(token) {
		return ""
	}
	return token
}

func (t *Tokens) expired(token string) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(t.now())
}
