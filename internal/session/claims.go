package session

import (
	"time"

	"ideabridge.org/internal/auth"
	"ideabridge.org/internal/market"
)

// TokenClaims is what a client may read from its own bearer token.
type TokenClaims struct {
	UserID    int64
	Role      market.Role
	Username  string
	ExpiresAt time.Time
}

// Expired reports whether the exp claim has passed. Nothing refreshes or
// discards a session because of it; the server stays authoritative.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Claims decodes token without verifying its signature.
func Claims(token string) (TokenClaims, error) {
	raw, err := auth.Inspect(token)
	if err != nil {
		return TokenClaims{}, err
	}
	out := TokenClaims{Role: raw.Role, Username: raw.Username}
	if id, err := raw.UserID(); err == nil {
		out.UserID = id
	}
	if raw.ExpiresAt != nil {
		out.ExpiresAt = raw.ExpiresAt.Time
	}
	return out, nil
}
