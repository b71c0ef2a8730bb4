package auth

import (
	"context"

	"ideabridge.org/internal/market"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   int64
	Role     market.Role
	Username string
}

// Is reports whether the principal holds role.
func (p Principal) Is(role market.Role) bool { return p.Role == role }

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &principal)
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	v, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || v == nil {
		return Principal{}, false
	}
	return *v, true
}
