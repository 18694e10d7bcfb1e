package shared

import "context"

// Identity is the safe projection of an authenticated user that travels with a
// request. The password hash never crosses this boundary.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	RoleID   int64  `json:"roleId"`
}

type identityContextKey struct{}

// ContextWithIdentity stores the resolved identity in the request context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity, or nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
