package auth

import (
	"log/slog"
	"net/http"

	"github.com/optimwalls/Optimwalls/internal/shared"
)

// IdentityMiddleware resolves the session cookie into an Identity on every
// request. Anonymous requests pass through unchanged; permission-gated routes
// reject them further down the chain.
type IdentityMiddleware struct {
	Logger   *slog.Logger
	Sessions *shared.SessionManager
	Service  *Service
}

// Handler is the chi middleware entry point.
func (m *IdentityMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.Sessions.TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		sess, err := m.Sessions.Resolve(ctx, token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("resolve session", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := m.Service.ResolveIdentity(ctx, sess.UserID)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("resolve identity", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		if identity == nil {
			// User row gone; drop the orphaned session.
			_ = m.Sessions.Revoke(ctx, token)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(ctx, identity)))
	})
}
