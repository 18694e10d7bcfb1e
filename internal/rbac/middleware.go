package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/optimwalls/Optimwalls/internal/platform/httpx"
	"github.com/optimwalls/Optimwalls/internal/shared"
)

// PermissionChecker answers whether a role holds a grant. *Service is the
// production implementation.
type PermissionChecker interface {
	HasPermission(ctx context.Context, roleID int64, resource, action string) (bool, error)
}

// Middleware gates routes on a single (resource, action) permission. It runs
// after identity resolution and before any business logic.
type Middleware struct {
	Service PermissionChecker
	Logger  *slog.Logger
}

// Require rejects requests without an identity (401) or without the named
// permission (403). The 403 body carries the required resource and action.
func (m Middleware) Require(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if identity == nil {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			granted, err := m.Service.HasPermission(r.Context(), identity.RoleID, resource, action)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("permission check",
						slog.Int64("roleId", identity.RoleID),
						slog.String("resource", resource),
						slog.String("action", action),
						slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !granted {
				httpx.RespondError(w, &shared.PermissionError{Resource: resource, Action: action})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSuperAdmin gates administrative routes on the reserved role itself.
func (m Middleware) RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := shared.IdentityFromContext(r.Context())
		if identity == nil {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		if identity.RoleID != shared.SuperAdminRoleID {
			httpx.RespondError(w, shared.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
