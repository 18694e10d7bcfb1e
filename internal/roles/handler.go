// Package roles lists the role catalogue with each role's grants.
package roles

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/optimwalls/Optimwalls/internal/platform/httpx"
	"github.com/optimwalls/Optimwalls/internal/rbac"
	"github.com/optimwalls/Optimwalls/internal/shared"
)

// RoleView is a role joined with its explicit grants. SuperAdmin shows its
// seeded grants even though enforcement bypasses them.
type RoleView struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Permissions []rbac.Grant `json:"permissions"`
}

// Handler serves the role catalogue.
type Handler struct {
	logger *slog.Logger
	pool   *pgxpool.Pool
	rbac   *rbac.Service
	perms  rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, pool *pgxpool.Pool, svc *rbac.Service, perms rbac.Middleware) *Handler {
	return &Handler{logger: logger, pool: pool, rbac: svc, perms: perms}
}

// MountRoutes registers role routes behind users:read, the same gate as the
// staff directory.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.perms.Require(shared.ResourceUsers, shared.ActionRead))
		r.Get("/", h.handleList)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.listRoles(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) listRoles(ctx context.Context) ([]RoleView, error) {
	rows, err := h.pool.Query(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []RoleView
	for rows.Next() {
		var v RoleView
		if err := rows.Scan(&v.ID, &v.Name); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	perms, err := h.rbac.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	byRole := make(map[int64][]rbac.Grant)
	for _, p := range perms {
		byRole[p.RoleID] = append(byRole[p.RoleID], rbac.Grant{Resource: p.Resource, Action: p.Action})
	}
	for i := range views {
		grants := byRole[views[i].ID]
		if grants == nil {
			grants = []rbac.Grant{}
		}
		views[i].Permissions = grants
	}
	return views, nil
}
