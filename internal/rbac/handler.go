package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/optimwalls/Optimwalls/internal/platform/httpx"
	"github.com/optimwalls/Optimwalls/internal/shared"
)

// PermissionsHandler exposes the grant table and the administrative reseed.
type PermissionsHandler struct {
	logger  *slog.Logger
	service *Service
	rbac    Middleware
	audit   *shared.AuditLogger
}

// NewPermissionsHandler builds a PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service, rbac Middleware, audit *shared.AuditLogger) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service, rbac: rbac, audit: audit}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceUsers, shared.ActionRead))
		r.Get("/", h.listPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireSuperAdmin)
		r.Post("/reseed", h.reseed)
	})
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, perms)
}

func (h *PermissionsHandler) reseed(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reseed(r.Context(), DefaultRoleSeeds()); err != nil {
		h.logger.Error("reseed permissions", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if identity := shared.IdentityFromContext(r.Context()); identity != nil && h.audit != nil {
		_ = h.audit.Record(r.Context(), shared.AuditLog{
			ActorID:  identity.ID,
			Action:   "reseed",
			Entity:   "permissions",
			EntityID: "all",
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Permissions reseeded"})
}
