package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/optimwalls/Optimwalls/internal/platform/httpx"
	"github.com/optimwalls/Optimwalls/internal/rbac"
	"github.com/optimwalls/Optimwalls/internal/shared"
)

// Handler serves the dashboard rollup. The same payload answers on both
// stats routes for older clients.
type Handler struct {
	logger  *slog.Logger
	service *Service
	perms   rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, perms rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, perms: perms}
}

// MountRoutes registers both stats routes behind stats:read.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.perms.Require(shared.ResourceStats, shared.ActionRead))
		r.Get("/stats", h.handleStats)
		r.Get("/dashboard/stats", h.handleStats)
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	stats, err := h.service.Collect(r.Context(), identity.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
