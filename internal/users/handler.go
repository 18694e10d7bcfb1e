package users

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/optimwalls/Optimwalls/internal/platform/httpx"
	"github.com/optimwalls/Optimwalls/internal/rbac"
	"github.com/optimwalls/Optimwalls/internal/shared"
)

// Handler exposes the staff directory. Role reassignment is an administrative
// mutation and lands in the audit log.
type Handler struct {
	logger    *slog.Logger
	repo      Repository
	perms     rbac.Middleware
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo Repository, perms rbac.Middleware, audit *shared.AuditLogger) *Handler {
	return &Handler{
		logger:    logger,
		repo:      repo,
		perms:     perms,
		audit:     audit,
		validator: validator.New(),
	}
}

// MountRoutes registers user directory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.perms.Require(shared.ResourceUsers, shared.ActionRead))
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.perms.Require(shared.ResourceUsers, shared.ActionUpdate))
		r.Patch("/{id}/role", h.handleUpdateRole)
	})
}

type listResponse struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, perPage := 1, 50
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := q.Get("perPage"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			perPage = n
		}
	}

	items, total, err := h.repo.List(r.Context(), page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []User{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Users:      items,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	user, err := h.repo.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

type updateRoleRequest struct {
	RoleID int64 `json:"roleId" validate:"required,gt=0"`
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	exists, err := h.repo.RoleExists(r.Context(), req.RoleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !exists {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown role")
		return
	}

	identity := shared.IdentityFromContext(r.Context())
	// Demoting yourself out of SuperAdmin can lock the tenant out of
	// administration entirely.
	if identity.ID == id && identity.RoleID == shared.SuperAdminRoleID && req.RoleID != shared.SuperAdminRoleID {
		httpx.Problem(w, http.StatusConflict, "Conflict", "cannot remove your own SuperAdmin role")
		return
	}

	user, err := h.repo.UpdateRole(r.Context(), id, req.RoleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  identity.ID,
		Action:   "role_change",
		Entity:   "user",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     map[string]any{"roleId": req.RoleID},
	}); err != nil {
		h.logger.Error("record role change", slog.Any("error", err))
	}

	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
