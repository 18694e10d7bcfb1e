package activities

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/optimwalls/Optimwalls/internal/leads"
	"github.com/optimwalls/Optimwalls/internal/platform/httpx"
	"github.com/optimwalls/Optimwalls/internal/rbac"
	"github.com/optimwalls/Optimwalls/internal/shared"
)

// Handler exposes the activity timeline over HTTP. Creation lives on the
// leads routes; this surface reads the timeline and marks items complete.
type Handler struct {
	logger *slog.Logger
	repo   Repository
	perms  rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo Repository, perms rbac.Middleware) *Handler {
	return &Handler{logger: logger, repo: repo, perms: perms}
}

// MountRoutes registers activity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.perms.Require(shared.ResourceActivities, shared.ActionRead))
		r.Get("/", h.handleList)
		r.Get("/lead/{leadId}", h.handleListByLead)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.perms.Require(shared.ResourceActivities, shared.ActionUpdate))
		r.Patch("/{id}/complete", h.handleComplete)
	})
}

type listResponse struct {
	Activities []leads.Activity  `json:"activities"`
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
		items = []leads.Activity{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Activities: items,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) handleListByLead(w http.ResponseWriter, r *http.Request) {
	leadID, err := strconv.ParseInt(chi.URLParam(r, "leadId"), 10, 64)
	if err != nil || leadID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "leadId must be a positive integer")
		return
	}
	items, err := h.repo.ListByLead(r.Context(), leadID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []leads.Activity{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "id must be a positive integer")
		return
	}
	activity, err := h.repo.Complete(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, activity)
}
