package clients

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/optimwalls/Optimwalls/internal/leads"
	"github.com/optimwalls/Optimwalls/internal/platform/httpx"
	"github.com/optimwalls/Optimwalls/internal/rbac"
	"github.com/optimwalls/Optimwalls/internal/shared"
)

// Handler exposes clients over HTTP. Clients come into being by converting a
// lead, so creation delegates to the lead lifecycle and the uniqueness and
// activity rules apply no matter which surface triggers it.
type Handler struct {
	logger    *slog.Logger
	repo      Repository
	leads     *leads.Service
	perms     rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo Repository, leadSvc *leads.Service, perms rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		repo:      repo,
		leads:     leadSvc,
		perms:     perms,
		validator: validator.New(),
	}
}

// MountRoutes registers client routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.perms.Require(shared.ResourceClients, shared.ActionRead))
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.perms.Require(shared.ResourceClients, shared.ActionCreate))
		r.Post("/", h.handleConvert)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.perms.Require(shared.ResourceClients, shared.ActionUpdate))
		r.Patch("/{id}", h.handleUpdate)
	})
}

type listResponse struct {
	Clients    []Client          `json:"clients"`
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
		items = []Client{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Clients:    items,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	client, err := h.repo.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

type convertRequest struct {
	LeadID int64 `json:"leadId" validate:"required,gt=0"`
}

func (h *Handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	identity := shared.IdentityFromContext(r.Context())
	status := leads.StatusConverted
	if _, err := h.leads.Update(r.Context(), *identity, req.LeadID, leads.UpdateLeadRequest{Status: &status}); err != nil {
		httpx.RespondError(w, err)
		return
	}
	client, err := h.repo.GetByLead(r.Context(), req.LeadID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, client)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateClientRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	client, err := h.repo.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
