package leads

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/optimwalls/Optimwalls/internal/platform/httpx"
	"github.com/optimwalls/Optimwalls/internal/rbac"
	"github.com/optimwalls/Optimwalls/internal/shared"
)

// Handler exposes the lead pipeline over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	perms     rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, perms rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		perms:     perms,
		validator: validator.New(),
	}
}

// MountRoutes registers lead routes. Every route is permission-gated; the
// score endpoint rides on read access.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.perms.Require(shared.ResourceLeads, shared.ActionRead))
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Get("/{id}/score", h.handleScore)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.perms.Require(shared.ResourceLeads, shared.ActionCreate))
		r.Post("/", h.handleCreate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.perms.Require(shared.ResourceLeads, shared.ActionUpdate))
		r.Patch("/{id}", h.handleUpdate)
		// Logging an activity on a lead is an update to that lead, so it
		// rides on leads:update rather than the activities resource.
		r.Post("/{id}/activities", h.handleAddActivity)
	})
}

type listResponse struct {
	Leads      []Lead            `json:"leads"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	req := ListLeadsRequest{Page: 1, PerPage: 50}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		req.Status = &v
	}
	if v := q.Get("assignedTo"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "assignedTo must be an integer")
			return
		}
		req.AssignedTo = &id
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			req.Page = n
		}
	}
	if v := q.Get("perPage"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			req.PerPage = n
		}
	}

	leads, total, err := h.service.List(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if leads == nil {
		leads = []Lead{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Leads:      leads,
		Pagination: shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	lead, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	lead, err := h.service.Create(r.Context(), *identity, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lead)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	lead, err := h.service.Update(r.Context(), *identity, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

type scoreResponse struct {
	LeadID int64 `json:"leadId"`
	Score  int   `json:"score"`
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	_, score, err := h.service.ScoreLead(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, scoreResponse{LeadID: id, Score: score})
}

func (h *Handler) handleAddActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req AddActivityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	activity, err := h.service.AddActivity(r.Context(), *identity, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, activity)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
