package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/optimwalls/Optimwalls/internal/platform/httpx"
	"github.com/optimwalls/Optimwalls/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	sessions  *shared.SessionManager
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		sessions:  sessions,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	// Credential endpoints get a tighter per-IP limit than the global one.
	credentials := httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
	r.With(credentials).Post("/register", h.handleRegister)
	r.With(credentials).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/user", h.handleCurrentUser)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	Message string           `json:"message"`
	User    *shared.Identity `json:"user"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input RegisterInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.RespondError(w, err)
		return
	}

	actor := shared.IdentityFromContext(r.Context())
	user, err := h.service.Register(r.Context(), input, actor)
	if err != nil {
		h.logger.Warn("register failed", slog.String("username", input.Username), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	// Self-service registration logs the new account straight in. An admin
	// creating someone else's account keeps their own session.
	if actor != nil {
		httpx.JSON(w, http.StatusCreated, userResponse{Message: "Registration successful", User: user.Identity()})
		return
	}
	sess, err := h.sessions.Issue(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("issue session", slog.Any("error", err))
		httpx.JSON(w, http.StatusCreated, userResponse{Message: "Registration successful", User: user.Identity()})
		return
	}
	if err := h.service.RegisterSession(r.Context(), sess, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	h.sessions.SetCookie(w, sess)
	httpx.JSON(w, http.StatusCreated, userResponse{Message: "Registration successful", User: user.Identity()})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.RespondError(w, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), input.Username, input.Password)
	if err != nil {
		if err != shared.ErrInvalidCredentials {
			h.logger.Error("authenticate", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}

	sess, err := h.sessions.Issue(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("issue session", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if err := h.service.RegisterSession(r.Context(), sess, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	h.sessions.SetCookie(w, sess)
	httpx.JSON(w, http.StatusOK, userResponse{Message: "Login successful", User: user.Identity()})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := h.sessions.TokenFromRequest(r)
	if token != "" {
		if err := h.sessions.Revoke(r.Context(), token); err != nil {
			h.logger.Warn("revoke session", slog.Any("error", err))
		}
		if err := h.service.RemoveSession(r.Context(), token); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
	}
	h.sessions.ClearCookie(w)
	// Logging out twice is fine.
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	httpx.JSON(w, http.StatusOK, identity)
}
