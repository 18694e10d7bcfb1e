package mail

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/optimwalls/Optimwalls/internal/platform/httpx"
)

// Handler exposes the unauthenticated token flows: email verification,
// forgot-password and reset-password.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the token flow routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/verify-email", h.handleVerifyEmail)
	r.Post("/forgot-password", h.handleForgotPassword)
	r.Post("/reset-password", h.handleResetPassword)
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "token is required")
		return
	}
	if err := h.service.VerifyEmail(r.Context(), token); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "email verified"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.Error("password reset request", slog.Any("error", err))
	}
	// Same answer regardless of outcome.
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "if the account exists, a reset link has been sent"})
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "password updated"})
}
