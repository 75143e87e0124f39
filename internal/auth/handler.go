package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/school-erp/school-erp/internal/platform/httpx"
	"github.com/school-erp/school-erp/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authn   Authenticator
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authn Authenticator) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, authn: authn}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(h.authn.Authenticate)
		r.Post("/logout", h.handleLogout)
		r.Get("/me", h.handleMe)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, httpx.FieldError("body", "must be valid JSON"))
		return
	}
	res, err := h.service.Login(r.Context(), in)
	switch {
	case err == nil:
		httpx.Success(w, http.StatusOK, "login successful", res)
	case errors.Is(err, shared.ErrInvalidCredentials):
		httpx.Fail(w, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS", "email or password is incorrect")
	case errors.Is(err, shared.ErrInactiveAccount):
		httpx.Fail(w, http.StatusForbidden, "AUTH_ACCOUNT_INACTIVE", "account is inactive")
	default:
		if httpx.IsServerError(err) {
			h.logger.Error("login", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), shared.PrincipalFromContext(r.Context())); err != nil {
		h.logger.Error("logout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "logged out", nil)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p := shared.PrincipalFromContext(r.Context())
	httpx.Success(w, http.StatusOK, "", map[string]any{
		"id":        p.UserID,
		"email":     p.Email,
		"role":      p.Role,
		"expiresAt": p.ExpiresAt,
	})
}
