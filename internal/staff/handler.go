package staff

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/school-erp/school-erp/internal/platform/httpx"
	"github.com/school-erp/school-erp/internal/rbac"
	"github.com/school-erp/school-erp/internal/shared"
)

// Handler serves staff record endpoints.
type Handler struct {
	logger *slog.Logger
	repo   Repository
	rbac   rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, repo Repository, guard rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, repo: repo, rbac: guard}
}

// MountRoutes registers staff routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireOwnership(NewOwnership(h.repo), "id", shared.RoleAdmin, shared.RolePrincipal)).
		Get("/{id}", h.get)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.FieldError("id", "must be a positive integer"))
		return
	}
	m, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if httpx.IsServerError(err) {
			h.logger.Error("get staff", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "", m)
}
