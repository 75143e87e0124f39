package students

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/school-erp/school-erp/internal/platform/httpx"
	"github.com/school-erp/school-erp/internal/rbac"
	"github.com/school-erp/school-erp/internal/shared"
)

// Handler serves student profile endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	ownership rbac.OwnershipResolver
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, ownership rbac.OwnershipResolver, guard rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, ownership: ownership, rbac: guard}
}

// MountRoutes registers student routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireRoles(shared.RoleAdmin, shared.RolePrincipal, shared.RoleTeacher)).
		Get("/", h.list)
	r.With(h.rbac.RequireOwnership(h.ownership, "id", shared.RoleAdmin, shared.RolePrincipal, shared.RoleTeacher)).
		Get("/{id}", h.get)
	r.With(h.rbac.RequirePermission(shared.PermStudentsPromote, shared.RoleAdmin)).
		Get("/{id}/promote-eligibility", h.promoteEligibility)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, "list students", err)
		return
	}
	httpx.Success(w, http.StatusOK, "", out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	st, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get student", err)
		return
	}
	httpx.Success(w, http.StatusOK, "", st)
}

func (h *Handler) promoteEligibility(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := h.service.PromoteEligibility(r.Context(), id)
	if err != nil {
		h.fail(w, "promote eligibility", err)
		return
	}
	httpx.Success(w, http.StatusOK, "", e)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.FieldError("id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}
