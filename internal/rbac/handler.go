package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/school-erp/school-erp/internal/platform/httpx"
	"github.com/school-erp/school-erp/internal/shared"
)

// Handler exposes the permission management API.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers permission routes. The router must already run the
// authentication middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Get("/check", h.check)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(shared.PermPermissionsView, shared.RoleAdmin))
		r.Get("/", h.list)
		r.Get("/hierarchy", h.listHierarchy)
		r.Get("/roles/{role}/inherited", h.inherited)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(shared.PermPermissionsManage, shared.RoleAdmin))
		r.Post("/initialize", h.initialize)
		r.Post("/", h.create)
		r.Put("/roles", h.setRolePermissions)
		r.Put("/users", h.setUserPermissions)
		r.Put("/hierarchy", h.upsertHierarchy)
		r.Delete("/hierarchy", h.deleteHierarchy)
	})
}

func (h *Handler) initialize(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Initialize(r.Context(), actorID(r))
	if err != nil {
		h.fail(w, "initialize permissions", err)
		return
	}
	httpx.Success(w, http.StatusOK, "permission catalog initialized", res)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreatePermissionInput
	if !h.decode(w, r, &in) {
		return
	}
	perm, err := h.service.CreatePermission(r.Context(), actorID(r), in)
	if err != nil {
		h.fail(w, "create permission", err)
		return
	}
	httpx.Success(w, http.StatusCreated, "permission created", perm)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.fail(w, "list permissions", err)
		return
	}
	httpx.Success(w, http.StatusOK, "", perms)
}

func (h *Handler) setRolePermissions(w http.ResponseWriter, r *http.Request) {
	var in RoleGrantsInput
	if !h.decode(w, r, &in) {
		return
	}
	res, err := h.service.SetRolePermissions(r.Context(), actorID(r), in)
	if err != nil {
		h.fail(w, "set role permissions", err)
		return
	}
	httpx.Success(w, http.StatusOK, "role permissions updated", res)
}

func (h *Handler) setUserPermissions(w http.ResponseWriter, r *http.Request) {
	var in UserGrantsInput
	if !h.decode(w, r, &in) {
		return
	}
	res, err := h.service.SetUserPermissions(r.Context(), actorID(r), in)
	if err != nil {
		h.fail(w, "set user permissions", err)
		return
	}
	httpx.Success(w, http.StatusOK, "user permissions updated", res)
}

func (h *Handler) listHierarchy(w http.ResponseWriter, r *http.Request) {
	edges, err := h.service.ListHierarchy(r.Context())
	if err != nil {
		h.fail(w, "list hierarchy", err)
		return
	}
	httpx.Success(w, http.StatusOK, "", edges)
}

func (h *Handler) upsertHierarchy(w http.ResponseWriter, r *http.Request) {
	var in HierarchyInput
	if !h.decode(w, r, &in) {
		return
	}
	edge, err := h.service.UpsertHierarchy(r.Context(), actorID(r), in)
	if err != nil {
		h.fail(w, "upsert hierarchy", err)
		return
	}
	httpx.Success(w, http.StatusOK, "hierarchy updated", edge)
}

func (h *Handler) deleteHierarchy(w http.ResponseWriter, r *http.Request) {
	var in HierarchyInput
	if !h.decode(w, r, &in) {
		return
	}
	if err := h.service.DeleteHierarchy(r.Context(), actorID(r), in); err != nil {
		h.fail(w, "delete hierarchy", err)
		return
	}
	httpx.Success(w, http.StatusOK, "hierarchy edge removed", nil)
}

func (h *Handler) inherited(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.InheritedRoles(r.Context(), chi.URLParam(r, "role"))
	if err != nil {
		h.fail(w, "resolve inherited roles", err)
		return
	}
	httpx.Success(w, http.StatusOK, "", map[string]any{"role": roles[0], "inherited": roles})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p := shared.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.Fail(w, http.StatusUnauthorized, CodeAuthRequired, "authentication required")
		return
	}
	keys, err := h.service.EffectivePermissions(r.Context(), p.UserID, p.Role)
	if err != nil {
		h.fail(w, "effective permissions", err)
		return
	}
	httpx.Success(w, http.StatusOK, "", map[string]any{
		"userId":      p.UserID,
		"role":        p.Role,
		"permissions": keys,
	})
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	p := shared.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.Fail(w, http.StatusUnauthorized, CodeAuthRequired, "authentication required")
		return
	}
	res, err := h.service.Explain(r.Context(), p, r.URL.Query().Get("key"))
	if err != nil {
		h.fail(w, "check permission", err)
		return
	}
	httpx.Success(w, http.StatusOK, "", res)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.RespondError(w, httpx.FieldError("body", "must be valid JSON"))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func actorID(r *http.Request) int64 {
	if p := shared.PrincipalFromContext(r.Context()); p != nil {
		return p.UserID
	}
	return 0
}
