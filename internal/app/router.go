package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/school-erp/school-erp/internal/audit/http"
	"github.com/school-erp/school-erp/internal/auth"
	"github.com/school-erp/school-erp/internal/observability"
	"github.com/school-erp/school-erp/internal/rbac"
	"github.com/school-erp/school-erp/internal/shared"
	"github.com/school-erp/school-erp/internal/staff"
	"github.com/school-erp/school-erp/internal/students"
	"github.com/school-erp/school-erp/internal/users"
	"github.com/school-erp/school-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Authenticator auth.Authenticator
	Guard         rbac.Middleware

	AuthHandler        *auth.Handler
	PermissionsHandler *rbac.Handler
	AuditHandler       *audithttp.Handler
	UsersHandler       *users.Handler
	StudentsHandler    *students.Handler
	StaffHandler       *staff.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with School ERP defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}

	r.Group(func(r chi.Router) {
		r.Use(params.Authenticator.Authenticate)

		if params.PermissionsHandler != nil {
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(r, params.Guard.RequireRoles(shared.RoleAdmin, shared.RolePrincipal))
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.StudentsHandler != nil {
			r.Route("/students", params.StudentsHandler.MountRoutes)
		}
		if params.StaffHandler != nil {
			r.Route("/staff", params.StaffHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(params.Guard.RequireRoles(shared.RoleAdmin))
				params.JobHandler.MountRoutes(r)
			})
		}
	})

	return r
}
