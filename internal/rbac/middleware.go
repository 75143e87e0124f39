package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/school-erp/school-erp/internal/platform/httpx"
	"github.com/school-erp/school-erp/internal/shared"
)

// CodeAuthRequired is returned when a guarded route has no principal.
const CodeAuthRequired = "AUTH_REQUIRED"

// Check labels reported to the DecisionRecorder.
const (
	CheckRole       = "role"
	CheckOwnership  = "ownership"
	CheckPermission = "permission"
)

// Decision outcomes reported to the DecisionRecorder.
const (
	OutcomeAllow           = "allow"
	OutcomeDeny            = "deny"
	OutcomeError           = "error"
	OutcomeUnauthenticated = "unauthenticated"
)

// PermissionChecker answers permission-key questions.
type PermissionChecker interface {
	CheckPermission(ctx context.Context, userID int64, role shared.Role, key string) (bool, error)
}

// OwnershipResolver reports whether the principal's own profile is the resource.
type OwnershipResolver interface {
	OwnsResource(ctx context.Context, p *shared.Principal, resourceID int64) (bool, error)
}

// DecisionRecorder counts authorization decisions.
type DecisionRecorder interface {
	ObserveDecision(check, outcome string)
}

// Middleware wires authorization guards for HTTP handlers. Every guard expects
// the authentication middleware to have stored a principal in the context.
type Middleware struct {
	Checker PermissionChecker
	Logger  *slog.Logger
	Metrics DecisionRecorder
}

// RequireRoles allows principals whose role is listed.
func (m Middleware) RequireRoles(roles ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := m.principal(w, r, CheckRole)
			if !ok {
				return
			}
			if !shared.HasRole(roles, p.Role) {
				m.observe(CheckRole, OutcomeDeny)
				httpx.Fail(w, http.StatusForbidden, httpx.CodeForbidden, "role "+string(p.Role)+" is not allowed")
				return
			}
			m.observe(CheckRole, OutcomeAllow)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnership allows bypass roles, or principals whose own profile matches
// the numeric route parameter param.
func (m Middleware) RequireOwnership(resolver OwnershipResolver, param string, bypass ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := m.principal(w, r, CheckOwnership)
			if !ok {
				return
			}
			if shared.HasRole(bypass, p.Role) {
				m.observe(CheckOwnership, OutcomeAllow)
				next.ServeHTTP(w, r)
				return
			}
			resourceID, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
			if err != nil || resourceID <= 0 {
				httpx.RespondError(w, httpx.FieldError(param, "must be a positive integer"))
				return
			}
			owns, err := resolver.OwnsResource(r.Context(), p, resourceID)
			if err != nil {
				m.internalError(w, CheckOwnership, p, param, err)
				return
			}
			if !owns {
				m.observe(CheckOwnership, OutcomeDeny)
				httpx.Fail(w, http.StatusForbidden, httpx.CodeForbidden, "you do not have access to this resource")
				return
			}
			m.observe(CheckOwnership, OutcomeAllow)
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission allows principals granted key, or whose role is in fallback.
func (m Middleware) RequirePermission(key string, fallback ...shared.Role) func(http.Handler) http.Handler {
	return m.RequireAnyPermission([]string{key}, fallback...)
}

// RequireAnyPermission allows principals granted at least one of keys, or whose
// role is in fallback. Keys are checked in order.
func (m Middleware) RequireAnyPermission(keys []string, fallback ...shared.Role) func(http.Handler) http.Handler {
	normalized := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = NormalizeKey(k); k != "" {
			normalized = append(normalized, k)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := m.principal(w, r, CheckPermission)
			if !ok {
				return
			}
			for _, key := range normalized {
				allowed, err := m.Checker.CheckPermission(r.Context(), p.UserID, p.Role, key)
				if err != nil {
					m.internalError(w, CheckPermission, p, key, err)
					return
				}
				if allowed {
					m.observe(CheckPermission, OutcomeAllow)
					next.ServeHTTP(w, r)
					return
				}
			}
			if shared.HasRole(fallback, p.Role) {
				m.observe(CheckPermission, OutcomeAllow)
				next.ServeHTTP(w, r)
				return
			}
			m.observe(CheckPermission, OutcomeDeny)
			httpx.Fail(w, http.StatusForbidden, httpx.CodeForbidden, "missing permission: "+strings.Join(normalized, " or "))
		})
	}
}

func (m Middleware) principal(w http.ResponseWriter, r *http.Request, check string) (*shared.Principal, bool) {
	p := shared.PrincipalFromContext(r.Context())
	if p == nil || p.UserID <= 0 {
		m.observe(check, OutcomeUnauthenticated)
		httpx.Fail(w, http.StatusUnauthorized, CodeAuthRequired, "authentication required")
		return nil, false
	}
	return p, true
}

func (m Middleware) internalError(w http.ResponseWriter, check string, p *shared.Principal, subject string, err error) {
	m.observe(check, OutcomeError)
	if m.Logger != nil {
		m.Logger.Error("authorization check failed",
			slog.String("check", check),
			slog.Int64("user_id", p.UserID),
			slog.String("role", string(p.Role)),
			slog.String("subject", subject),
			slog.Any("error", err))
	}
	httpx.Fail(w, http.StatusInternalServerError, httpx.CodeInternal, "internal server error")
}

func (m Middleware) observe(check, outcome string) {
	if m.Metrics != nil {
		m.Metrics.ObserveDecision(check, outcome)
	}
}
