package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/school-erp/school-erp/internal/auth"
	"github.com/school-erp/school-erp/internal/observability"
	"github.com/school-erp/school-erp/internal/rbac"
	"github.com/school-erp/school-erp/internal/shared"
	"github.com/school-erp/school-erp/jobs"
)

func newTestRouter(t *testing.T) (http.Handler, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("router-test-secret-value", "schoolerp", time.Hour)
	metrics := observability.NewMetrics()
	router := NewRouter(RouterParams{
		Config:        &Config{AppEnv: "test", RateLimitPerMinute: 1000},
		Authenticator: auth.Authenticator{Tokens: tokens},
		Guard:         rbac.Middleware{Metrics: metrics},
		JobHandler:    jobs.NewHandler(nil, nil),
		Metrics:       metrics,
	})
	return router, tokens
}

func bearer(t *testing.T, tokens *auth.TokenManager, role shared.Role) string {
	t.Helper()
	raw, _, err := tokens.Issue(auth.User{ID: 1, Email: "x@school.test", Role: role, IsActive: true})
	require.NoError(t, err)
	return "Bearer " + raw
}

func TestRouterPublicEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterJobsRequireAdmin(t *testing.T) {
	router, tokens := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/jobs/health", nil)
	req.Header.Set("Authorization", bearer(t, tokens, shared.RoleTeacher))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/jobs/health", nil)
	req.Header.Set("Authorization", bearer(t, tokens, shared.RoleAdmin))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
