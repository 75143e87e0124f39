package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/school-erp/school-erp/internal/rbac"
	"github.com/school-erp/school-erp/internal/shared"
)

type memoryUsers struct {
	users      []User
	lastFilter ListFilter
}

func (m *memoryUsers) ListUsers(ctx context.Context, filter ListFilter) ([]User, error) {
	m.lastFilter = filter
	var out []User
	for _, u := range m.users {
		if filter.Role == "" || u.Role == filter.Role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryUsers) FindByID(ctx context.Context, id int64) (User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *memoryUsers) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := m.FindByID(ctx, id)
	return err == nil, nil
}

type denyAll struct{}

func (denyAll) CheckPermission(ctx context.Context, userID int64, role shared.Role, key string) (bool, error) {
	return false, nil
}

func newUsersRouter(repo *memoryUsers) http.Handler {
	h := NewHandler(nil, NewService(repo), rbac.Middleware{Checker: denyAll{}})
	r := chi.NewRouter()
	r.Route("/users", h.MountRoutes)
	return r
}

func request(router http.Handler, target string, p *shared.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestUsersRoutes(t *testing.T) {
	repo := &memoryUsers{users: []User{
		{ID: 1, Email: "admin@school.test", Role: shared.RoleAdmin, IsActive: true},
		{ID: 2, Email: "t@school.test", Role: shared.RoleTeacher, IsActive: true},
	}}
	router := newUsersRouter(repo)
	admin := &shared.Principal{UserID: 1, Role: shared.RoleAdmin}

	rr := request(router, "/users?role=teacher", admin)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, shared.RoleTeacher, repo.lastFilter.Role)
	assert.Contains(t, rr.Body.String(), "t@school.test")
	assert.NotContains(t, rr.Body.String(), "admin@school.test")

	assert.Equal(t, http.StatusBadRequest, request(router, "/users?role=janitor", admin).Code)
	assert.Equal(t, http.StatusNotFound, request(router, "/users/9", admin).Code)
	assert.Equal(t, http.StatusBadRequest, request(router, "/users/x", admin).Code)
	assert.Equal(t, http.StatusOK, request(router, "/users/2", admin).Code)

	assert.Equal(t, http.StatusForbidden, request(router, "/users", &shared.Principal{UserID: 2, Role: shared.RoleTeacher}).Code)
}

func TestServiceExists(t *testing.T) {
	svc := NewService(&memoryUsers{users: []User{{ID: 5}}})
	ok, err := svc.Exists(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.Exists(context.Background(), 6)
	require.NoError(t, err)
	assert.False(t, ok)
}
