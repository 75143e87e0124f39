package staff

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/school-erp/school-erp/internal/rbac"
	"github.com/school-erp/school-erp/internal/shared"
)

type memoryStaff struct {
	members map[int64]Member
	err     error
}

func (m *memoryStaff) FindByID(ctx context.Context, id int64) (Member, error) {
	mem, ok := m.members[id]
	if !ok {
		return Member{}, ErrNotFound
	}
	return mem, nil
}

func (m *memoryStaff) StaffIDForUser(ctx context.Context, userID int64) (int64, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	for _, mem := range m.members {
		if mem.UserID == userID {
			return mem.ID, true, nil
		}
	}
	return 0, false, nil
}

func serveStaff(repo *memoryStaff, target string, p *shared.Principal) int {
	r := chi.NewRouter()
	r.Route("/staff", NewHandler(nil, repo, rbac.Middleware{}).MountRoutes)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr.Code
}

func TestStaffOwnership(t *testing.T) {
	repo := &memoryStaff{members: map[int64]Member{
		1: {ID: 1, UserID: 30, Name: "Teacher"},
		2: {ID: 2, UserID: 31, Name: "Librarian"},
	}}
	teacher := &shared.Principal{UserID: 30, Role: shared.RoleTeacher}

	assert.Equal(t, http.StatusOK, serveStaff(repo, "/staff/1", teacher))
	assert.Equal(t, http.StatusForbidden, serveStaff(repo, "/staff/2", teacher))
	assert.Equal(t, http.StatusOK, serveStaff(repo, "/staff/2", &shared.Principal{UserID: 31, Role: shared.RoleLibrarian}))
	assert.Equal(t, http.StatusForbidden, serveStaff(repo, "/staff/1", &shared.Principal{UserID: 30, Role: shared.RoleStudent}))
	assert.Equal(t, http.StatusOK, serveStaff(repo, "/staff/2", &shared.Principal{UserID: 2, Role: shared.RolePrincipal}))
	assert.Equal(t, http.StatusBadRequest, serveStaff(repo, "/staff/me", teacher))
}

func TestStaffOwnershipStoreError(t *testing.T) {
	repo := &memoryStaff{err: errors.New("db gone")}
	assert.Equal(t, http.StatusInternalServerError, serveStaff(repo, "/staff/1", &shared.Principal{UserID: 30, Role: shared.RoleTeacher}))
}
