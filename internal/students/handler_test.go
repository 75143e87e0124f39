package students

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/school-erp/school-erp/internal/rbac"
	"github.com/school-erp/school-erp/internal/shared"
)

type memoryStudents struct {
	students map[int64]Student
	byUser   map[int64]int64
	children map[int64][]int64
}

func (m *memoryStudents) List(ctx context.Context) ([]Student, error) {
	out := make([]Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryStudents) FindByID(ctx context.Context, id int64) (Student, error) {
	s, ok := m.students[id]
	if !ok {
		return Student{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryStudents) StudentIDForUser(ctx context.Context, userID int64) (int64, bool, error) {
	id, ok := m.byUser[userID]
	return id, ok, nil
}

func (m *memoryStudents) IsParentOf(ctx context.Context, parentUserID, studentID int64) (bool, error) {
	for _, id := range m.children[parentUserID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

type keyChecker map[string]bool

func (k keyChecker) CheckPermission(ctx context.Context, userID int64, role shared.Role, key string) (bool, error) {
	return k[key], nil
}

func newStudentsRouter(checker rbac.PermissionChecker) http.Handler {
	repo := &memoryStudents{
		students: map[int64]Student{
			5: {ID: 5, Name: "Ana", Grade: 7, Section: "B", IsActive: true},
			6: {ID: 6, Name: "Budi", Grade: 12, Section: "A", IsActive: true},
		},
		byUser:   map[int64]int64{50: 5},
		children: map[int64][]int64{70: {6}},
	}
	h := NewHandler(nil, NewService(repo), NewOwnership(repo), rbac.Middleware{Checker: checker})
	r := chi.NewRouter()
	r.Route("/students", h.MountRoutes)
	return r
}

func get(router http.Handler, target string, p *shared.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestStudentOwnership(t *testing.T) {
	router := newStudentsRouter(keyChecker{})
	student := &shared.Principal{UserID: 50, Role: shared.RoleStudent}
	parent := &shared.Principal{UserID: 70, Role: shared.RoleParent}

	assert.Equal(t, http.StatusOK, get(router, "/students/5", student).Code)
	assert.Equal(t, http.StatusForbidden, get(router, "/students/6", student).Code)
	assert.Equal(t, http.StatusOK, get(router, "/students/6", parent).Code)
	assert.Equal(t, http.StatusForbidden, get(router, "/students/5", parent).Code)
	assert.Equal(t, http.StatusOK, get(router, "/students/6", &shared.Principal{UserID: 3, Role: shared.RoleTeacher}).Code)
	assert.Equal(t, http.StatusForbidden, get(router, "/students/5", &shared.Principal{UserID: 8, Role: shared.RoleLibrarian}).Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/students/99", &shared.Principal{UserID: 1, Role: shared.RoleAdmin}).Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/students/5", nil).Code)
}

func TestStudentListIsRoleGuarded(t *testing.T) {
	router := newStudentsRouter(keyChecker{})
	assert.Equal(t, http.StatusOK, get(router, "/students", &shared.Principal{UserID: 3, Role: shared.RoleTeacher}).Code)
	assert.Equal(t, http.StatusForbidden, get(router, "/students", &shared.Principal{UserID: 50, Role: shared.RoleStudent}).Code)
}

func TestPromoteEligibility(t *testing.T) {
	router := newStudentsRouter(keyChecker{shared.PermStudentsPromote: true})
	principal := &shared.Principal{UserID: 2, Role: shared.RolePrincipal}

	rr := get(router, "/students/5/promote-eligibility", principal)
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data Eligibility `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.True(t, body.Data.Eligible)
	assert.Equal(t, 8, body.Data.NextGrade)

	rr = get(router, "/students/6/promote-eligibility", principal)
	require.Equal(t, http.StatusOK, rr.Code)
	body.Data = Eligibility{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.False(t, body.Data.Eligible)
	assert.NotEmpty(t, body.Data.Reason)
}

func TestPromoteEligibilityFallbackAndDenial(t *testing.T) {
	router := newStudentsRouter(keyChecker{})
	assert.Equal(t, http.StatusOK, get(router, "/students/5/promote-eligibility", &shared.Principal{UserID: 1, Role: shared.RoleAdmin}).Code)

	rr := get(router, "/students/5/promote-eligibility", &shared.Principal{UserID: 3, Role: shared.RoleTeacher})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), shared.PermStudentsPromote)
}
