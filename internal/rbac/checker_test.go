package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/school-erp/school-erp/internal/shared"
)

func TestCheckerPrecedence(t *testing.T) {
	const user int64 = 7
	cases := []struct {
		name    string
		setup   func(*memoryRepo)
		role    shared.Role
		key     string
		allowed bool
		source  string
	}{
		{
			name:    "unknown key denies even for admin grants",
			setup:   func(m *memoryRepo) {},
			role:    shared.RoleAdmin,
			key:     "ghost.action",
			allowed: false,
			source:  SourceUnknownPermission,
		},
		{
			name: "user override deny beats role grant",
			setup: func(m *memoryRepo) {
				m.addPermission("fees.view")
				m.grantRole(shared.RoleTeacher, "fees.view", true)
				m.grantUser(user, "fees.view", false)
			},
			role:    shared.RoleTeacher,
			key:     "fees.view",
			allowed: false,
			source:  SourceUserOverride,
		},
		{
			name: "user override allow without any role grant",
			setup: func(m *memoryRepo) {
				m.addPermission("library.issue")
				m.grantUser(user, "library.issue", true)
			},
			role:    shared.RoleStudent,
			key:     "library.issue",
			allowed: true,
			source:  SourceUserOverride,
		},
		{
			name: "grant inherited through hierarchy",
			setup: func(m *memoryRepo) {
				m.addPermission("students.promote")
				m.addEdge(shared.RoleAdmin, shared.RolePrincipal)
				m.grantRole(shared.RolePrincipal, "students.promote", true)
			},
			role:    shared.RoleAdmin,
			key:     "students.promote",
			allowed: true,
			source:  SourceRoleGrant,
		},
		{
			name: "any inherited allow wins over a denied grant",
			setup: func(m *memoryRepo) {
				m.addPermission("exams.view")
				m.addEdge(shared.RolePrincipal, shared.RoleTeacher)
				m.grantRole(shared.RolePrincipal, "exams.view", false)
				m.grantRole(shared.RoleTeacher, "exams.view", true)
			},
			role:    shared.RolePrincipal,
			key:     "exams.view",
			allowed: true,
			source:  SourceRoleGrant,
		},
		{
			name: "no grant rows fall back to deny",
			setup: func(m *memoryRepo) {
				m.addPermission("hostel.manage")
			},
			role:    shared.RoleAdmin,
			key:     "hostel.manage",
			allowed: false,
			source:  SourceDefault,
		},
		{
			name: "keys are normalised",
			setup: func(m *memoryRepo) {
				m.addPermission("attendance.mark")
				m.grantRole(shared.RoleTeacher, "attendance.mark", true)
			},
			role:    shared.RoleTeacher,
			key:     "  Attendance.MARK ",
			allowed: true,
			source:  SourceRoleGrant,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemoryRepo()
			tc.setup(repo)
			res, err := NewChecker(repo).Evaluate(context.Background(), Query{UserID: user, Role: tc.role, Key: tc.key})
			require.NoError(t, err)
			assert.Equal(t, tc.allowed, res.Allowed)
			assert.Equal(t, tc.source, res.Source)
		})
	}
}

func TestCheckPermissionHierarchyScenario(t *testing.T) {
	repo := newMemoryRepo()
	repo.addPermission(shared.PermStudentsPromote)
	repo.addEdge(shared.RoleAdmin, shared.RolePrincipal)
	repo.grantRole(shared.RolePrincipal, shared.PermStudentsPromote, true)

	allowed, err := NewChecker(repo).CheckPermission(context.Background(), 1, shared.RoleAdmin, shared.PermStudentsPromote)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheckPermissionPropagatesStoreError(t *testing.T) {
	repo := newMemoryRepo()
	boom := errors.New("pool closed")
	repo.err = boom

	allowed, err := NewChecker(repo).CheckPermission(context.Background(), 1, shared.RoleAdmin, "students.view")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, allowed)
}

type fixedStrategy struct {
	name     string
	decision Decision
	calls    *int
}

func (f fixedStrategy) Name() string { return f.name }

func (f fixedStrategy) Resolve(ctx context.Context, ev *Evaluation) (Decision, error) {
	*f.calls++
	return f.decision, nil
}

func TestCheckerStopsAtFirstOpinion(t *testing.T) {
	var first, second, third int
	checker := NewCheckerWithStrategies(
		fixedStrategy{name: "first", decision: NoOpinion, calls: &first},
		fixedStrategy{name: "second", decision: Allow, calls: &second},
		fixedStrategy{name: "third", decision: Deny, calls: &third},
	)
	res, err := checker.Evaluate(context.Background(), Query{Key: "x.y"})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, "second", res.Source)
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Zero(t, third)
}
