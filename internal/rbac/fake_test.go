package rbac

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/school-erp/school-erp/internal/audit"
	"github.com/school-erp/school-erp/internal/shared"
)

type roleGrantKey struct {
	role shared.Role
	perm int64
}

type userGrantKey struct {
	user int64
	perm int64
}

type memoryRepo struct {
	mu         sync.Mutex
	nextID     int64
	perms      map[string]Permission
	roleGrants map[roleGrantKey]bool
	userGrants map[userGrantKey]bool
	edges      []HierarchyEdge

	// err, when set, is returned by every read used during evaluation.
	err        error
	childCalls int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		perms:      map[string]Permission{},
		roleGrants: map[roleGrantKey]bool{},
		userGrants: map[userGrantKey]bool{},
	}
}

func (m *memoryRepo) addPermission(key string) Permission {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p := Permission{ID: m.nextID, Key: key, Name: key, Module: moduleOf(key), CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.perms[key] = p
	return p
}

func (m *memoryRepo) grantRole(role shared.Role, key string, allowed bool) {
	m.roleGrants[roleGrantKey{role, m.perms[key].ID}] = allowed
}

func (m *memoryRepo) grantUser(userID int64, key string, allowed bool) {
	m.userGrants[userGrantKey{userID, m.perms[key].ID}] = allowed
}

func (m *memoryRepo) addEdge(parent, child shared.Role) {
	m.edges = append(m.edges, HierarchyEdge{ID: int64(len(m.edges) + 1), ParentRole: parent, ChildRole: child})
}

func (m *memoryRepo) keyOf(id int64) string {
	for k, p := range m.perms {
		if p.ID == id {
			return k
		}
	}
	return ""
}

func (m *memoryRepo) GetPermissionByKey(ctx context.Context, key string) (Permission, error) {
	if m.err != nil {
		return Permission{}, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.perms[key]
	if !ok {
		return Permission{}, ErrPermissionNotFound
	}
	return p, nil
}

func (m *memoryRepo) GetUserGrant(ctx context.Context, userID, permissionID int64) (UserGrant, bool, error) {
	if m.err != nil {
		return UserGrant{}, false, m.err
	}
	allowed, ok := m.userGrants[userGrantKey{userID, permissionID}]
	if !ok {
		return UserGrant{}, false, nil
	}
	return UserGrant{UserID: userID, PermissionID: permissionID, PermissionKey: m.keyOf(permissionID), Allowed: allowed}, true, nil
}

func (m *memoryRepo) ChildRoles(ctx context.Context, parent shared.Role) ([]shared.Role, error) {
	m.childCalls++
	if m.err != nil {
		return nil, m.err
	}
	var out []shared.Role
	for _, e := range m.edges {
		if e.ParentRole == parent {
			out = append(out, e.ChildRole)
		}
	}
	return out, nil
}

func (m *memoryRepo) AnyRoleAllows(ctx context.Context, roles []shared.Role, permissionID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, r := range roles {
		if m.roleGrants[roleGrantKey{r, permissionID}] {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(m.perms))
	for _, p := range m.perms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryRepo) ListRoleGrants(ctx context.Context) ([]RoleGrant, error) {
	var out []RoleGrant
	for k, allowed := range m.roleGrants {
		out = append(out, RoleGrant{Role: k.role, PermissionID: k.perm, Allowed: allowed})
	}
	return out, nil
}

func (m *memoryRepo) ListUserGrants(ctx context.Context) ([]UserGrant, error) {
	var out []UserGrant
	for k, allowed := range m.userGrants {
		out = append(out, UserGrant{UserID: k.user, PermissionID: k.perm, PermissionKey: m.keyOf(k.perm), Allowed: allowed})
	}
	return out, nil
}

func (m *memoryRepo) ListUserGrantsForUser(ctx context.Context, userID int64) ([]UserGrant, error) {
	var out []UserGrant
	for k, allowed := range m.userGrants {
		if k.user == userID {
			out = append(out, UserGrant{UserID: k.user, PermissionID: k.perm, PermissionKey: m.keyOf(k.perm), Allowed: allowed})
		}
	}
	return out, nil
}

func (m *memoryRepo) ListAllowedKeysForRoles(ctx context.Context, roles []shared.Role) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for k, allowed := range m.roleGrants {
		if !allowed || !shared.HasRole(roles, k.role) {
			continue
		}
		key := m.keyOf(k.perm)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memoryRepo) CreatePermission(ctx context.Context, p Permission) (Permission, error) {
	if _, exists := m.perms[p.Key]; exists {
		return Permission{}, ErrDuplicateKey
	}
	created := m.addPermission(p.Key)
	created.Name = p.Name
	created.Module = p.Module
	created.Description = p.Description
	created.IsSystem = p.IsSystem
	m.perms[p.Key] = created
	return created, nil
}

func (m *memoryRepo) UpsertCatalog(ctx context.Context, entries []CatalogEntry) (int, error) {
	for _, e := range entries {
		p, ok := m.perms[e.Key]
		if !ok {
			p = m.addPermission(e.Key)
		}
		p.Name, p.Module, p.Description, p.IsSystem = e.Name, e.Module, e.Description, true
		m.perms[e.Key] = p
	}
	return len(entries), nil
}

func (m *memoryRepo) UpsertRoleGrant(ctx context.Context, role shared.Role, permissionID int64, allowed bool) error {
	m.roleGrants[roleGrantKey{role, permissionID}] = allowed
	return nil
}

func (m *memoryRepo) UpsertUserGrant(ctx context.Context, userID, permissionID int64, allowed bool) error {
	m.userGrants[userGrantKey{userID, permissionID}] = allowed
	return nil
}

func (m *memoryRepo) ListHierarchy(ctx context.Context) ([]HierarchyEdge, error) {
	return append([]HierarchyEdge(nil), m.edges...), nil
}

func (m *memoryRepo) UpsertHierarchy(ctx context.Context, parent, child shared.Role) (HierarchyEdge, error) {
	for _, e := range m.edges {
		if e.ParentRole == parent && e.ChildRole == child {
			return e, nil
		}
	}
	m.addEdge(parent, child)
	return m.edges[len(m.edges)-1], nil
}

func (m *memoryRepo) DeleteHierarchy(ctx context.Context, parent, child shared.Role) error {
	for i, e := range m.edges {
		if e.ParentRole == parent && e.ChildRole == child {
			m.edges = append(m.edges[:i], m.edges[i+1:]...)
			return nil
		}
	}
	return ErrEdgeNotFound
}

type fakeUsers map[int64]bool

func (f fakeUsers) Exists(ctx context.Context, id int64) (bool, error) {
	return f[id], nil
}

type captureActivity struct {
	entries []audit.Entry
	err     error
}

func (c *captureActivity) Record(ctx context.Context, entry audit.Entry) error {
	c.entries = append(c.entries, entry)
	return c.err
}

func boolPtr(v bool) *bool { return &v }
