package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/school-erp/school-erp/internal/platform/db"
	"github.com/school-erp/school-erp/internal/platform/httpx"
	"github.com/school-erp/school-erp/internal/shared"
)

var (
	// ErrPermissionNotFound indicates an unknown permission key or id.
	ErrPermissionNotFound = fmt.Errorf("rbac: permission %w", httpx.ErrNotFound)
	// ErrEdgeNotFound indicates a missing hierarchy edge.
	ErrEdgeNotFound = fmt.Errorf("rbac: hierarchy edge %w", httpx.ErrNotFound)
	// ErrDuplicateKey indicates the permission key is already taken.
	ErrDuplicateKey = fmt.Errorf("rbac: permission key %w", httpx.ErrDuplicate)
)

// Store holds the reads performed on every authorization decision.
type Store interface {
	GetPermissionByKey(ctx context.Context, key string) (Permission, error)
	GetUserGrant(ctx context.Context, userID, permissionID int64) (UserGrant, bool, error)
	ChildRoles(ctx context.Context, parent shared.Role) ([]shared.Role, error)
	AnyRoleAllows(ctx context.Context, roles []shared.Role, permissionID int64) (bool, error)
}

// Repository extends Store with the permission management operations.
type Repository interface {
	Store
	ListPermissions(ctx context.Context) ([]Permission, error)
	ListRoleGrants(ctx context.Context) ([]RoleGrant, error)
	ListUserGrants(ctx context.Context) ([]UserGrant, error)
	ListUserGrantsForUser(ctx context.Context, userID int64) ([]UserGrant, error)
	ListAllowedKeysForRoles(ctx context.Context, roles []shared.Role) ([]string, error)
	CreatePermission(ctx context.Context, p Permission) (Permission, error)
	UpsertCatalog(ctx context.Context, entries []CatalogEntry) (int, error)
	UpsertRoleGrant(ctx context.Context, role shared.Role, permissionID int64, allowed bool) error
	UpsertUserGrant(ctx context.Context, userID, permissionID int64, allowed bool) error
	ListHierarchy(ctx context.Context) ([]HierarchyEdge, error)
	UpsertHierarchy(ctx context.Context, parent, child shared.Role) (HierarchyEdge, error)
	DeleteHierarchy(ctx context.Context, parent, child shared.Role) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

const permissionColumns = `id, key, name, module, COALESCE(description, ''), is_system, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPermission(row rowScanner) (Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Key, &p.Name, &p.Module, &p.Description, &p.IsSystem, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetPermissionByKey fetches a permission by its unique key.
func (r *PGRepository) GetPermissionByKey(ctx context.Context, key string) (Permission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE key = $1`, key)
	p, err := scanPermission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, ErrPermissionNotFound
		}
		return Permission{}, err
	}
	return p, nil
}

// GetUserGrant returns the override row for a user and permission, if any.
func (r *PGRepository) GetUserGrant(ctx context.Context, userID, permissionID int64) (UserGrant, bool, error) {
	grant := UserGrant{UserID: userID, PermissionID: permissionID}
	err := r.pool.QueryRow(ctx, `SELECT allowed FROM user_permissions WHERE user_id = $1 AND permission_id = $2`, userID, permissionID).Scan(&grant.Allowed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserGrant{}, false, nil
		}
		return UserGrant{}, false, err
	}
	return grant, true, nil
}

// ChildRoles lists the child side of every edge whose parent is the given role.
func (r *PGRepository) ChildRoles(ctx context.Context, parent shared.Role) ([]shared.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT child_role FROM role_hierarchy WHERE parent_role = $1 ORDER BY child_role`, string(parent))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []shared.Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, shared.Role(role))
	}
	return roles, rows.Err()
}

// AnyRoleAllows reports whether any of the roles has an allowed grant for the permission.
func (r *PGRepository) AnyRoleAllows(ctx context.Context, roles []shared.Role, permissionID int64) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM role_permissions
		WHERE permission_id = $1 AND allowed AND role = ANY($2)
	)`, permissionID, roleStrings(roles)).Scan(&exists)
	return exists, err
}

// ListPermissions returns all permissions ordered by module and key.
func (r *PGRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+permissionColumns+` FROM permissions ORDER BY module, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// ListRoleGrants returns every role grant row.
func (r *PGRepository) ListRoleGrants(ctx context.Context) ([]RoleGrant, error) {
	rows, err := r.pool.Query(ctx, `SELECT role, permission_id, allowed FROM role_permissions ORDER BY permission_id, role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []RoleGrant
	for rows.Next() {
		var (
			g    RoleGrant
			role string
		)
		if err := rows.Scan(&role, &g.PermissionID, &g.Allowed); err != nil {
			return nil, err
		}
		g.Role = shared.Role(role)
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// ListUserGrants returns every user override row.
func (r *PGRepository) ListUserGrants(ctx context.Context) ([]UserGrant, error) {
	return r.queryUserGrants(ctx, `SELECT up.user_id, up.permission_id, p.key, up.allowed
		FROM user_permissions up JOIN permissions p ON p.id = up.permission_id
		ORDER BY up.permission_id, up.user_id`)
}

// ListUserGrantsForUser returns the override rows of one user.
func (r *PGRepository) ListUserGrantsForUser(ctx context.Context, userID int64) ([]UserGrant, error) {
	return r.queryUserGrants(ctx, `SELECT up.user_id, up.permission_id, p.key, up.allowed
		FROM user_permissions up JOIN permissions p ON p.id = up.permission_id
		WHERE up.user_id = $1
		ORDER BY p.key`, userID)
}

func (r *PGRepository) queryUserGrants(ctx context.Context, query string, args ...any) ([]UserGrant, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []UserGrant
	for rows.Next() {
		var g UserGrant
		if err := rows.Scan(&g.UserID, &g.PermissionID, &g.PermissionKey, &g.Allowed); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// ListAllowedKeysForRoles returns the keys granted to any of the roles.
func (r *PGRepository) ListAllowedKeysForRoles(ctx context.Context, roles []shared.Role) ([]string, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT p.key
		FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.allowed AND rp.role = ANY($1)
		ORDER BY p.key`, roleStrings(roles))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// CreatePermission inserts a custom permission.
func (r *PGRepository) CreatePermission(ctx context.Context, p Permission) (Permission, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO permissions (key, name, module, description, is_system)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING `+permissionColumns, p.Key, p.Name, p.Module, p.Description, p.IsSystem)
	created, err := scanPermission(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Permission{}, ErrDuplicateKey
		}
		return Permission{}, err
	}
	return created, nil
}

// UpsertCatalog writes the system catalog in a single transaction.
func (r *PGRepository) UpsertCatalog(ctx context.Context, entries []CatalogEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, e := range entries {
			batch.Queue(`INSERT INTO permissions (key, name, module, description, is_system)
				VALUES ($1, $2, $3, NULLIF($4, ''), TRUE)
				ON CONFLICT (key) DO UPDATE
				SET name = EXCLUDED.name, module = EXCLUDED.module, description = EXCLUDED.description,
				    is_system = TRUE, updated_at = NOW()`, e.Key, e.Name, e.Module, e.Description)
		}
		results := tx.SendBatch(ctx, batch)
		for range entries {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("rbac: upsert catalog: %w", err)
			}
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// UpsertRoleGrant creates or overwrites the grant of a role.
func (r *PGRepository) UpsertRoleGrant(ctx context.Context, role shared.Role, permissionID int64, allowed bool) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO role_permissions (role, permission_id, allowed)
		VALUES ($1, $2, $3)
		ON CONFLICT (role, permission_id) DO UPDATE SET allowed = EXCLUDED.allowed, updated_at = NOW()`,
		string(role), permissionID, allowed)
	return err
}

// UpsertUserGrant creates or overwrites the override of a user.
func (r *PGRepository) UpsertUserGrant(ctx context.Context, userID, permissionID int64, allowed bool) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO user_permissions (user_id, permission_id, allowed)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, permission_id) DO UPDATE SET allowed = EXCLUDED.allowed, updated_at = NOW()`,
		userID, permissionID, allowed)
	return err
}

// ListHierarchy returns every hierarchy edge.
func (r *PGRepository) ListHierarchy(ctx context.Context) ([]HierarchyEdge, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, parent_role, child_role, created_at FROM role_hierarchy ORDER BY parent_role, child_role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var edges []HierarchyEdge
	for rows.Next() {
		edge, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

// UpsertHierarchy inserts an edge, returning the existing row when already present.
func (r *PGRepository) UpsertHierarchy(ctx context.Context, parent, child shared.Role) (HierarchyEdge, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO role_hierarchy (parent_role, child_role)
		VALUES ($1, $2)
		ON CONFLICT (parent_role, child_role) DO UPDATE SET parent_role = EXCLUDED.parent_role
		RETURNING id, parent_role, child_role, created_at`, string(parent), string(child))
	return scanEdge(row)
}

// DeleteHierarchy removes an edge. Returns ErrEdgeNotFound if nothing was deleted.
func (r *PGRepository) DeleteHierarchy(ctx context.Context, parent, child shared.Role) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM role_hierarchy WHERE parent_role = $1 AND child_role = $2`, string(parent), string(child))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEdgeNotFound
	}
	return nil
}

func scanEdge(row rowScanner) (HierarchyEdge, error) {
	var (
		edge          HierarchyEdge
		parent, child string
	)
	if err := row.Scan(&edge.ID, &parent, &child, &edge.CreatedAt); err != nil {
		return HierarchyEdge{}, err
	}
	edge.ParentRole = shared.Role(parent)
	edge.ChildRole = shared.Role(child)
	return edge, nil
}

func roleStrings(roles []shared.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
