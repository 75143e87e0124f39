package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/school-erp/school-erp/internal/audit"
	"github.com/school-erp/school-erp/internal/platform/httpx"
	"github.com/school-erp/school-erp/internal/shared"
)

// ErrUserNotFound indicates the target of a user grant does not exist.
var ErrUserNotFound = fmt.Errorf("rbac: user %w", httpx.ErrNotFound)

// UserLookup reports whether a user account exists.
type UserLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// ActivityRecorder appends entries to the activity log.
type ActivityRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Service orchestrates permission management and evaluation.
type Service struct {
	repo      Repository
	checker   *Checker
	resolver  *Resolver
	users     UserLookup
	activity  ActivityRecorder
	logger    *slog.Logger
	validator *validator.Validate
}

// NewService constructs a Service. activity may be nil.
func NewService(repo Repository, users UserLookup, activity ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		checker:   NewChecker(repo),
		resolver:  NewResolver(repo),
		users:     users,
		activity:  activity,
		logger:    logger,
		validator: newValidator(),
	}
}

// Checker exposes the permission checker used by the middleware.
func (s *Service) Checker() *Checker {
	return s.checker
}

// Initialize upserts the system permission catalog.
func (s *Service) Initialize(ctx context.Context, actorID int64) (InitializeResult, error) {
	n, err := s.repo.UpsertCatalog(ctx, SystemCatalog())
	if err != nil {
		return InitializeResult{}, fmt.Errorf("rbac: initialize catalog: %w", err)
	}
	s.record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   "permissions.initialize",
		Entity:   "permission",
		EntityID: "catalog",
		Meta:     map[string]any{"upserted": n},
	})
	return InitializeResult{Upserted: n}, nil
}

// CreatePermission adds a custom permission. Module defaults to the key prefix.
func (s *Service) CreatePermission(ctx context.Context, actorID int64, in CreatePermissionInput) (Permission, error) {
	in.Key = NormalizeKey(in.Key)
	in.Name = strings.TrimSpace(in.Name)
	in.Module = strings.ToLower(strings.TrimSpace(in.Module))
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validate(in); err != nil {
		return Permission{}, err
	}
	if in.Module == "" {
		in.Module = moduleOf(in.Key)
	}
	created, err := s.repo.CreatePermission(ctx, Permission{
		Key:         in.Key,
		Name:        in.Name,
		Module:      in.Module,
		Description: in.Description,
	})
	if err != nil {
		return Permission{}, err
	}
	s.record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   "permissions.create",
		Entity:   "permission",
		EntityID: strconv.FormatInt(created.ID, 10),
		Meta:     map[string]any{"key": created.Key},
	})
	return created, nil
}

// ListPermissions returns every permission with its role and user grant rows.
func (s *Service) ListPermissions(ctx context.Context) ([]PermissionWithGrants, error) {
	var (
		perms      []Permission
		roleGrants []RoleGrant
		userGrants []UserGrant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		perms, err = s.repo.ListPermissions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		roleGrants, err = s.repo.ListRoleGrants(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		userGrants, err = s.repo.ListUserGrants(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}

	byRole := make(map[int64][]RoleGrant)
	for _, rg := range roleGrants {
		byRole[rg.PermissionID] = append(byRole[rg.PermissionID], rg)
	}
	byUser := make(map[int64][]UserGrant)
	for _, ug := range userGrants {
		byUser[ug.PermissionID] = append(byUser[ug.PermissionID], ug)
	}
	out := make([]PermissionWithGrants, 0, len(perms))
	for _, p := range perms {
		item := PermissionWithGrants{
			Permission:      p,
			RolePermissions: byRole[p.ID],
			UserPermissions: byUser[p.ID],
		}
		if item.RolePermissions == nil {
			item.RolePermissions = []RoleGrant{}
		}
		if item.UserPermissions == nil {
			item.UserPermissions = []UserGrant{}
		}
		out = append(out, item)
	}
	return out, nil
}

// SetRolePermissions upserts grants for a role. Unknown keys are skipped and
// reported; grants written before a store error stay written.
func (s *Service) SetRolePermissions(ctx context.Context, actorID int64, in RoleGrantsInput) (BulkGrantResult, error) {
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	if err := s.validate(in); err != nil {
		return BulkGrantResult{}, err
	}
	role := shared.Role(in.Role)
	result, err := s.applyGrants(ctx, in.Permissions, func(permissionID int64, allowed bool) error {
		return s.repo.UpsertRoleGrant(ctx, role, permissionID, allowed)
	})
	result.Role = role
	if err != nil {
		return result, fmt.Errorf("rbac: set role permissions for %s: %w", role, err)
	}
	s.record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   "permissions.roles.update",
		Entity:   "role",
		EntityID: string(role),
		Meta:     map[string]any{"applied": len(result.Applied), "skipped": result.Skipped},
	})
	return result, nil
}

// SetUserPermissions upserts overrides for a user.
func (s *Service) SetUserPermissions(ctx context.Context, actorID int64, in UserGrantsInput) (BulkGrantResult, error) {
	if err := s.validate(in); err != nil {
		return BulkGrantResult{}, err
	}
	exists, err := s.users.Exists(ctx, in.UserID)
	if err != nil {
		return BulkGrantResult{}, fmt.Errorf("rbac: lookup user %d: %w", in.UserID, err)
	}
	if !exists {
		return BulkGrantResult{}, ErrUserNotFound
	}
	result, err := s.applyGrants(ctx, in.Permissions, func(permissionID int64, allowed bool) error {
		return s.repo.UpsertUserGrant(ctx, in.UserID, permissionID, allowed)
	})
	result.UserID = in.UserID
	if err != nil {
		return result, fmt.Errorf("rbac: set user permissions for %d: %w", in.UserID, err)
	}
	s.record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   "permissions.users.update",
		Entity:   "user",
		EntityID: strconv.FormatInt(in.UserID, 10),
		Meta:     map[string]any{"applied": len(result.Applied), "skipped": result.Skipped},
	})
	return result, nil
}

func (s *Service) applyGrants(ctx context.Context, items []GrantItem, write func(permissionID int64, allowed bool) error) (BulkGrantResult, error) {
	result := BulkGrantResult{Applied: []AppliedGrant{}, Skipped: []string{}}
	for _, item := range items {
		key := NormalizeKey(item.Key)
		perm, err := s.repo.GetPermissionByKey(ctx, key)
		if err != nil {
			if errors.Is(err, ErrPermissionNotFound) {
				result.Skipped = append(result.Skipped, key)
				continue
			}
			return result, err
		}
		allowed := *item.Allowed
		if err := write(perm.ID, allowed); err != nil {
			return result, err
		}
		result.Applied = append(result.Applied, AppliedGrant{Key: perm.Key, Allowed: allowed})
	}
	return result, nil
}

// ListHierarchy returns every hierarchy edge.
func (s *Service) ListHierarchy(ctx context.Context) ([]HierarchyEdge, error) {
	edges, err := s.repo.ListHierarchy(ctx)
	if err != nil {
		return nil, err
	}
	if edges == nil {
		edges = []HierarchyEdge{}
	}
	return edges, nil
}

// UpsertHierarchy records that ParentRole inherits the grants of ChildRole.
func (s *Service) UpsertHierarchy(ctx context.Context, actorID int64, in HierarchyInput) (HierarchyEdge, error) {
	in = normalizeHierarchy(in)
	if err := s.validate(in); err != nil {
		return HierarchyEdge{}, err
	}
	edge, err := s.repo.UpsertHierarchy(ctx, shared.Role(in.ParentRole), shared.Role(in.ChildRole))
	if err != nil {
		return HierarchyEdge{}, fmt.Errorf("rbac: upsert hierarchy: %w", err)
	}
	s.record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   "permissions.hierarchy.upsert",
		Entity:   "role_hierarchy",
		EntityID: in.ParentRole + ">" + in.ChildRole,
	})
	return edge, nil
}

// DeleteHierarchy removes one edge.
func (s *Service) DeleteHierarchy(ctx context.Context, actorID int64, in HierarchyInput) error {
	in = normalizeHierarchy(in)
	if err := s.validate(in); err != nil {
		return err
	}
	if err := s.repo.DeleteHierarchy(ctx, shared.Role(in.ParentRole), shared.Role(in.ChildRole)); err != nil {
		return err
	}
	s.record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   "permissions.hierarchy.delete",
		Entity:   "role_hierarchy",
		EntityID: in.ParentRole + ">" + in.ChildRole,
	})
	return nil
}

func normalizeHierarchy(in HierarchyInput) HierarchyInput {
	in.ParentRole = strings.ToUpper(strings.TrimSpace(in.ParentRole))
	in.ChildRole = strings.ToUpper(strings.TrimSpace(in.ChildRole))
	return in
}

// InheritedRoles resolves the role set whose grants raw inherits.
func (s *Service) InheritedRoles(ctx context.Context, raw string) ([]shared.Role, error) {
	role, ok := shared.ParseRole(raw)
	if !ok {
		return nil, httpx.FieldError("role", "must be a valid role")
	}
	return s.resolver.ResolveInheritedRoles(ctx, role)
}

// EffectivePermissions lists the keys the user may use. User overrides win
// over role grants, matching the precedence of the checker.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64, role shared.Role) ([]string, error) {
	overrides, err := s.repo.ListUserGrantsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: effective permissions: %w", err)
	}
	roles, err := s.resolver.ResolveInheritedRoles(ctx, role)
	if err != nil {
		return nil, err
	}
	roleKeys, err := s.repo.ListAllowedKeysForRoles(ctx, roles)
	if err != nil {
		return nil, fmt.Errorf("rbac: effective permissions: %w", err)
	}

	decided := make(map[string]bool, len(overrides)+len(roleKeys))
	for _, o := range overrides {
		decided[o.PermissionKey] = o.Allowed
	}
	for _, key := range roleKeys {
		if _, pinned := decided[key]; !pinned {
			decided[key] = true
		}
	}
	keys := make([]string, 0, len(decided))
	for key, allowed := range decided {
		if allowed {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Explain evaluates key for the principal and reports the deciding strategy.
func (s *Service) Explain(ctx context.Context, p *shared.Principal, key string) (Result, error) {
	if p == nil {
		return Result{}, httpx.ErrUnauthorized
	}
	if strings.TrimSpace(key) == "" {
		return Result{}, httpx.FieldError("key", "is required")
	}
	return s.checker.Evaluate(ctx, Query{UserID: p.UserID, Role: p.Role, Key: key})
}

func (s *Service) record(ctx context.Context, entry audit.Entry) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn("record activity",
			slog.String("action", entry.Action),
			slog.String("entity_id", entry.EntityID),
			slog.Any("error", err))
	}
}
