package rbac

import (
	"time"

	"github.com/school-erp/school-erp/internal/shared"
)

// Permission represents an atomic capability identified by a module.action key.
type Permission struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Module      string    `json:"module"`
	Description string    `json:"description,omitempty"`
	IsSystem    bool      `json:"isSystem"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RoleGrant is the default grant of a permission for every user holding a role.
type RoleGrant struct {
	Role         shared.Role `json:"role"`
	PermissionID int64       `json:"permissionId"`
	Allowed      bool        `json:"allowed"`
}

// UserGrant pins a permission for a single user, overriding role grants.
type UserGrant struct {
	UserID        int64  `json:"userId"`
	PermissionID  int64  `json:"permissionId"`
	PermissionKey string `json:"permissionKey,omitempty"`
	Allowed       bool   `json:"allowed"`
}

// HierarchyEdge states that ParentRole inherits the grants of ChildRole.
type HierarchyEdge struct {
	ID         int64       `json:"id"`
	ParentRole shared.Role `json:"parentRole"`
	ChildRole  shared.Role `json:"childRole"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// PermissionWithGrants is a permission together with its grant rows.
type PermissionWithGrants struct {
	Permission
	RolePermissions []RoleGrant `json:"rolePermissions"`
	UserPermissions []UserGrant `json:"userPermissions"`
}

// CatalogEntry describes a system permission seeded by Initialize.
type CatalogEntry struct {
	Key         string
	Name        string
	Module      string
	Description string
}

// GrantItem is one entry of a bulk grant request.
type GrantItem struct {
	Key     string `json:"key" validate:"required"`
	Allowed *bool  `json:"allowed" validate:"required"`
}

// CreatePermissionInput holds a custom permission definition.
type CreatePermissionInput struct {
	Key         string `json:"key" validate:"required,permkey"`
	Name        string `json:"name" validate:"required"`
	Module      string `json:"module"`
	Description string `json:"description"`
}

// RoleGrantsInput sets grants for one role.
type RoleGrantsInput struct {
	Role        string      `json:"role" validate:"required,role"`
	Permissions []GrantItem `json:"permissions" validate:"required,min=1,dive"`
}

// UserGrantsInput sets overrides for one user.
type UserGrantsInput struct {
	UserID      int64       `json:"userId" validate:"required,gt=0"`
	Permissions []GrantItem `json:"permissions" validate:"required,min=1,dive"`
}

// HierarchyInput identifies one hierarchy edge.
type HierarchyInput struct {
	ParentRole string `json:"parentRole" validate:"required,role"`
	ChildRole  string `json:"childRole" validate:"required,role,nefield=ParentRole"`
}

// AppliedGrant reports a grant written by a bulk request.
type AppliedGrant struct {
	Key     string `json:"key"`
	Allowed bool   `json:"allowed"`
}

// BulkGrantResult reports which entries of a bulk request were written and which were skipped.
type BulkGrantResult struct {
	Role    shared.Role    `json:"role,omitempty"`
	UserID  int64          `json:"userId,omitempty"`
	Applied []AppliedGrant `json:"applied"`
	Skipped []string       `json:"skipped"`
}

// InitializeResult reports the outcome of a catalog seed.
type InitializeResult struct {
	Upserted int `json:"upserted"`
}
