package students

import (
	"context"

	"github.com/school-erp/school-erp/internal/shared"
)

// Ownership decides whether a principal's own profile is a given student.
// A STUDENT owns their own record and a PARENT owns their linked children.
type Ownership struct {
	repo Repository
}

// NewOwnership constructs an Ownership resolver.
func NewOwnership(repo Repository) *Ownership {
	return &Ownership{repo: repo}
}

// OwnsResource implements rbac.OwnershipResolver.
func (o *Ownership) OwnsResource(ctx context.Context, p *shared.Principal, studentID int64) (bool, error) {
	switch p.Role {
	case shared.RoleStudent:
		own, ok, err := o.repo.StudentIDForUser(ctx, p.UserID)
		if err != nil || !ok {
			return false, err
		}
		return own == studentID, nil
	case shared.RoleParent:
		return o.repo.IsParentOf(ctx, p.UserID, studentID)
	default:
		return false, nil
	}
}
