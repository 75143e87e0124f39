package staff

import (
	"context"

	"github.com/school-erp/school-erp/internal/shared"
)

// Ownership lets staff roles access their own staff record.
type Ownership struct {
	repo Repository
}

// NewOwnership constructs an Ownership resolver.
func NewOwnership(repo Repository) *Ownership {
	return &Ownership{repo: repo}
}

// OwnsResource implements rbac.OwnershipResolver.
func (o *Ownership) OwnsResource(ctx context.Context, p *shared.Principal, staffID int64) (bool, error) {
	if !p.Role.IsStaff() {
		return false, nil
	}
	own, ok, err := o.repo.StaffIDForUser(ctx, p.UserID)
	if err != nil || !ok {
		return false, err
	}
	return own == staffID, nil
}
