package users

import (
	"time"

	"github.com/school-erp/school-erp/internal/shared"
)

// User represents a user account for management.
type User struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      shared.Role `json:"role"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// ListFilter narrows the user listing.
type ListFilter struct {
	Role   shared.Role
	Search string
}
