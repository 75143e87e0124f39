package users

import (
	"context"
	"strings"

	"github.com/school-erp/school-erp/internal/platform/httpx"
	"github.com/school-erp/school-erp/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filter ListFilter) ([]User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns users, optionally filtered by role and a name/email search.
func (s *Service) ListUsers(ctx context.Context, rawRole, search string) ([]User, error) {
	filter := ListFilter{Search: search}
	if strings.TrimSpace(rawRole) != "" {
		role, ok := shared.ParseRole(rawRole)
		if !ok {
			return nil, httpx.FieldError("role", "must be a valid role")
		}
		filter.Role = role
	}
	users, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// Exists reports whether the user exists.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}
