package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/school-erp/school-erp/internal/platform/httpx"
	"github.com/school-erp/school-erp/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo        Repository
	tokens      *TokenManager
	revocations RevocationStore
	validator   *validator.Validate
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager, revocations RevocationStore) *Service {
	return &Service{repo: repo, tokens: tokens, revocations: revocations, validator: httpx.NewValidator()}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInactiveAccount
	}
	return user, nil
}

// Login authenticates the credentials and issues a token.
func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := httpx.Validate(s.validator, in); err != nil {
		return LoginResult{}, err
	}
	user, err := s.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return LoginResult{}, err
	}
	token, expiresAt, err := s.tokens.Issue(*user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: expiresAt, User: user.view()}, nil
}

// Logout revokes the token carried by the principal.
func (s *Service) Logout(ctx context.Context, p *shared.Principal) error {
	if p == nil || p.TokenID == "" {
		return httpx.ErrUnauthorized
	}
	return s.revocations.Revoke(ctx, p.TokenID, p.ExpiresAt)
}
