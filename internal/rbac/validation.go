package rbac

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/school-erp/school-erp/internal/platform/httpx"
	"github.com/school-erp/school-erp/internal/shared"
)

var permissionKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

func newValidator() *validator.Validate {
	v := httpx.NewValidator()
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, ok := shared.ParseRole(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("permkey", func(fl validator.FieldLevel) bool {
		return ValidPermissionKey(fl.Field().String())
	})
	return v
}

// ValidPermissionKey reports whether key follows the module.action format.
func ValidPermissionKey(key string) bool {
	return permissionKeyPattern.MatchString(key)
}

// NormalizeKey lower-cases and trims a permission key.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// moduleOf returns the module segment of a permission key.
func moduleOf(key string) string {
	if idx := strings.Index(key, "."); idx > 0 {
		return key[:idx]
	}
	return key
}

func (s *Service) validate(in any) error {
	return httpx.Validate(s.validator, in)
}
