package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/school-erp/school-erp/internal/shared"
)

// Decision is the opinion of a single resolution strategy.
type Decision int

// Possible decisions. NoOpinion hands the question to the next strategy.
const (
	NoOpinion Decision = iota
	Allow
	Deny
)

// Sources reported by Result.Source.
const (
	SourceUnknownPermission = "unknown_permission"
	SourceUserOverride      = "user_override"
	SourceRoleGrant         = "role_grant"
	SourceDefault           = "default"
)

// Query identifies a single authorization question.
type Query struct {
	UserID int64
	Role   shared.Role
	Key    string
}

// Evaluation is the state shared by the strategies while answering a Query.
type Evaluation struct {
	Query
	// Permission is populated by the KnownPermission strategy.
	Permission *Permission
}

// Strategy answers a query or defers to the next one.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, ev *Evaluation) (Decision, error)
}

// Result is the outcome of an evaluation.
type Result struct {
	Key     string `json:"key"`
	Allowed bool   `json:"allowed"`
	Source  string `json:"source"`
}

// Checker resolves permission queries by consulting strategies in order.
type Checker struct {
	strategies []Strategy
}

// NewChecker builds a Checker with the standard precedence: unknown keys are
// denied, user overrides win next, then any inherited role grant allows.
func NewChecker(store Store) *Checker {
	resolver := NewResolver(store)
	return NewCheckerWithStrategies(
		KnownPermission{Store: store},
		UserOverride{Store: store},
		InheritedRoleGrant{Store: store, Resolver: resolver},
	)
}

// NewCheckerWithStrategies builds a Checker from an explicit strategy list.
func NewCheckerWithStrategies(strategies ...Strategy) *Checker {
	return &Checker{strategies: strategies}
}

// Evaluate runs the strategies and returns the first opinion, or deny.
func (c *Checker) Evaluate(ctx context.Context, q Query) (Result, error) {
	q.Key = NormalizeKey(q.Key)
	ev := &Evaluation{Query: q}
	for _, strategy := range c.strategies {
		decision, err := strategy.Resolve(ctx, ev)
		if err != nil {
			return Result{}, fmt.Errorf("rbac: %s: %w", strategy.Name(), err)
		}
		switch decision {
		case Allow:
			return Result{Key: q.Key, Allowed: true, Source: strategy.Name()}, nil
		case Deny:
			return Result{Key: q.Key, Allowed: false, Source: strategy.Name()}, nil
		}
	}
	return Result{Key: q.Key, Allowed: false, Source: SourceDefault}, nil
}

// CheckPermission reports whether the user may use the permission key.
func (c *Checker) CheckPermission(ctx context.Context, userID int64, role shared.Role, key string) (bool, error) {
	res, err := c.Evaluate(ctx, Query{UserID: userID, Role: role, Key: key})
	if err != nil {
		return false, err
	}
	return res.Allowed, nil
}

// KnownPermission denies keys that have no permission definition.
type KnownPermission struct {
	Store Store
}

// Name implements Strategy.
func (KnownPermission) Name() string { return SourceUnknownPermission }

// Resolve implements Strategy.
func (s KnownPermission) Resolve(ctx context.Context, ev *Evaluation) (Decision, error) {
	perm, err := s.Store.GetPermissionByKey(ctx, ev.Key)
	if err != nil {
		if errors.Is(err, ErrPermissionNotFound) {
			return Deny, nil
		}
		return NoOpinion, err
	}
	ev.Permission = &perm
	return NoOpinion, nil
}

// UserOverride returns the allowed flag of a user-level grant verbatim.
type UserOverride struct {
	Store Store
}

// Name implements Strategy.
func (UserOverride) Name() string { return SourceUserOverride }

// Resolve implements Strategy.
func (s UserOverride) Resolve(ctx context.Context, ev *Evaluation) (Decision, error) {
	if ev.Permission == nil {
		return NoOpinion, nil
	}
	grant, ok, err := s.Store.GetUserGrant(ctx, ev.UserID, ev.Permission.ID)
	if err != nil || !ok {
		return NoOpinion, err
	}
	if grant.Allowed {
		return Allow, nil
	}
	return Deny, nil
}

// InheritedRoleGrant allows when any role in the inherited closure grants the permission.
type InheritedRoleGrant struct {
	Store    Store
	Resolver *Resolver
}

// Name implements Strategy.
func (InheritedRoleGrant) Name() string { return SourceRoleGrant }

// Resolve implements Strategy.
func (s InheritedRoleGrant) Resolve(ctx context.Context, ev *Evaluation) (Decision, error) {
	if ev.Permission == nil {
		return NoOpinion, nil
	}
	roles, err := s.Resolver.ResolveInheritedRoles(ctx, ev.Role)
	if err != nil {
		return NoOpinion, err
	}
	allowed, err := s.Store.AnyRoleAllows(ctx, roles, ev.Permission.ID)
	if err != nil || !allowed {
		return NoOpinion, err
	}
	return Allow, nil
}
