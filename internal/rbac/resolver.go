package rbac

import (
	"context"
	"fmt"

	"github.com/school-erp/school-erp/internal/shared"
)

// HierarchyReader reads the outgoing edges of a role.
type HierarchyReader interface {
	ChildRoles(ctx context.Context, parent shared.Role) ([]shared.Role, error)
}

// Resolver expands a role into the set of roles whose grants it inherits.
type Resolver struct {
	hierarchy HierarchyReader
}

// NewResolver constructs a Resolver.
func NewResolver(hierarchy HierarchyReader) *Resolver {
	return &Resolver{hierarchy: hierarchy}
}

// ResolveInheritedRoles walks the hierarchy breadth first starting at role.
// The result always starts with role itself and lists every role once, in
// discovery order. A role already visited is never enqueued again, so cyclic
// edges terminate.
func (r *Resolver) ResolveInheritedRoles(ctx context.Context, role shared.Role) ([]shared.Role, error) {
	visited := map[shared.Role]struct{}{role: {}}
	resolved := []shared.Role{role}
	queue := []shared.Role{role}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		children, err := r.hierarchy.ChildRoles(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("rbac: resolve inherited roles of %s: %w", current, err)
		}
		for _, child := range children {
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			resolved = append(resolved, child)
			queue = append(queue, child)
		}
	}
	return resolved, nil
}
