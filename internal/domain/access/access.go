// Package access models capability checks: whether an actor may perform an
// operation on a resource type.
package access

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Operation is a verb a capability grants.
type Operation string

// Operation constants
const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Operations lists every operation in display order.
var Operations = []Operation{OpCreate, OpRead, OpUpdate, OpDelete}

// Scope qualifies where a capability applies. The application has a single
// project-wide scope.
type Scope string

// ScopeProject is the only scope capabilities are granted in.
const ScopeProject Scope = "project"

// Resource names an entity type.
type Resource string

// Resource constants. Relation names used in fetch queries are the same strings.
const (
	ResourceTeam         Resource = "team"
	ResourceUser         Resource = "user"
	ResourceCoach        Resource = "coach"
	ResourcePlayer       Resource = "player"
	ResourceEvent        Resource = "event"
	ResourceTrainingPlan Resource = "training_plan"
)

// Resources lists every resource type.
var Resources = []Resource{
	ResourceTeam, ResourceUser, ResourceCoach, ResourcePlayer, ResourceEvent, ResourceTrainingPlan,
}

// Domain errors
var (
	ErrUnknownResource  = errors.New("unknown resource")
	ErrUnknownOperation = errors.New("unknown operation")
)

// Checker answers capability checks for a single actor.
// Implementations must be synchronous and side-effect free.
type Checker interface {
	HasAccess(res Resource, op Operation, scope Scope) bool
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(res Resource, op Operation, scope Scope) bool

// HasAccess calls f.
func (f CheckerFunc) HasAccess(res Resource, op Operation, scope Scope) bool {
	return f(res, op, scope)
}

// AllowAll grants every capability.
var AllowAll Checker = CheckerFunc(func(Resource, Operation, Scope) bool { return true })

// DenyAll grants nothing.
var DenyAll Checker = CheckerFunc(func(Resource, Operation, Scope) bool { return false })

// Without returns a checker that denies ops on res and defers to base for everything else.
func Without(base Checker, res Resource, ops ...Operation) Checker {
	return CheckerFunc(func(r Resource, op Operation, scope Scope) bool {
		if r == res && (len(ops) == 0 || slices.Contains(ops, op)) {
			return false
		}
		return base.HasAccess(r, op, scope)
	})
}

// Grants is a fixed set of capabilities, keyed by resource.
type Grants map[Resource][]Operation

// HasAccess reports whether op on res is granted in the project scope.
// INVARIANT: a nil Grants denies everything
func (g Grants) HasAccess(res Resource, op Operation, scope Scope) bool {
	if scope != ScopeProject {
		return false
	}
	return slices.Contains(g[res], op)
}

// Policy maps role names to their grants.
type Policy map[string]Grants

// For returns the checker for role. Unknown roles get no capabilities.
func (p Policy) For(role string) Checker {
	if g, ok := p[role]; ok {
		return g
	}
	return DenyAll
}

// Roles returns the configured role names, sorted.
func (p Policy) Roles() []string {
	roles := make([]string, 0, len(p))
	for r := range p {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

// ParsePolicy converts a raw role -> resource -> operations table into a Policy.
// The operation "*" expands to every operation.
// PRE: raw comes from configuration
// POST: returns an error naming the first unknown resource or operation
func ParsePolicy(raw map[string]map[string][]string) (Policy, error) {
	p := make(Policy, len(raw))
	for role, resources := range raw {
		g := make(Grants, len(resources))
		for resName, opNames := range resources {
			res, err := ParseResource(resName)
			if err != nil {
				return nil, fmt.Errorf("role %q: %w", role, err)
			}
			for _, name := range opNames {
				if name == "*" {
					g[res] = append([]Operation(nil), Operations...)
					break
				}
				op, err := ParseOperation(name)
				if err != nil {
					return nil, fmt.Errorf("role %q resource %q: %w", role, resName, err)
				}
				if !slices.Contains(g[res], op) {
					g[res] = append(g[res], op)
				}
			}
		}
		p[role] = g
	}
	return p, nil
}

// ParseResource validates a resource name.
func ParseResource(s string) (Resource, error) {
	r := Resource(s)
	if !slices.Contains(Resources, r) {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, s)
	}
	return r, nil
}

// ParseOperation validates an operation name.
func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	if !slices.Contains(Operations, op) {
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, s)
	}
	return op, nil
}

// DefaultPolicy is used when configuration supplies none.
//   - admin: everything
//   - coach: read all, manage events and training plans, update players
//   - player: read teams, events, training plans, coaches and players
func DefaultPolicy() Policy {
	all := func() []Operation { return append([]Operation(nil), Operations...) }
	read := []Operation{OpRead}

	admin := Grants{}
	for _, r := range Resources {
		admin[r] = all()
	}
	return Policy{
		"admin": admin,
		"coach": Grants{
			ResourceTeam:         read,
			ResourceUser:         read,
			ResourceCoach:        read,
			ResourcePlayer:       {OpRead, OpUpdate},
			ResourceEvent:        all(),
			ResourceTrainingPlan: all(),
		},
		"player": Grants{
			ResourceTeam:         read,
			ResourceCoach:        read,
			ResourcePlayer:       read,
			ResourceEvent:        read,
			ResourceTrainingPlan: read,
		},
	}
}
