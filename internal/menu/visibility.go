package menu

import (
	"sort"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/tree"
)

// DefaultSuperAdminRole is the role that bypasses every menu gate.
const DefaultSuperAdminRole = "super-admin"

// Principal is the role and permission set a menu tree is resolved for.
type Principal struct {
	roles       map[string]struct{}
	permissions map[string]struct{}
}

// NewPrincipal builds a principal from role and permission names.
func NewPrincipal(roles, permissions []string) Principal {
	return Principal{roles: toSet(roles), permissions: toSet(permissions)}
}

// Roles returns the sorted role names.
func (p Principal) Roles() []string { return sortedKeys(p.roles) }

// Permissions returns the sorted permission names.
func (p Principal) Permissions() []string { return sortedKeys(p.permissions) }

// HasRole reports whether the principal holds role.
func (p Principal) HasRole(role string) bool {
	_, ok := p.roles[role]
	return ok
}

// Resolver decides which menus a principal may see.
type Resolver struct {
	SuperAdminRole string
}

// NewResolver returns a resolver; an empty role name falls back to DefaultSuperAdminRole.
func NewResolver(superAdminRole string) Resolver {
	if superAdminRole == "" {
		superAdminRole = DefaultSuperAdminRole
	}

	return Resolver{SuperAdminRole: superAdminRole}
}

// Visible reports whether the menu itself is visible to p, ignoring its children.
//
// The gates are checked in order and the first one present decides:
// disabled, super admin, public, linked roles, linked permissions, guard.
// A menu without any gate is hidden.
func (r Resolver) Visible(m models.Menu, p Principal) bool {
	if !m.IsEnabled {
		return false
	}

	if r.SuperAdminRole != "" && p.HasRole(r.SuperAdminRole) {
		return true
	}

	if m.IsPublic {
		return true
	}

	if len(m.RoleNames) > 0 {
		return intersects(m.RoleNames, p.roles)
	}

	if len(m.PermissionNames) > 0 {
		return intersects(m.PermissionNames, p.permissions)
	}

	if m.Guard.Valid {
		return guardAllows(m.Guard, p)
	}

	return false
}

func guardAllows(g models.MenuGuard, p Principal) bool {
	if g.List {
		return intersects(g.Roles, p.roles)
	}

	if g.Mode == models.GuardModeExcept {
		return !intersects(g.Roles, p.roles)
	}

	return len(g.Roles) == 0 || intersects(g.Roles, p.roles)
}

// Filter returns the visible part of the forest. Children are filtered first;
// a node survives when it is visible itself or when one of its children survived.
// Disabled nodes are removed together with their subtree. The input is not modified.
func (r Resolver) Filter(forest []*tree.Node[models.Menu], p Principal) []*tree.Node[models.Menu] {
	out := make([]*tree.Node[models.Menu], 0, len(forest))

	for _, n := range forest {
		if !n.Item.IsEnabled {
			continue
		}

		children := r.Filter(n.Children, p)
		if !r.Visible(n.Item, p) && len(children) == 0 {
			continue
		}

		out = append(out, &tree.Node[models.Menu]{Item: n.Item, Children: children})
	}

	return out
}

func intersects(names []string, set map[string]struct{}) bool {
	for _, name := range names {
		if _, ok := set[name]; ok {
			return true
		}
	}

	return false
}

func toSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}

	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}
