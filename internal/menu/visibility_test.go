package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/tree"
)

func TestResolverVisible(t *testing.T) {
	r := NewResolver("")

	editor := NewPrincipal([]string{"editor"}, []string{"iam.users.view"})
	nobody := NewPrincipal(nil, nil)
	admin := NewPrincipal([]string{"super-admin"}, nil)

	testCases := []struct {
		name string
		menu models.Menu
		p    Principal
		want bool
	}{
		{
			name: "no gate is hidden",
			menu: models.Menu{IsEnabled: true},
			p:    nobody,
			want: false,
		},
		{
			name: "disabled is hidden for super admin",
			menu: models.Menu{IsEnabled: false, IsPublic: true},
			p:    admin,
			want: false,
		},
		{
			name: "super admin sees gated menu",
			menu: models.Menu{IsEnabled: true, RoleNames: []string{"finance"}},
			p:    admin,
			want: true,
		},
		{
			name: "super admin sees ungated menu",
			menu: models.Menu{IsEnabled: true},
			p:    admin,
			want: true,
		},
		{
			name: "public",
			menu: models.Menu{IsEnabled: true, IsPublic: true},
			p:    nobody,
			want: true,
		},
		{
			name: "role match",
			menu: models.Menu{IsEnabled: true, RoleNames: []string{"editor", "viewer"}},
			p:    editor,
			want: true,
		},
		{
			name: "role mismatch decides even with matching permission",
			menu: models.Menu{IsEnabled: true, RoleNames: []string{"viewer"}, PermissionNames: []string{"iam.users.view"}},
			p:    editor,
			want: false,
		},
		{
			name: "permission match",
			menu: models.Menu{IsEnabled: true, PermissionNames: []string{"iam.users.view"}},
			p:    editor,
			want: true,
		},
		{
			name: "permission mismatch decides even with open guard",
			menu: models.Menu{
				IsEnabled:       true,
				PermissionNames: []string{"iam.roles.view"},
				Guard:           models.NewMenuGuard(models.GuardModeInclude),
			},
			p:    editor,
			want: false,
		},
		{
			name: "include guard without roles",
			menu: models.Menu{IsEnabled: true, Guard: models.NewMenuGuard(models.GuardModeInclude)},
			p:    nobody,
			want: true,
		},
		{
			name: "include guard match",
			menu: models.Menu{IsEnabled: true, Guard: models.NewMenuGuard(models.GuardModeInclude, "editor")},
			p:    editor,
			want: true,
		},
		{
			name: "include guard mismatch",
			menu: models.Menu{IsEnabled: true, Guard: models.NewMenuGuard(models.GuardModeInclude, "finance")},
			p:    editor,
			want: false,
		},
		{
			name: "except guard hides listed role",
			menu: models.Menu{IsEnabled: true, Guard: models.NewMenuGuard(models.GuardModeExcept, "editor")},
			p:    editor,
			want: false,
		},
		{
			name: "except guard shows others",
			menu: models.Menu{IsEnabled: true, Guard: models.NewMenuGuard(models.GuardModeExcept, "finance")},
			p:    editor,
			want: true,
		},
		{
			name: "list guard match",
			menu: models.Menu{IsEnabled: true, Guard: models.MenuGuard{Roles: []string{"editor"}, List: true, Valid: true}},
			p:    editor,
			want: true,
		},
		{
			name: "empty list guard hides",
			menu: models.Menu{IsEnabled: true, Guard: models.MenuGuard{List: true, Valid: true}},
			p:    editor,
			want: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.Visible(tc.menu, tc.p))
		})
	}
}

func TestResolverCustomSuperAdmin(t *testing.T) {
	r := NewResolver("root")
	m := models.Menu{IsEnabled: true, RoleNames: []string{"finance"}}

	assert.True(t, r.Visible(m, NewPrincipal([]string{"root"}, nil)))
	assert.False(t, r.Visible(m, NewPrincipal([]string{"super-admin"}, nil)))
}

func menuNode(m models.Menu, children ...*tree.Node[models.Menu]) *tree.Node[models.Menu] {
	if children == nil {
		children = []*tree.Node[models.Menu]{}
	}

	return &tree.Node[models.Menu]{Item: m, Children: children}
}

func names(forest []*tree.Node[models.Menu]) []string {
	var out []string

	tree.Walk(forest, func(n *tree.Node[models.Menu], _ int) {
		out = append(out, n.Item.Name)
	})

	return out
}

func TestFilterPrunesChildWithoutAccess(t *testing.T) {
	forest := []*tree.Node[models.Menu]{
		menuNode(models.Menu{ID: 1, Name: "A", IsEnabled: true, RoleNames: []string{"editor"}},
			menuNode(models.Menu{ID: 2, Name: "B", IsEnabled: true, RoleNames: []string{"admin"}}),
		),
	}

	got := NewResolver("").Filter(forest, NewPrincipal([]string{"editor"}, nil))

	assert.Equal(t, []string{"A"}, names(got))
	assert.Empty(t, got[0].Children)
	assert.Len(t, forest[0].Children, 1, "input must not be modified")
}

func TestFilterKeepsParentOfVisibleChild(t *testing.T) {
	forest := []*tree.Node[models.Menu]{
		menuNode(models.Menu{ID: 1, Name: "system", IsEnabled: true},
			menuNode(models.Menu{ID: 2, Name: "users", IsEnabled: true, PermissionNames: []string{"iam.users.view"}}),
			menuNode(models.Menu{ID: 3, Name: "roles", IsEnabled: true, PermissionNames: []string{"iam.roles.view"}}),
		),
		menuNode(models.Menu{ID: 4, Name: "reports", IsEnabled: true}),
	}

	got := NewResolver("").Filter(forest, NewPrincipal(nil, []string{"iam.users.view"}))

	assert.Equal(t, []string{"system", "users"}, names(got))
}

func TestFilterDropsDisabledSubtree(t *testing.T) {
	forest := []*tree.Node[models.Menu]{
		menuNode(models.Menu{ID: 1, Name: "off", IsEnabled: false},
			menuNode(models.Menu{ID: 2, Name: "child", IsEnabled: true, IsPublic: true}),
		),
		menuNode(models.Menu{ID: 3, Name: "on", IsEnabled: true, IsPublic: true},
			menuNode(models.Menu{ID: 4, Name: "hidden", IsEnabled: false, IsPublic: true}),
		),
	}

	for _, p := range []Principal{NewPrincipal(nil, nil), NewPrincipal([]string{"super-admin"}, nil)} {
		assert.Equal(t, []string{"on"}, names(NewResolver("").Filter(forest, p)))
	}
}

func TestPrincipalSorted(t *testing.T) {
	p := NewPrincipal([]string{"b", "a", "b"}, []string{"z", "y"})

	assert.Equal(t, []string{"a", "b"}, p.Roles())
	assert.Equal(t, []string{"y", "z"}, p.Permissions())
	assert.Equal(t, []string{}, NewPrincipal(nil, nil).Roles())
}
