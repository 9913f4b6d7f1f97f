package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

func TestRoleCRUD(t *testing.T) {
	ctx := context.Background()
	svc, db, flusher := setupService(t)

	view := models.Permission{Name: "iam.users.view", GuardName: "sanctum", Group: "iam.用户"}
	manage := models.Permission{Name: "iam.users.manage", GuardName: "sanctum", Group: "iam.用户"}
	require.NoError(t, db.Create(&view).Error)
	require.NoError(t, db.Create(&manage).Error)

	ids := []uint{view.ID}
	role, err := svc.CreateRole(ctx, RoleInput{Name: "editor", DisplayName: "Editor", PermissionIDs: &ids})
	require.NoError(t, err)
	assert.Equal(t, "sanctum", role.GuardName)

	_, err = svc.CreateRole(ctx, RoleInput{Name: "editor"})
	require.ErrorIs(t, err, ErrDuplicateRole)

	bad := []uint{view.ID, 999}
	_, err = svc.CreateRole(ctx, RoleInput{Name: "broken", PermissionIDs: &bad})
	require.ErrorIs(t, err, ErrPermissionNotFound)

	detail, err := svc.GetRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"iam.users.view"}, detail.Permissions)

	both := []uint{view.ID, manage.ID}
	updated, err := svc.UpdateRole(ctx, role.ID, RoleInput{Name: "writer", PermissionIDs: &both})
	require.NoError(t, err)
	assert.Equal(t, "writer", updated.Name)
	assert.Equal(t, 1, flusher.n)

	detail, err = svc.GetRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"iam.users.manage", "iam.users.view"}, detail.Permissions)

	// nil permission ids keep the permissions
	_, err = svc.UpdateRole(ctx, role.ID, RoleInput{Name: "writer", Description: "writes"})
	require.NoError(t, err)

	detail, err = svc.GetRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Len(t, detail.PermissionIDs, 2)
	assert.Equal(t, "writes", detail.Description)

	roles, total, err := svc.ListRoles(ctx, RoleFilter{Keyword: "writ"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, roles, 1)

	_, err = svc.GetRole(ctx, 999)
	require.ErrorIs(t, err, ErrRoleNotFound)
}

func TestDeleteRole(t *testing.T) {
	ctx := context.Background()
	svc, db, flusher := setupService(t)

	superAdmin := createRole(t, db, "super-admin")
	editor := createRole(t, db, "editor", "iam.menus.view")

	user := createUser(t, db, "erin")
	require.NoError(t, SyncUserRoles(db, user.ID, []uint{editor}))

	m := models.Menu{Name: "Dashboard", Path: "/dashboard", IsEnabled: true}
	require.NoError(t, db.Create(&m).Error)
	require.NoError(t, db.Create(&models.MenuRole{MenuID: m.ID, RoleID: editor}).Error)

	require.ErrorIs(t, svc.DeleteRole(ctx, superAdmin), ErrCannotDeleteSuperAdmin)
	assert.Zero(t, flusher.n)

	require.NoError(t, svc.DeleteRole(ctx, editor))
	assert.Equal(t, 1, flusher.n)

	for _, model := range []any{&models.RolePermission{}, &models.UserRole{}, &models.MenuRole{}} {
		var count int64
		require.NoError(t, db.Model(model).Where("role_id = ?", editor).Count(&count).Error)
		assert.Zero(t, count)
	}

	require.ErrorIs(t, svc.DeleteRole(ctx, editor), ErrRoleNotFound)
}

func TestSyncRolePermissions(t *testing.T) {
	ctx := context.Background()
	svc, db, flusher := setupService(t)

	editor := createRole(t, db, "editor", "iam.users.view")
	user := createUser(t, db, "sam")
	require.NoError(t, SyncUserRoles(db, user.ID, []uint{editor}))

	manage := models.Permission{Name: "iam.users.manage", GuardName: "sanctum"}
	require.NoError(t, db.Create(&manage).Error)

	require.NoError(t, svc.SyncRolePermissions(ctx, editor, []uint{manage.ID, manage.ID}))
	assert.Equal(t, 1, flusher.n)

	perms, err := svc.GetUserPermissions(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"iam.users.manage"}, perms)

	testCases := []struct {
		name   string
		roleID uint
		ids    []uint
		want   error
	}{
		{name: "unknown role", roleID: 999, ids: []uint{manage.ID}, want: ErrRoleNotFound},
		{name: "unknown permission", roleID: editor, ids: []uint{manage.ID, 999}, want: ErrPermissionNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, svc.SyncRolePermissions(ctx, tc.roleID, tc.ids), tc.want)
		})
	}

	assert.Equal(t, 1, flusher.n, "failed syncs do not flush")

	require.NoError(t, svc.SyncRolePermissions(ctx, editor, []uint{}))

	perms, err = svc.GetUserPermissions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestUpdateSuperAdminRoleName(t *testing.T) {
	svc, db, _ := setupService(t)
	id := createRole(t, db, "super-admin")

	_, err := svc.UpdateRole(context.Background(), id, RoleInput{Name: "root"})
	require.ErrorIs(t, err, ErrCannotDeleteSuperAdmin)

	_, err = svc.UpdateRole(context.Background(), id, RoleInput{Name: "super-admin", DisplayName: "Super Admin"})
	require.NoError(t, err)
}

func TestPermissionsListAndGroups(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := setupService(t)

	for _, p := range []models.Permission{
		{Name: "iam.users.view", GuardName: "sanctum", Group: "iam.用户", DisplayName: "iam.用户.查看"},
		{Name: "iam.roles.view", GuardName: "sanctum", Group: "iam.角色", DisplayName: "iam.角色.查看"},
		{Name: "iam.users.view", GuardName: "web", Group: "iam.用户"},
	} {
		require.NoError(t, db.Create(&p).Error)
	}

	perms, err := svc.ListPermissions(ctx, PermissionFilter{})
	require.NoError(t, err)
	assert.Len(t, perms, 2)

	perms, err = svc.ListPermissions(ctx, PermissionFilter{Group: "iam.用户"})
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "iam.users.view", perms[0].Name)

	groups, err := svc.PermissionGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "IAM", groups[0].Label)
	assert.Equal(t, 2, groups[0].Count)
}
