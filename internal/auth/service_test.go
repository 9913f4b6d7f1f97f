package auth

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/config"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), models.GormConfig("iam_", logger.Discard))
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, models.AutoMigrate(db), "failed to migrate test database")

	return db
}

type flushCounter struct{ n int }

func (f *flushCounter) Flush(context.Context) error {
	f.n++
	return nil
}

func setupService(t *testing.T) (*Service, *gorm.DB, *flushCounter) {
	t.Helper()

	db := setupTestDB(t)
	flusher := &flushCounter{}

	return NewService(db, config.DefaultIAM(), flusher), db, flusher
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	u := models.User{
		Username:   username,
		Email:      username + "@example.com",
		Name:       username,
		Password:   models.HashPassword("secret123"),
		Status:     models.UserStatusActive,
		AuthSource: models.AuthSourceLocal,
	}
	require.NoError(t, db.Create(&u).Error)

	return &u
}

func createRole(t *testing.T, db *gorm.DB, name string, permissions ...string) uint {
	t.Helper()

	r := models.Role{Name: name, GuardName: "sanctum"}
	require.NoError(t, db.Create(&r).Error)

	for _, name := range permissions {
		p := models.Permission{Name: name, GuardName: "sanctum"}
		require.NoError(t, db.Where(models.Permission{Name: name, GuardName: "sanctum"}).FirstOrCreate(&p).Error)
		require.NoError(t, db.Create(&models.RolePermission{RoleID: r.ID, PermissionID: p.ID}).Error)
	}

	return r.ID
}

func TestUserRolesAndPermissions(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := setupService(t)

	user := createUser(t, db, "alice")
	editor := createRole(t, db, "editor", "iam.menus.view", "iam.users.view")
	auditor := createRole(t, db, "auditor", "iam.login-logs.view", "iam.users.view")
	createRole(t, db, "unused", "iam.roles.manage")

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return SyncUserRoles(tx, user.ID, []uint{editor, editor})
	}))

	group := models.Group{Name: "auditors", ExternalID: "cn=auditors", Source: models.GroupSourceLDAP}
	require.NoError(t, db.Create(&group).Error)
	require.NoError(t, db.Create(&models.GroupMapping{GroupID: group.ID, RoleID: auditor}).Error)
	require.NoError(t, db.Create(&models.UserGroup{UserID: user.ID, GroupID: group.ID}).Error)

	roles, err := svc.GetUserRoles(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"auditor", "editor"}, roles)

	perms, err := svc.GetUserPermissions(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"iam.login-logs.view", "iam.menus.view", "iam.users.view"}, perms)

	testCases := []struct {
		name       string
		permission string
		expected   bool
	}{
		{name: "direct role", permission: "iam.menus.view", expected: true},
		{name: "group role", permission: "iam.login-logs.view", expected: true},
		{name: "not granted", permission: "iam.roles.manage", expected: false},
		{name: "unknown", permission: "iam.nothing.view", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			has, err := svc.HasPermission(ctx, user.ID, tc.permission)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, has)
		})
	}

	all, err := svc.HasAllPermissions(ctx, user.ID, []string{"iam.menus.view", "iam.roles.manage"})
	require.NoError(t, err)
	assert.False(t, all)

	p, err := svc.Principal(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, roles, p.Roles())
	assert.Equal(t, perms, p.Permissions())
}

func TestSuperAdminHasEveryPermission(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := setupService(t)

	user := createUser(t, db, "root")
	superAdmin := createRole(t, db, "super-admin")
	require.NoError(t, SyncUserRoles(db, user.ID, []uint{superAdmin}))

	has, err := svc.HasPermission(ctx, user.ID, "iam.anything.manage")
	require.NoError(t, err)
	assert.True(t, has)

	all, err := svc.HasAllPermissions(ctx, user.ID, []string{"a.b.c", "d.e.f"})
	require.NoError(t, err)
	assert.True(t, all)
}

func TestSyncUserRolesUnknownRole(t *testing.T) {
	_, db, _ := setupService(t)
	user := createUser(t, db, "bob")

	require.ErrorIs(t, SyncUserRoles(db, user.ID, []uint{42}), ErrRoleNotFound)
}

func TestSyncUserGroups(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := setupService(t)

	user := createUser(t, db, "carol")
	createRole(t, db, "editor", "iam.menus.view")

	groupRoles := map[string][]string{"editors": {"editor", "missing"}}

	err := svc.SyncUserGroups(ctx, user.ID, []DirectoryGroup{
		{Name: "editors", ExternalID: "cn=editors,dc=example"},
		{Name: "staff", ExternalID: "cn=staff,dc=example"},
	}, models.GroupSourceLDAP, groupRoles)
	require.NoError(t, err)

	groups, err := svc.GetUserGroups(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "editors", groups[0].Name)

	roles, err := svc.GetUserRoles(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"editor"}, roles)

	// a second login reporting fewer groups drops the old membership
	err = svc.SyncUserGroups(ctx, user.ID, []DirectoryGroup{
		{Name: "staff", ExternalID: "cn=staff,dc=example"},
	}, models.GroupSourceLDAP, groupRoles)
	require.NoError(t, err)

	groups, err = svc.GetUserGroups(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "staff", groups[0].Name)

	roles, err = svc.GetUserRoles(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, roles)

	var groupCount int64
	require.NoError(t, db.Model(&models.Group{}).Count(&groupCount).Error)
	assert.Equal(t, int64(2), groupCount)
}

func TestAssignRolesByName(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := setupService(t)

	user := createUser(t, db, "dave")
	createRole(t, db, "viewer")
	createRole(t, db, "editor")

	require.NoError(t, svc.AssignRolesByName(ctx, user.ID, []string{"viewer", "ghost"}))
	require.NoError(t, svc.AssignRolesByName(ctx, user.ID, []string{"viewer", "editor"}))

	roles, err := svc.GetUserRoles(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"editor", "viewer"}, roles)
}
