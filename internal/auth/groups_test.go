package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

func TestGroupRoles(t *testing.T) {
	ctx := context.Background()
	svc, db, flusher := setupService(t)

	user := createUser(t, db, "gina")
	editor := createRole(t, db, "editor", "iam.menus.view")
	viewer := createRole(t, db, "viewer", "iam.users.view")

	require.NoError(t, svc.SyncUserGroups(ctx, user.ID, []DirectoryGroup{
		{Name: "editors", ExternalID: "cn=editors,dc=example"},
	}, models.GroupSourceLDAP, nil))

	groups, total, err := svc.ListGroups(ctx, GroupFilter{Source: models.GroupSourceLDAP})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, groups, 1)
	assert.Equal(t, int64(1), groups[0].MembersCount)
	assert.Empty(t, groups[0].RoleIDs)

	groupID := groups[0].ID

	require.NoError(t, svc.SyncGroupRoles(ctx, groupID, []uint{editor, viewer, editor}))
	assert.Equal(t, 1, flusher.n)

	perms, err := svc.GetUserPermissions(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"iam.menus.view", "iam.users.view"}, perms)

	require.NoError(t, svc.SyncGroupRoles(ctx, groupID, []uint{viewer}))

	group, err := svc.GetGroup(ctx, groupID)
	require.NoError(t, err)
	assert.Equal(t, []uint{viewer}, group.RoleIDs)

	roles, err := svc.GetUserRoles(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"viewer"}, roles)

	require.ErrorIs(t, svc.SyncGroupRoles(ctx, groupID, []uint{999}), ErrRoleNotFound)
	require.ErrorIs(t, svc.SyncGroupRoles(ctx, 999, nil), ErrGroupNotFound)

	_, err = svc.GetGroup(ctx, 999)
	require.ErrorIs(t, err, ErrGroupNotFound)

	groups, total, err = svc.ListGroups(ctx, GroupFilter{Keyword: "nobody"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, groups)
}
