package auth

import (
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/config"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

func TestNewLDAPProvider(t *testing.T) {
	_, err := NewLDAPProvider(config.LDAP{}, nil)
	require.ErrorIs(t, err, ErrLDAPDisabled)

	_, err = NewLDAPProvider(config.LDAP{Enabled: true}, nil)
	require.ErrorIs(t, err, ErrLDAPDisabled)

	p, err := NewLDAPProvider(config.LDAP{Enabled: true, URL: "ldap://localhost:389"}, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultLDAPTimeoutSeconds, p.timeLimit())
}

func TestUpsertLDAPUser(t *testing.T) {
	db := setupTestDB(t)

	du := directoryUser{DN: "uid=frank,ou=people,dc=example,dc=com", Username: "frank"}

	user, created, err := upsertLDAPUser(db, du)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "frank", user.Email)
	assert.Equal(t, "frank", user.Name)
	assert.Equal(t, models.AuthSourceLDAP, user.AuthSource)
	assert.Nil(t, user.Phone)

	du.Email = "frank@example.com"
	du.Name = "Frank"
	du.Phone = "13900000000"

	again, created, err := upsertLDAPUser(db, du)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, "frank@example.com", stored.Email)
	assert.Equal(t, "Frank", stored.Name)
	require.NotNil(t, stored.Phone)
	assert.Equal(t, "13900000000", *stored.Phone)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGroupsFromEntries(t *testing.T) {
	entries := []*ldap.Entry{
		ldap.NewEntry("cn=admins,ou=groups,dc=example,dc=com", map[string][]string{"cn": {"admins"}}),
		ldap.NewEntry("cn=nameless,ou=groups,dc=example,dc=com", nil),
	}

	groups := groupsFromEntries(entries, "cn")

	assert.Equal(t, []DirectoryGroup{
		{Name: "admins", ExternalID: "cn=admins,ou=groups,dc=example,dc=com"},
		{Name: "cn=nameless,ou=groups,dc=example,dc=com", ExternalID: "cn=nameless,ou=groups,dc=example,dc=com"},
	}, groups)
}
