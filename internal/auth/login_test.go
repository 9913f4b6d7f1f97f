package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/config"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/session"
)

func TestAttemptLogin(t *testing.T) {
	session.Init(nil)

	svc, db, _ := setupService(t)
	authn := NewAuthenticator(db, svc, nil, config.LDAP{}, time.Hour)

	phone := "13800000000"
	user := createUser(t, db, "alice")
	require.NoError(t, db.Model(user).Update("phone", phone).Error)

	for _, account := range []string{"alice", "alice@example.com", phone} {
		t.Run(account, func(t *testing.T) {
			res, err := authn.AttemptLogin(context.Background(), LoginInput{
				Account:   account,
				Password:  "secret123",
				IP:        "10.0.0.1",
				UserAgent: "test",
			})
			require.NoError(t, err)
			assert.Equal(t, TokenType, res.TokenType)
			assert.NotEmpty(t, res.Token)
			require.NotNil(t, res.ExpiresAt)

			var data session.Data
			require.NoError(t, data.Read(res.Token))
			assert.Equal(t, user.ID, data.UserID)
			assert.Equal(t, "alice", data.Username)
		})
	}

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, "10.0.0.1", stored.LastLoginIP)
	assert.NotNil(t, stored.LastLoginAt)

	var logs []models.LoginLog
	require.NoError(t, db.Where("status = ?", models.LoginStatusSuccess).Find(&logs).Error)
	require.Len(t, logs, 3)
	assert.Equal(t, models.LoginTypePassword, logs[0].LoginType)
	require.NotNil(t, logs[0].UserID)
	assert.Equal(t, user.ID, *logs[0].UserID)
}

func TestAttemptLoginUsernameAlias(t *testing.T) {
	session.Init(nil)

	svc, db, _ := setupService(t)
	authn := NewAuthenticator(db, svc, nil, config.LDAP{}, 0)
	createUser(t, db, "bob")

	res, err := authn.AttemptLogin(context.Background(), LoginInput{Username: "bob", Password: "secret123"})
	require.NoError(t, err)
	assert.Nil(t, res.ExpiresAt)

	require.NoError(t, authn.Logout(res.Token))

	var data session.Data
	require.ErrorIs(t, data.Read(res.Token), session.ErrNoSession)
}

func TestAttemptLoginFailures(t *testing.T) {
	session.Init(nil)

	svc, db, _ := setupService(t)
	authn := NewAuthenticator(db, svc, nil, config.LDAP{}, time.Hour)

	createUser(t, db, "carol")

	disabled := createUser(t, db, "dave")
	require.NoError(t, db.Model(disabled).Update("status", models.UserStatusInactive).Error)

	directory := createUser(t, db, "erin")
	require.NoError(t, db.Model(directory).Update("auth_source", models.AuthSourceLDAP).Error)

	tests := []struct {
		name      string
		account   string
		password  string
		wantErr   error
		wantType  string
		wantCount int64
	}{
		{
			name:      "wrong password",
			account:   "carol",
			password:  "wrong-password",
			wantErr:   ErrInvalidCredentials,
			wantType:  models.LoginTypePassword,
			wantCount: 1,
		},
		{
			name:      "disabled account",
			account:   "dave",
			password:  "secret123",
			wantErr:   ErrUserAccountDisabled,
			wantType:  models.LoginTypePassword,
			wantCount: 1,
		},
		{
			name:      "disabled account with wrong password",
			account:   "dave",
			password:  "wrong-password",
			wantErr:   ErrInvalidCredentials,
			wantType:  models.LoginTypePassword,
			wantCount: 2,
		},
		{
			name:      "unknown account",
			account:   "nobody",
			password:  "secret123",
			wantErr:   ErrInvalidCredentials,
			wantType:  models.LoginTypePassword,
			wantCount: 1,
		},
		{
			name:      "directory account without ldap",
			account:   "erin",
			password:  "secret123",
			wantErr:   ErrInvalidCredentials,
			wantType:  models.LoginTypeLDAP,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := authn.AttemptLogin(context.Background(), LoginInput{
				Account:  tt.account,
				Password: tt.password,
			})
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)

			var count int64
			require.NoError(t, db.Model(&models.LoginLog{}).
				Where("account = ? AND status = ?", tt.account, models.LoginStatusFailed).
				Count(&count).Error)
			assert.Equal(t, tt.wantCount, count)

			var last models.LoginLog
			require.NoError(t, db.Where("account = ?", tt.account).Order("id DESC").First(&last).Error)
			assert.Equal(t, tt.wantType, last.LoginType)
			require.NotNil(t, last.FailureReason)
			assert.NotEmpty(t, *last.FailureReason)
			assert.Nil(t, last.UserID)
		})
	}
}
