package auth

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/apperr"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/config"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/session"
)

// TokenType is the scheme clients send the session id back with.
const TokenType = "Bearer"

// LoginInput is a login request. Account may be an email, a username or a
// phone number; Username is accepted as an alias.
type LoginInput struct {
	Account   string `json:"account"  validate:"required_without=Username"`
	Username  string `json:"username" validate:"required_without=Account"`
	Password  string `json:"password" validate:"required,min=6"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResult carries the opened session.
type LoginResult struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	User      *models.User `json:"-"`
}

// Authenticator logs users in with the local or the directory provider and
// audits every attempt.
type Authenticator struct {
	db         *gorm.DB
	service    *Service
	local      *LocalProvider
	ldap       *LDAPProvider
	ldapCfg    config.LDAP
	sessionTTL time.Duration
}

// NewAuthenticator creates an authenticator. ldapProvider may be nil.
func NewAuthenticator(db *gorm.DB, service *Service, ldapProvider *LDAPProvider, ldapCfg config.LDAP,
	sessionTTL time.Duration,
) *Authenticator {
	return &Authenticator{
		db:         db,
		service:    service,
		local:      NewLocalProvider(db),
		ldap:       ldapProvider,
		ldapCfg:    ldapCfg,
		sessionTTL: sessionTTL,
	}
}

// AttemptLogin checks the credentials, records a login log and opens a
// session. Local accounts are checked against their password hash;
// directory accounts and, with LDAP enabled, unknown accounts are checked
// against the directory.
func (a *Authenticator) AttemptLogin(ctx context.Context, in LoginInput) (*LoginResult, error) {
	account := in.Account
	if account == "" {
		account = in.Username
	}

	user, loginType, err := a.authenticate(ctx, account, in.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUserAccountDisabled) {
			a.record(ctx, models.LoginLog{
				Account:       account,
				Status:        models.LoginStatusFailed,
				FailureReason: failureReason(err),
				IP:            in.IP,
				UserAgent:     in.UserAgent,
				LoginType:     loginType,
			})
		}

		return nil, err
	}

	now := time.Now()

	err = a.db.WithContext(ctx).Model(user).
		Updates(map[string]any{"last_login_at": now, "last_login_ip": in.IP}).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to update last login")
	}

	a.record(ctx, models.LoginLog{
		UserID:    &user.ID,
		Username:  &user.Username,
		Account:   account,
		Status:    models.LoginStatusSuccess,
		IP:        in.IP,
		UserAgent: in.UserAgent,
		LoginType: loginType,
	})

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to generate session id")
	}

	data := session.Data{UserID: user.ID, Username: user.Username, LoginAt: now}
	if err = data.Write(sessionID, a.sessionTTL); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to write session")
	}

	res := &LoginResult{Token: sessionID, TokenType: TokenType, User: user}

	if a.sessionTTL > 0 {
		expires := now.Add(a.sessionTTL)
		res.ExpiresAt = &expires
	}

	log.Info().Uint64("user_id", user.ID).Str("login_type", loginType).Msg("user logged in")

	return res, nil
}

func (a *Authenticator) authenticate(ctx context.Context, account, password string) (*models.User, string, error) {
	user, err := a.local.FindByAccount(ctx, account)

	switch {
	case err == nil && user.AuthSource != models.AuthSourceLDAP:
		return user, models.LoginTypePassword, checkLocal(user, password)
	case err == nil, errors.Is(err, ErrUserNotFound) && a.ldap != nil:
		if a.ldap == nil {
			return nil, models.LoginTypeLDAP, ErrInvalidCredentials
		}

		return a.authenticateLDAP(ctx, account, password)
	case errors.Is(err, ErrUserNotFound):
		return nil, models.LoginTypePassword, ErrInvalidCredentials
	default:
		return nil, models.LoginTypePassword, err
	}
}

func (a *Authenticator) authenticateLDAP(ctx context.Context, account, password string) (*models.User, string, error) {
	user, groups, err := a.ldap.Authenticate(ctx, account, password)
	if err != nil {
		return nil, models.LoginTypeLDAP, err
	}

	if !user.IsActive() {
		return nil, models.LoginTypeLDAP, ErrUserAccountDisabled
	}

	if err = a.service.SyncUserGroups(ctx, user.ID, groups, models.GroupSourceLDAP, a.ldapCfg.GroupRoles); err != nil {
		return nil, models.LoginTypeLDAP, err
	}

	ids, err := UserRoleIDs(a.db.WithContext(ctx), user.ID)
	if err != nil {
		return nil, models.LoginTypeLDAP, err
	}

	if len(ids) == 0 {
		if err = a.service.AssignRolesByName(ctx, user.ID, a.ldapCfg.DefaultRoles); err != nil {
			return nil, models.LoginTypeLDAP, err
		}
	}

	return user, models.LoginTypeLDAP, nil
}

// Logout closes a session.
func (a *Authenticator) Logout(sessionID string) error {
	return session.Delete(sessionID)
}

func (a *Authenticator) record(ctx context.Context, entry models.LoginLog) {
	if err := RecordLogin(a.db.WithContext(ctx), entry); err != nil {
		log.Error().Err(err).Str("account", entry.Account).Msg("failed to write login log")
	}
}

func failureReason(err error) *string {
	reason := err.Error()
	if e, ok := apperr.As(err); ok {
		reason = e.Message
	}

	return &reason
}
