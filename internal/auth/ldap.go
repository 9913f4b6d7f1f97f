package auth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-ldap/ldap/v3"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/config"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

const defaultLDAPTimeoutSeconds = 10

// LDAPProvider handles LDAP authentication.
type LDAPProvider struct {
	cfg config.LDAP
	db  *gorm.DB
}

// directoryUser holds the attributes read from the user entry.
type directoryUser struct {
	DN       string
	Username string
	Email    string
	Name     string
	Phone    string
}

// NewLDAPProvider creates a new LDAP provider.
func NewLDAPProvider(cfg config.LDAP, db *gorm.DB) (*LDAPProvider, error) {
	if !cfg.Enabled {
		return nil, ErrLDAPDisabled
	}

	if cfg.URL == "" {
		return nil, ErrLDAPDisabled.WithMessage("ldap url is empty")
	}

	return &LDAPProvider{
		cfg: cfg,
		db:  db,
	}, nil
}

// Connect establishes a connection to the LDAP server.
func (p *LDAPProvider) Connect() (*ldap.Conn, error) {
	var tlsConfig *tls.Config

	u, err := url.Parse(p.cfg.URL)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "invalid ldap url")
	}

	if u.Scheme == "ldaps" || p.cfg.StartTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: p.cfg.SkipVerify, //nolint:gosec // skipping verifying tls is ok
			ServerName:         u.Hostname(),
		}
	}

	conn, err := ldap.DialURL(p.cfg.URL, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to connect to LDAP server")
	}

	if u.Scheme != "ldaps" && p.cfg.StartTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			if errClose := conn.Close(); errClose != nil {
				log.Error().Err(errClose).Msg("failed to close LDAP connection")
			}

			return nil, pkgerrors.Wrap(errStartTLS, "failed to start TLS")
		}
	}

	if p.cfg.Timeout > 0 {
		conn.SetTimeout(p.cfg.Timeout)
	}

	return conn, nil
}

func (p *LDAPProvider) timeLimit() int {
	if p.cfg.Timeout > 0 {
		return int(p.cfg.Timeout.Seconds())
	}

	return defaultLDAPTimeoutSeconds
}

// Authenticate binds as the directory user and returns the local copy of
// the user with its directory groups.
func (p *LDAPProvider) Authenticate(ctx context.Context, account, password string) (*models.User, []DirectoryGroup, error) {
	if password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	conn, err := p.Connect()
	if err != nil {
		return nil, nil, err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	if err = p.bindService(conn); err != nil {
		return nil, nil, err
	}

	entry, err := p.searchUserEntry(conn, account)
	if err != nil {
		return nil, nil, err
	}

	if err = conn.Bind(entry.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, nil, ErrInvalidCredentials
		}

		return nil, nil, pkgerrors.Wrap(err, "authentication failed")
	}

	if err = p.bindService(conn); err != nil {
		return nil, nil, err
	}

	groups, err := p.getUserGroups(conn, entry.DN)
	if err != nil {
		return nil, nil, err
	}

	du := directoryUser{
		DN:       entry.DN,
		Username: entry.GetAttributeValue(p.cfg.UsernameAttribute),
		Email:    entry.GetAttributeValue(p.cfg.EmailAttribute),
		Name:     entry.GetAttributeValue(p.cfg.NameAttribute),
		Phone:    entry.GetAttributeValue(p.cfg.PhoneAttribute),
	}

	if du.Username == "" {
		du.Username = account
	}

	user, _, err := upsertLDAPUser(p.db.WithContext(ctx), du)
	if err != nil {
		return nil, nil, err
	}

	return user, groups, nil
}

// bindService binds with the configured service account, if any.
func (p *LDAPProvider) bindService(conn *ldap.Conn) error {
	if p.cfg.BindDN == "" {
		return nil
	}

	if err := conn.Bind(p.cfg.BindDN, p.cfg.BindPassword); err != nil {
		return pkgerrors.Wrap(err, "failed to bind with service account")
	}

	return nil
}

// searchUserEntry searches LDAP for the given account and returns a single entry.
func (p *LDAPProvider) searchUserEntry(conn *ldap.Conn, account string) (*ldap.Entry, error) {
	searchRequest := ldap.NewSearchRequest(
		p.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, // Size limit
		p.timeLimit(),
		false,
		fmt.Sprintf(p.cfg.UserFilter, ldap.EscapeFilter(account)),
		[]string{
			p.cfg.UsernameAttribute,
			p.cfg.EmailAttribute,
			p.cfg.NameAttribute,
			p.cfg.PhoneAttribute,
			"dn",
		},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to search for user")
	}

	switch len(searchResult.Entries) {
	case 0:
		return nil, ErrInvalidCredentials
	case 1:
		return searchResult.Entries[0], nil
	default:
		return nil, ErrMultipleUsersFound
	}
}

// getUserGroups retrieves all groups a user belongs to from LDAP.
func (p *LDAPProvider) getUserGroups(conn *ldap.Conn, userDN string) ([]DirectoryGroup, error) {
	if p.cfg.GroupFilter == "" {
		return nil, nil
	}

	searchRequest := ldap.NewSearchRequest(
		p.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		p.timeLimit(),
		false,
		fmt.Sprintf(p.cfg.GroupFilter, ldap.EscapeFilter(userDN)),
		[]string{p.cfg.GroupAttribute, "dn"},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to search for groups")
	}

	return groupsFromEntries(searchResult.Entries, p.cfg.GroupAttribute), nil
}

func groupsFromEntries(entries []*ldap.Entry, nameAttr string) []DirectoryGroup {
	groups := make([]DirectoryGroup, 0, len(entries))

	for _, entry := range entries {
		name := entry.GetAttributeValue(nameAttr)
		if name == "" {
			name = entry.DN
		}

		groups = append(groups, DirectoryGroup{Name: name, ExternalID: entry.DN})
	}

	return groups
}

// upsertLDAPUser creates or refreshes the local copy of a directory user.
// It reports whether the user was created.
func upsertLDAPUser(db *gorm.DB, du directoryUser) (*models.User, bool, error) {
	var user models.User

	err := db.Where("external_id = ? AND auth_source = ?", du.DN, models.AuthSourceLDAP).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Username:   du.Username,
			Email:      du.Email,
			Name:       du.Name,
			Status:     models.UserStatusActive,
			AuthSource: models.AuthSourceLDAP,
			ExternalID: du.DN,
		}

		if user.Email == "" {
			user.Email = du.Username
		}

		if user.Name == "" {
			user.Name = du.Username
		}

		if du.Phone != "" {
			user.Phone = &du.Phone
		}

		if err = db.Create(&user).Error; err != nil {
			return nil, false, pkgerrors.Wrap(err, "failed to create user")
		}

		return &user, true, nil
	}

	if err != nil {
		return nil, false, pkgerrors.Wrap(err, "failed to query user")
	}

	updates := map[string]any{}

	if du.Email != "" && du.Email != user.Email {
		updates["email"] = du.Email
	}

	if du.Name != "" && du.Name != user.Name {
		updates["name"] = du.Name
	}

	if du.Phone != "" && (user.Phone == nil || *user.Phone != du.Phone) {
		updates["phone"] = du.Phone
	}

	if len(updates) > 0 {
		if err = db.Model(&user).Updates(updates).Error; err != nil {
			return nil, false, pkgerrors.Wrap(err, "failed to update user")
		}
	}

	return &user, false, nil
}

// TestConnection tests the LDAP server connection and bind credentials.
func (p *LDAPProvider) TestConnection() error {
	conn, err := p.Connect()
	if err != nil {
		return err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	return p.bindService(conn)
}
