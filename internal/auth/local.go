package auth

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

// LocalProvider handles local database authentication.
type LocalProvider struct {
	db *gorm.DB
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// FindByAccount returns the user whose email, username or phone equals account.
func (p *LocalProvider) FindByAccount(ctx context.Context, account string) (*models.User, error) {
	var user models.User

	err := p.db.WithContext(ctx).
		Where("email = ? OR username = ? OR phone = ?", account, account, account).
		Order("id").
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query user")
	}

	return &user, nil
}

// Authenticate authenticates a user against the local database. The
// password is checked before the account status so a disabled account is
// only reported to callers knowing its password.
func (p *LocalProvider) Authenticate(ctx context.Context, account, password string) (*models.User, error) {
	user, err := p.FindByAccount(ctx, account)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, err
	}

	return user, checkLocal(user, password)
}

func checkLocal(user *models.User, password string) error {
	if !user.VerifyPassword(password) {
		return ErrInvalidCredentials
	}

	if !user.IsActive() {
		return ErrUserAccountDisabled
	}

	return nil
}
