package auth

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

// DefaultAvatar is returned for users without metadata.avatar.
const DefaultAvatar = "https://i.gtimg.cn/club/item/face/img/2/16022_100.gif"

// DepartmentRef names the department of a user.
type DepartmentRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Profile is the current user as returned by /auth/me.
type Profile struct {
	ID           uint64            `json:"id"`
	Name         string            `json:"name"`
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	Phone        *string           `json:"phone"`
	Status       models.UserStatus `json:"status"`
	Avatar       string            `json:"avatar"`
	DepartmentID *uint             `json:"department_id"`
	Department   *DepartmentRef    `json:"department"`
	Roles        []string          `json:"roles"`
	Permissions  []string          `json:"permissions"`
	CreatedAt    time.Time         `json:"created_at"`
	LastLoginAt  *time.Time        `json:"last_login_at"`
	LastLoginIP  string            `json:"last_login_ip"`
}

// ActiveUser returns the user if it exists and may log in.
func (s *Service) ActiveUser(ctx context.Context, userID uint64) (*models.User, error) {
	var user models.User

	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}

		return nil, pkgerrors.Wrap(err, "failed to get user")
	}

	if !user.IsActive() {
		return nil, ErrUserAccountDisabled
	}

	return &user, nil
}

// Profile returns the user with its department, roles and permissions.
func (s *Service) Profile(ctx context.Context, userID uint64) (*Profile, error) {
	user, err := s.ActiveUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		ID:           user.ID,
		Name:         user.Name,
		Username:     user.Username,
		Email:        user.Email,
		Phone:        user.Phone,
		Status:       user.Status,
		Avatar:       DefaultAvatar,
		DepartmentID: user.DepartmentID,
		CreatedAt:    user.CreatedAt,
		LastLoginAt:  user.LastLoginAt,
		LastLoginIP:  user.LastLoginIP,
	}

	if avatar, ok := user.Metadata["avatar"].(string); ok && avatar != "" {
		p.Avatar = avatar
	}

	if user.DepartmentID != nil {
		var dept models.Department

		err = s.db.WithContext(ctx).Select("id", "name").First(&dept, *user.DepartmentID).Error
		if err == nil {
			p.Department = &DepartmentRef{ID: dept.ID, Name: dept.Name}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(err, "failed to get department")
		}
	}

	if p.Roles, err = s.GetUserRoles(ctx, userID); err != nil {
		return nil, err
	}

	if p.Permissions, err = s.GetUserPermissions(ctx, userID); err != nil {
		return nil, err
	}

	return p, nil
}
