// Package user manages user accounts: listing with a trashed filter,
// creation and update with role sync, soft delete and restore.
package user

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

const (
	// DefaultPageSize for pagination.
	DefaultPageSize = 25
	// MaxPageSize caps the requested page size.
	MaxPageSize = 100
)

// Trashed selects soft deleted users in List.
type Trashed string

const (
	// TrashedWithout lists live users only.
	TrashedWithout Trashed = ""
	// TrashedWith lists live and deleted users.
	TrashedWith Trashed = "with"
	// TrashedOnly lists deleted users only.
	TrashedOnly Trashed = "only"
)

// Input creates or updates a user. An empty Password keeps the current
// password on update; a nil RoleIDs keeps the current roles.
type Input struct {
	Username     string            `json:"username"      validate:"required,min=3,max=100"`
	Email        string            `json:"email"         validate:"required,email,max=255"`
	Phone        *string           `json:"phone"         validate:"omitempty,max=32"`
	Name         string            `json:"name"          validate:"max=100"`
	Password     string            `json:"password"      validate:"omitempty,min=6"`
	Status       models.UserStatus `json:"status"        validate:"omitempty,oneof=active inactive"`
	DepartmentID *uint             `json:"department_id"`
	Metadata     map[string]any    `json:"metadata"`
	RoleIDs      *[]uint           `json:"role_ids"`
}

// Filter narrows List.
type Filter struct {
	Keyword      string
	Status       models.UserStatus
	DepartmentID *uint
	RoleID       *uint
	Trashed      Trashed
	Page         int
	PageSize     int
}

// Detail is a user with its direct roles.
type Detail struct {
	models.User

	RoleIDs []uint   `json:"role_ids"`
	Roles   []string `json:"roles"`
}

// Service provides CRUD operations for users.
type Service struct {
	db *gorm.DB
}

// NewService creates a user service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns users newest first and their total.
func (s *Service) List(ctx context.Context, f Filter) ([]models.User, int64, error) {
	var (
		users = []models.User{}
		total int64
	)

	db := s.db.WithContext(ctx)
	q := db.Model(&models.User{})

	switch f.Trashed {
	case TrashedWith:
		q = q.Unscoped()
	case TrashedOnly:
		q = q.Unscoped().Where("deleted_at IS NOT NULL")
	}

	if f.Keyword != "" {
		like := "%" + f.Keyword + "%"
		q = q.Where("username LIKE ? OR email LIKE ? OR name LIKE ? OR phone LIKE ?", like, like, like, like)
	}

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	if f.DepartmentID != nil {
		q = q.Where("department_id = ?", *f.DepartmentID)
	}

	if f.RoleID != nil {
		q = q.Where("id IN (?)", db.Model(&models.UserRole{}).Select("user_id").Where("role_id = ?", *f.RoleID))
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to count users")
	}

	pageSize := f.PageSize
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	page := max(f.Page, 1)

	if err := q.Order("id DESC").Limit(pageSize).Offset((page - 1) * pageSize).Find(&users).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to list users")
	}

	return users, total, nil
}

// Get returns a live user with its direct roles.
func (s *Service) Get(ctx context.Context, id uint64) (*Detail, error) {
	db := s.db.WithContext(ctx)

	var u models.User
	if err := db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, pkgerrors.Wrap(err, "failed to get user")
	}

	detail := &Detail{User: u, Roles: []string{}}

	var err error
	if detail.RoleIDs, err = auth.UserRoleIDs(db, id); err != nil {
		return nil, err
	}

	if len(detail.RoleIDs) > 0 {
		err = db.Model(&models.Role{}).Where("id IN ?", detail.RoleIDs).Order("name").Pluck("name", &detail.Roles).Error
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to get user roles")
		}
	}

	return detail, nil
}

// Create creates a local user.
func (s *Service) Create(ctx context.Context, in Input) (*models.User, error) {
	if in.Password == "" {
		return nil, ErrPasswordRequired
	}

	u := models.User{
		Username:     in.Username,
		Email:        in.Email,
		Phone:        normalizePhone(in.Phone),
		Name:         in.Name,
		Password:     models.HashPassword(in.Password),
		Status:       in.Status,
		DepartmentID: in.DepartmentID,
		AuthSource:   models.AuthSourceLocal,
	}

	if u.Status == "" {
		u.Status = models.UserStatusActive
	}

	if u.Name == "" {
		u.Name = u.Username
	}

	if in.Metadata != nil {
		u.Metadata = datatypes.JSONMap(in.Metadata)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUnique(tx, &u, 0); err != nil {
			return err
		}

		if err := checkDepartment(tx, u.DepartmentID); err != nil {
			return err
		}

		if err := tx.Create(&u).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to create user")
		}

		if in.RoleIDs != nil {
			return auth.SyncUserRoles(tx, u.ID, *in.RoleIDs)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// Update updates a live user.
func (s *Service) Update(ctx context.Context, id uint64, in Input) (*models.User, error) {
	var u models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}

			return pkgerrors.Wrap(err, "failed to get user")
		}

		u.Username = in.Username
		u.Email = in.Email
		u.Phone = normalizePhone(in.Phone)
		u.Name = in.Name
		u.DepartmentID = in.DepartmentID

		if in.Status != "" {
			u.Status = in.Status
		}

		if in.Metadata != nil {
			u.Metadata = datatypes.JSONMap(in.Metadata)
		}

		if in.Password != "" && u.AuthSource == models.AuthSourceLocal {
			u.Password = models.HashPassword(in.Password)
		}

		if err := checkUnique(tx, &u, id); err != nil {
			return err
		}

		if err := checkDepartment(tx, u.DepartmentID); err != nil {
			return err
		}

		if err := tx.Save(&u).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to update user")
		}

		if in.RoleIDs != nil {
			return auth.SyncUserRoles(tx, id, *in.RoleIDs)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// Delete soft deletes a user. actorID is the user performing the deletion.
func (s *Service) Delete(ctx context.Context, id, actorID uint64) error {
	if id == actorID {
		return ErrCannotDeleteSelf
	}

	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "failed to delete user")
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Restore brings back a soft deleted user.
func (s *Service) Restore(ctx context.Context, id uint64) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var u models.User
	if err := db.Unscoped().First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, pkgerrors.Wrap(err, "failed to get user")
	}

	if !u.DeletedAt.Valid {
		return nil, ErrNotTrashed
	}

	if err := db.Unscoped().Model(&u).Update("deleted_at", nil).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to restore user")
	}

	u.DeletedAt = gorm.DeletedAt{}

	return &u, nil
}

func normalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*phone)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}

type uniqueColumn struct {
	column string
	value  any
	err    error
}

// checkUnique reports taken usernames, emails and phones. Trashed users
// keep their values until they are purged.
func checkUnique(tx *gorm.DB, u *models.User, exceptID uint64) error {
	columns := []uniqueColumn{
		{column: "username", value: u.Username, err: ErrDuplicateUsername},
		{column: "email", value: u.Email, err: ErrDuplicateEmail},
	}

	if u.Phone != nil {
		columns = append(columns, uniqueColumn{column: "phone", value: *u.Phone, err: ErrDuplicatePhone})
	}

	for _, c := range columns {
		var count int64

		err := tx.Unscoped().Model(&models.User{}).
			Where(c.column+" = ? AND id <> ?", c.value, exceptID).
			Count(&count).Error
		if err != nil {
			return pkgerrors.Wrap(err, "failed to check "+c.column)
		}

		if count > 0 {
			return c.err
		}
	}

	return nil
}

func checkDepartment(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}

	var count int64
	if err := tx.Model(&models.Department{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to check department")
	}

	if count == 0 {
		return ErrDepartmentNotFound
	}

	return nil
}
