package auth

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/permission"
)

// RoleInput creates or updates a role. A nil PermissionIDs keeps the
// permissions of an existing role.
type RoleInput struct {
	Name          string  `json:"name"           validate:"required,max=100"`
	DisplayName   string  `json:"display_name"   validate:"max=100"`
	Description   string  `json:"description"    validate:"max=255"`
	PermissionIDs *[]uint `json:"permission_ids"`
}

// RoleFilter narrows ListRoles.
type RoleFilter struct {
	Keyword  string
	Page     int
	PageSize int
}

// RoleDetail is a role with its permissions.
type RoleDetail struct {
	models.Role

	PermissionIDs []uint   `json:"permission_ids"`
	Permissions   []string `json:"permissions"`
	UsersCount    int64    `json:"users_count"`
}

// PermissionFilter narrows ListPermissions.
type PermissionFilter struct {
	Keyword string
	Group   string
}

// ListRoles returns the roles of the guard ordered by id and their total.
func (s *Service) ListRoles(ctx context.Context, f RoleFilter) ([]models.Role, int64, error) {
	var (
		roles []models.Role
		total int64
	)

	q := s.db.WithContext(ctx).Model(&models.Role{}).Where("guard_name = ?", s.cfg.Guard)

	if f.Keyword != "" {
		like := "%" + f.Keyword + "%"
		q = q.Where("name LIKE ? OR display_name LIKE ?", like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to count roles")
	}

	if f.PageSize > 0 {
		page := max(f.Page, 1)
		q = q.Limit(f.PageSize).Offset((page - 1) * f.PageSize)
	}

	if err := q.Order("id").Find(&roles).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to list roles")
	}

	return roles, total, nil
}

// GetRole returns a role with its permissions.
func (s *Service) GetRole(ctx context.Context, id uint) (*RoleDetail, error) {
	db := s.db.WithContext(ctx)

	var role models.Role
	if err := db.Where("guard_name = ?", s.cfg.Guard).First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}

		return nil, pkgerrors.Wrap(err, "failed to get role")
	}

	detail := &RoleDetail{Role: role, PermissionIDs: []uint{}, Permissions: []string{}}

	var perms []models.Permission

	err := db.Model(&models.Permission{}).
		Joins("JOIN "+models.Table(db, &models.RolePermission{})+" rp ON rp.permission_id = "+
			models.Table(db, &models.Permission{})+".id").
		Where("rp.role_id = ?", id).
		Order("name").
		Find(&perms).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get role permissions")
	}

	for _, p := range perms {
		detail.PermissionIDs = append(detail.PermissionIDs, p.ID)
		detail.Permissions = append(detail.Permissions, p.Name)
	}

	if err = db.Model(&models.UserRole{}).Where("role_id = ?", id).Count(&detail.UsersCount).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to count role users")
	}

	return detail, nil
}

// CreateRole creates a role under the guard.
func (s *Service) CreateRole(ctx context.Context, in RoleInput) (*models.Role, error) {
	role := models.Role{
		Name:        in.Name,
		GuardName:   s.cfg.Guard,
		DisplayName: in.DisplayName,
		Description: in.Description,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureRoleNameFree(tx, in.Name, 0); err != nil {
			return err
		}

		if err := tx.Create(&role).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to create role")
		}

		if in.PermissionIDs != nil {
			return syncRolePermissions(tx, role.ID, *in.PermissionIDs)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &role, nil
}

// UpdateRole updates a role. Renaming the super-admin role is refused.
func (s *Service) UpdateRole(ctx context.Context, id uint, in RoleInput) (*models.Role, error) {
	var role models.Role

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("guard_name = ?", s.cfg.Guard).First(&role, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}

			return pkgerrors.Wrap(err, "failed to get role")
		}

		if role.Name == s.cfg.SuperAdminRole && in.Name != role.Name {
			return ErrCannotDeleteSuperAdmin.WithMessage("the super-admin role cannot be renamed")
		}

		if err := s.ensureRoleNameFree(tx, in.Name, id); err != nil {
			return err
		}

		err := tx.Model(&role).Updates(map[string]any{
			"name":         in.Name,
			"display_name": in.DisplayName,
			"description":  in.Description,
		}).Error
		if err != nil {
			return pkgerrors.Wrap(err, "failed to update role")
		}

		if in.PermissionIDs != nil {
			return syncRolePermissions(tx, id, *in.PermissionIDs)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flushMenus(ctx)

	return &role, nil
}

// DeleteRole deletes a role and every link to it. The super-admin role
// cannot be deleted.
func (s *Service) DeleteRole(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}

			return pkgerrors.Wrap(err, "failed to get role")
		}

		if role.Name == s.cfg.SuperAdminRole {
			return ErrCannotDeleteSuperAdmin
		}

		for _, link := range []any{&models.RolePermission{}, &models.UserRole{}, &models.MenuRole{}, &models.GroupMapping{}} {
			if err := tx.Where("role_id = ?", id).Delete(link).Error; err != nil {
				return pkgerrors.Wrap(err, "failed to unlink role")
			}
		}

		return pkgerrors.Wrap(tx.Delete(&role).Error, "failed to delete role")
	})
	if err != nil {
		return err
	}

	s.flushMenus(ctx)

	return nil
}

// SyncRolePermissions replaces the permissions of a role and flushes the
// menu cache, whose keys may carry permission names.
func (s *Service) SyncRolePermissions(ctx context.Context, roleID uint, permissionIDs []uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Role{}).Where("id = ?", roleID).Count(&count).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to check role")
		}

		if count == 0 {
			return ErrRoleNotFound
		}

		return syncRolePermissions(tx, roleID, permissionIDs)
	})
	if err != nil {
		return err
	}

	s.flushMenus(ctx)

	return nil
}

func syncRolePermissions(tx *gorm.DB, roleID uint, permissionIDs []uint) error {
	permissionIDs = unique(permissionIDs)

	if len(permissionIDs) > 0 {
		var count int64
		if err := tx.Model(&models.Permission{}).Where("id IN ?", permissionIDs).Count(&count).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to check permissions")
		}

		if int(count) != len(permissionIDs) {
			return ErrPermissionNotFound
		}
	}

	if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to remove role permissions")
	}

	for _, id := range permissionIDs {
		if err := tx.Create(&models.RolePermission{RoleID: roleID, PermissionID: id}).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to add role permission")
		}
	}

	return nil
}

func (s *Service) ensureRoleNameFree(tx *gorm.DB, name string, exceptID uint) error {
	var count int64

	err := tx.Model(&models.Role{}).
		Where("guard_name = ? AND name = ? AND id <> ?", s.cfg.Guard, name, exceptID).
		Count(&count).Error
	if err != nil {
		return pkgerrors.Wrap(err, "failed to check role name")
	}

	if count > 0 {
		return ErrDuplicateRole.WithMessage(fmt.Sprintf("role %q already exists", name))
	}

	return nil
}

// ListPermissions returns the permissions of the guard ordered by name.
func (s *Service) ListPermissions(ctx context.Context, f PermissionFilter) ([]models.Permission, error) {
	perms := []models.Permission{}

	q := s.db.WithContext(ctx).Where("guard_name = ?", s.cfg.Guard)

	if f.Keyword != "" {
		like := "%" + f.Keyword + "%"
		q = q.Where("name LIKE ? OR display_name LIKE ?", like, like)
	}

	if f.Group != "" {
		q = q.Where("group_name = ? OR group_name LIKE ?", f.Group, f.Group+".%")
	}

	if err := q.Order("name").Find(&perms).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list permissions")
	}

	return perms, nil
}

// PermissionGroups returns the permissions of the guard grouped by module and group.
func (s *Service) PermissionGroups(ctx context.Context) ([]permission.GroupNode, error) {
	perms, err := s.ListPermissions(ctx, PermissionFilter{})
	if err != nil {
		return nil, err
	}

	return permission.BuildGroupTree(perms, s.cfg.ModuleLabels), nil
}
