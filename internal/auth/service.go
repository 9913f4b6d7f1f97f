package auth

import (
	"context"
	"slices"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/config"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/menu"
)

// MenuFlusher drops the cached menu trees.
type MenuFlusher interface {
	Flush(ctx context.Context) error
}

// Service provides authentication and authorization functionality.
type Service struct {
	db    *gorm.DB
	cfg   config.IAM
	menus MenuFlusher
}

// NewService creates a new auth service. menus may be nil.
func NewService(db *gorm.DB, cfg config.IAM, menus MenuFlusher) *Service {
	return &Service{db: db, cfg: cfg, menus: menus}
}

// roleIDs selects the ids of the roles a user holds directly or through
// the mappings of its groups.
func (s *Service) roleIDs(db *gorm.DB, userID uint64) (*gorm.DB, *gorm.DB) {
	direct := db.Session(&gorm.Session{NewDB: true}).Model(&models.UserRole{}).
		Select("role_id").Where("user_id = ?", userID)

	mapped := db.Session(&gorm.Session{NewDB: true}).
		Table(models.Table(db, &models.GroupMapping{})+" gm").
		Select("gm.role_id").
		Joins("JOIN "+models.Table(db, &models.UserGroup{})+" ug ON ug.group_id = gm.group_id").
		Where("ug.user_id = ?", userID)

	return direct, mapped
}

// GetUserRoles returns the sorted role names of a user.
func (s *Service) GetUserRoles(ctx context.Context, userID uint64) ([]string, error) {
	db := s.db.WithContext(ctx)
	direct, mapped := s.roleIDs(db, userID)

	roles := []string{}

	err := db.Model(&models.Role{}).
		Where("guard_name = ?", s.cfg.Guard).
		Where("id IN (?) OR id IN (?)", direct, mapped).
		Distinct("name").
		Order("name").
		Pluck("name", &roles).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get user roles")
	}

	return roles, nil
}

// GetUserPermissions retrieves the sorted permission names granted to a user by its roles.
func (s *Service) GetUserPermissions(ctx context.Context, userID uint64) ([]string, error) {
	db := s.db.WithContext(ctx)
	direct, mapped := s.roleIDs(db, userID)

	permissions := []string{}

	err := db.Table(models.Table(db, &models.Permission{})+" p").
		Joins("JOIN "+models.Table(db, &models.RolePermission{})+" rp ON rp.permission_id = p.id").
		Where("p.guard_name = ?", s.cfg.Guard).
		Where("rp.role_id IN (?) OR rp.role_id IN (?)", direct, mapped).
		Distinct("p.name").
		Order("p.name").
		Pluck("p.name", &permissions).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get user permissions")
	}

	return permissions, nil
}

// IsSuperAdmin reports whether the user holds the super-admin role.
func (s *Service) IsSuperAdmin(ctx context.Context, userID uint64) (bool, error) {
	roles, err := s.GetUserRoles(ctx, userID)
	if err != nil {
		return false, err
	}

	return slices.Contains(roles, s.cfg.SuperAdminRole), nil
}

// HasPermission checks if a user has a specific permission. The
// super-admin role has every permission.
func (s *Service) HasPermission(ctx context.Context, userID uint64, permission string) (bool, error) {
	return s.HasAnyPermission(ctx, userID, []string{permission})
}

// HasAnyPermission checks if a user has at least one of the given permissions.
func (s *Service) HasAnyPermission(ctx context.Context, userID uint64, permissions []string) (bool, error) {
	if len(permissions) == 0 {
		return false, nil
	}

	superAdmin, err := s.IsSuperAdmin(ctx, userID)
	if err != nil || superAdmin {
		return superAdmin, err
	}

	granted, err := s.GetUserPermissions(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, perm := range permissions {
		if slices.Contains(granted, perm) {
			return true, nil
		}
	}

	return false, nil
}

// HasAllPermissions checks if a user has all of the given permissions.
func (s *Service) HasAllPermissions(ctx context.Context, userID uint64, permissions []string) (bool, error) {
	if len(permissions) == 0 {
		return true, nil
	}

	superAdmin, err := s.IsSuperAdmin(ctx, userID)
	if err != nil || superAdmin {
		return superAdmin, err
	}

	granted, err := s.GetUserPermissions(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, perm := range permissions {
		if !slices.Contains(granted, perm) {
			return false, nil
		}
	}

	return true, nil
}

// Principal returns the role and permission names the menu resolver gates on.
func (s *Service) Principal(ctx context.Context, userID uint64) (menu.Principal, error) {
	roles, err := s.GetUserRoles(ctx, userID)
	if err != nil {
		return menu.Principal{}, err
	}

	permissions, err := s.GetUserPermissions(ctx, userID)
	if err != nil {
		return menu.Principal{}, err
	}

	return menu.NewPrincipal(roles, permissions), nil
}

// SyncUserRoles replaces the direct roles of a user. It runs on the given
// transaction; unknown role ids fail with ErrRoleNotFound.
func SyncUserRoles(tx *gorm.DB, userID uint64, roleIDs []uint) error {
	roleIDs = unique(roleIDs)

	if len(roleIDs) > 0 {
		var count int64
		if err := tx.Model(&models.Role{}).Where("id IN ?", roleIDs).Count(&count).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to check roles")
		}

		if int(count) != len(roleIDs) {
			return ErrRoleNotFound
		}
	}

	if err := tx.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to remove user roles")
	}

	for _, id := range roleIDs {
		if err := tx.Create(&models.UserRole{UserID: userID, RoleID: id}).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to add user role")
		}
	}

	return nil
}

// UserRoleIDs returns the ids of the roles assigned directly to a user.
func UserRoleIDs(db *gorm.DB, userID uint64) ([]uint, error) {
	ids := []uint{}

	err := db.Model(&models.UserRole{}).Where("user_id = ?", userID).Order("role_id").Pluck("role_id", &ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get user role ids")
	}

	return ids, nil
}

// AssignRolesByName adds the named roles of the guard to a user, keeping
// the roles it already holds. Unknown names are skipped.
func (s *Service) AssignRolesByName(ctx context.Context, userID uint64, names []string) error {
	if len(names) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint

		err := tx.Model(&models.Role{}).Where("guard_name = ? AND name IN ?", s.cfg.Guard, names).Pluck("id", &ids).Error
		if err != nil {
			return pkgerrors.Wrap(err, "failed to find roles")
		}

		for _, id := range ids {
			link := models.UserRole{UserID: userID, RoleID: id}
			if err = tx.Where(&link).FirstOrCreate(&link).Error; err != nil {
				return pkgerrors.Wrap(err, "failed to assign role")
			}
		}

		return nil
	})
}

// DirectoryGroup is a group reported by an external directory.
type DirectoryGroup struct {
	Name       string
	ExternalID string
}

// SyncUserGroups synchronizes a user's groups of one source with the
// groups reported by the directory. Groups are created on first sight and
// memberships of the source no longer reported are removed. Configured
// group roles are mapped onto the groups.
func (s *Service) SyncUserGroups(ctx context.Context, userID uint64, groups []DirectoryGroup,
	source models.GroupSource, groupRoles map[string][]string,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groupIDs := make([]uint, 0, len(groups))

		for _, g := range groups {
			var group models.Group

			err := tx.Where("external_id = ? AND source = ?", g.ExternalID, source).
				FirstOrCreate(&group, models.Group{Name: g.Name, ExternalID: g.ExternalID, Source: source}).Error
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to create/get group %s", g.ExternalID)
			}

			if err = s.mapGroup(tx, group, groupRoles[g.Name]); err != nil {
				return err
			}

			groupIDs = append(groupIDs, group.ID)
		}

		sourceGroups := tx.Session(&gorm.Session{NewDB: true}).Model(&models.Group{}).
			Select("id").Where("source = ?", source)

		if err := tx.Where("user_id = ?", userID).Where("group_id IN (?)", sourceGroups).
			Delete(&models.UserGroup{}).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to remove old group memberships")
		}

		for _, groupID := range unique(groupIDs) {
			if err := tx.Create(&models.UserGroup{UserID: userID, GroupID: groupID}).Error; err != nil {
				return pkgerrors.Wrap(err, "failed to add group membership")
			}
		}

		return nil
	})
}

func (s *Service) mapGroup(tx *gorm.DB, group models.Group, roles []string) error {
	if len(roles) == 0 {
		return nil
	}

	var ids []uint

	err := tx.Model(&models.Role{}).Where("guard_name = ? AND name IN ?", s.cfg.Guard, roles).Pluck("id", &ids).Error
	if err != nil {
		return pkgerrors.Wrap(err, "failed to find mapped roles")
	}

	for _, id := range ids {
		m := models.GroupMapping{GroupID: group.ID, RoleID: id}
		if err = tx.Where(&m).FirstOrCreate(&m).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to map group")
		}
	}

	return nil
}

// GetUserGroups retrieves all groups a user belongs to.
func (s *Service) GetUserGroups(ctx context.Context, userID uint64) ([]models.Group, error) {
	var groups []models.Group

	db := s.db.WithContext(ctx)

	err := db.Model(&models.Group{}).
		Joins("JOIN "+models.Table(db, &models.UserGroup{})+" ug ON ug.group_id = "+
			models.Table(db, &models.Group{})+".id").
		Where("ug.user_id = ?", userID).
		Order("name").
		Find(&groups).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get user groups")
	}

	return groups, nil
}

func (s *Service) flushMenus(ctx context.Context) {
	if s.menus == nil {
		return
	}

	_ = s.menus.Flush(ctx)
}

func unique(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
