package daemon

import (
	"context"

	"github.com/dchest/uniuri"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/department"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/menu"
)

// AdminRole is the second role receiving every synchronized permission.
const AdminRole = "Admin"

// seed writes the roles, the first administrator and the root department
// when they are missing. Existing data is never changed.
func (d *Daemon) seed(ctx context.Context) error {
	cfg := d.Deps.Cfg
	if !cfg.Seed.Enabled {
		return nil
	}

	db := d.Deps.DB.WithContext(ctx)

	var superAdmin models.Role

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, name := range []string{cfg.IAM.SuperAdminRole, AdminRole} {
			role := models.Role{Name: name, GuardName: cfg.IAM.Guard, DisplayName: name}
			if err := tx.Where("name = ? AND guard_name = ?", name, cfg.IAM.Guard).FirstOrCreate(&role).Error; err != nil {
				return pkgerrors.Wrapf(err, "failed to seed role %s", name)
			}

			if name == cfg.IAM.SuperAdminRole {
				superAdmin = role
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err = d.seedAdmin(db, superAdmin.ID); err != nil {
		return err
	}

	return d.seedDepartment(ctx)
}

func (d *Daemon) seedAdmin(db *gorm.DB, roleID uint) error {
	var count int64
	if err := db.Unscoped().Model(&models.User{}).Count(&count).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to count users")
	}

	if count > 0 {
		return nil
	}

	s := d.Deps.Cfg.Seed

	password := s.AdminPassword
	if password == "" {
		password = uniuri.NewLen(uniuri.UUIDLen)
		log.Warn().Str("username", s.AdminUsername).Str("password", password).
			Msg("created the first administrator with a generated password, change it after login")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		admin := models.User{
			Username:   s.AdminUsername,
			Email:      s.AdminEmail,
			Name:       s.AdminUsername,
			Password:   models.HashPassword(password),
			Status:     models.UserStatusActive,
			AuthSource: models.AuthSourceLocal,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to seed admin user")
		}

		return auth.SyncUserRoles(tx, admin.ID, []uint{roleID})
	})
}

func (d *Daemon) seedDepartment(ctx context.Context) error {
	code := d.Deps.Cfg.Seed.RootDepartment
	if code == "" {
		return nil
	}

	var count int64
	if err := d.Deps.DB.WithContext(ctx).Model(&models.Department{}).Count(&count).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to count departments")
	}

	if count > 0 {
		return nil
	}

	_, err := d.Deps.Departments.Create(ctx, department.CreateInput{Name: "Headquarters", Code: code})

	return err
}

// seedMenus imports the default menus into an empty menu table. The
// permissions they link must be synchronized first.
func (d *Daemon) seedMenus(ctx context.Context) error {
	if !d.Deps.Cfg.Seed.Enabled {
		return nil
	}

	var count int64
	if err := d.Deps.DB.WithContext(ctx).Model(&models.Menu{}).Count(&count).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to count menus")
	}

	if count > 0 {
		return nil
	}

	report, err := d.Deps.Menus.Import(ctx, defaultMenus())
	if err != nil {
		return err
	}

	log.Info().Int("created", report.Created).Msg("seeded menus")

	return nil
}

// defaultMenus is the navigation of the IAM screens. A menu is shown to
// holders of one of its permissions.
func defaultMenus() []menu.ExportNode {
	page := func(name, path, component, perm string, order int) menu.ExportNode {
		return menu.ExportNode{
			Name:        name,
			Path:        path,
			Component:   &component,
			SortOrder:   &order,
			Meta:        map[string]any{"title": name},
			Permissions: []string{perm},
		}
	}

	layout := "Layout"
	redirect := "/system/users"
	order := 100

	return []menu.ExportNode{{
		Name:      "System",
		Path:      "/system",
		Component: &layout,
		Redirect:  &redirect,
		SortOrder: &order,
		Meta:      map[string]any{"title": "System", "icon": "setting"},
		Children: []menu.ExportNode{
			page("Users", "/system/users", "system/user/index", auth.PermUsersView, 1),
			page("Roles", "/system/roles", "system/role/index", auth.PermRolesView, 2),
			page("Permissions", "/system/permissions", "system/permission/index", auth.PermPermissionsView, 3),
			page("Menus", "/system/menus", "system/menu/index", auth.PermMenusView, 4),
			page("Departments", "/system/departments", "system/department/index", auth.PermDepartmentsView, 5),
			page("Groups", "/system/groups", "system/group/index", auth.PermGroupsView, 6),
			page("Login Logs", "/system/login-logs", "system/login-log/index", auth.PermLoginLogsView, 7),
		},
	}}
}
