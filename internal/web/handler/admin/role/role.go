// Package role provides handlers for managing roles, their permissions and
// their menus.
package role

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/menu"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler"
)

const (
	// Path is the base path for role management.
	Path = "/roles"
)

// MenusInput replaces the menus of a role.
type MenusInput struct {
	MenuIDs []uint `json:"menu_ids" validate:"required"`
}

// PermissionsInput replaces the permissions of a role.
type PermissionsInput struct {
	PermissionIDs []uint `json:"permission_ids" validate:"required,dive,gt=0"`
}

// Detail is a role with its permissions and menus.
type Detail struct {
	*auth.RoleDetail

	MenuIDs []uint `json:"menu_ids"`
}

// Service provides CRUD operations for roles.
type Service struct {
	handler.Service
	authService *auth.Service
	menus       *menu.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Auth == nil || deps.Menus == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.authService = deps.Auth
	s.menus = deps.Menus

	view := auth.RequirePermission(deps.Auth, auth.PermRolesView)
	manage := auth.RequirePermission(deps.Auth, auth.PermRolesManage)

	router.Get(Path, view, s.List).Name("roles.index")
	router.Post(Path, manage, s.Create).Name("roles.store")
	router.Get(Path+"/:id", view, s.Show).Name("roles.show")
	router.Put(Path+"/:id", manage, s.Update).Name("roles.update")
	router.Delete(Path+"/:id", manage, s.Delete).Name("roles.destroy")
	router.Put(Path+"/:id/menus", manage, s.SyncMenus).Name("roles.menus")
	router.Put(Path+"/:id/permissions", manage, s.SyncPermissions).Name("roles.permissions")

	return nil
}

// List answers the roles of the guard.
func (s *Service) List(c *fiber.Ctx) error {
	page, perPage := handler.Pagination(c)

	roles, total, err := s.authService.ListRoles(c.UserContext(), auth.RoleFilter{
		Keyword:  c.Query("keyword"),
		Page:     page,
		PageSize: perPage,
	})
	if err != nil {
		return err
	}

	return handler.ListOK(c, roles, total)
}

// Show answers a role with its permissions and menus.
func (s *Service) Show(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	return s.detail(c, id, "success")
}

// Create creates a role.
func (s *Service) Create(c *fiber.Ctx) error {
	var in auth.RoleInput

	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	role, err := s.authService.CreateRole(c.UserContext(), in)
	if err != nil {
		return err
	}

	return s.detail(c, role.ID, "role created")
}

// Update updates a role and, with permission_ids, its permissions.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	var in auth.RoleInput

	if err = handler.Bind(c, &in); err != nil {
		return err
	}

	if _, err = s.authService.UpdateRole(c.UserContext(), id, in); err != nil {
		return err
	}

	return s.detail(c, id, "role updated")
}

// Delete removes a role. The super-admin role cannot be deleted.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	if err = s.authService.DeleteRole(c.UserContext(), id); err != nil {
		return err
	}

	return handler.Message(c, "role deleted", nil)
}

// SyncMenus replaces the menus linked to a role.
func (s *Service) SyncMenus(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	var in MenusInput

	if err = handler.Bind(c, &in); err != nil {
		return err
	}

	if _, err = s.authService.GetRole(c.UserContext(), id); err != nil {
		return err
	}

	if err = s.menus.AssignToRole(c.UserContext(), id, in.MenuIDs); err != nil {
		return err
	}

	return s.detail(c, id, "role menus updated")
}

// SyncPermissions replaces the permissions granted by a role.
func (s *Service) SyncPermissions(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	var in PermissionsInput

	if err = handler.Bind(c, &in); err != nil {
		return err
	}

	if err = s.authService.SyncRolePermissions(c.UserContext(), id, in.PermissionIDs); err != nil {
		return err
	}

	return s.detail(c, id, "role permissions updated")
}

func (s *Service) detail(c *fiber.Ctx, id uint, message string) error {
	role, err := s.authService.GetRole(c.UserContext(), id)
	if err != nil {
		return err
	}

	menuIDs, err := s.menus.RoleMenuIDs(c.UserContext(), id)
	if err != nil {
		return err
	}

	if menuIDs == nil {
		menuIDs = []uint{}
	}

	return handler.Message(c, message, Detail{RoleDetail: role, MenuIDs: menuIDs})
}
