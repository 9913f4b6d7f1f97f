// Package permission provides the read only permission endpoints.
package permission

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler"
)

// Path is the base path of the permission endpoints.
const Path = "/permissions"

// Service lists permissions.
type Service struct {
	handler.Service
	authService *auth.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Auth == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.authService = deps.Auth

	view := auth.RequirePermission(deps.Auth, auth.PermPermissionsView)

	router.Get(Path+"/groups", view, s.Groups).Name("permissions.groups")
	router.Get(Path, view, s.List).Name("permissions.index")

	return nil
}

// List answers the permissions of the guard, optionally narrowed by keyword and group.
func (s *Service) List(c *fiber.Ctx) error {
	perms, err := s.authService.ListPermissions(c.UserContext(), auth.PermissionFilter{
		Keyword: c.Query("keyword"),
		Group:   c.Query("group"),
	})
	if err != nil {
		return err
	}

	return handler.ListOK(c, perms, int64(len(perms)))
}

// Groups answers the permission groups as module tree.
func (s *Service) Groups(c *fiber.Ctx) error {
	groups, err := s.authService.PermissionGroups(c.UserContext())
	if err != nil {
		return err
	}

	return handler.OK(c, fiber.Map{"list": groups})
}
