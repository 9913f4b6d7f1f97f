// Package group provides the handlers for directory groups and the roles
// their members receive.
package group

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler"
)

const (
	// Path is the base path for group management.
	Path = "/groups"
)

// RolesInput replaces the roles mapped to a group.
type RolesInput struct {
	RoleIDs []uint `json:"role_ids" validate:"omitempty,dive,gt=0"`
}

// Service lists groups and maps them to roles.
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

	router.Get(Path,
		auth.RequirePermission(deps.Auth, auth.PermGroupsView),
		s.List,
	).Name("groups.index")
	router.Get(Path+"/:id",
		auth.RequirePermission(deps.Auth, auth.PermGroupsView),
		s.Show,
	).Name("groups.show")
	router.Put(Path+"/:id/roles",
		auth.RequirePermission(deps.Auth, auth.PermGroupsManage),
		s.UpdateRoles,
	).Name("groups.roles")

	return nil
}

// List shows groups with pagination, search and a source filter.
func (s *Service) List(c *fiber.Ctx) error {
	f := auth.GroupFilter{
		Keyword: c.Query("keyword"),
		Source:  models.GroupSource(c.Query("source")),
	}

	f.Page, f.PageSize = handler.Pagination(c)

	groups, total, err := s.authService.ListGroups(c.UserContext(), f)
	if err != nil {
		return err
	}

	return handler.ListOK(c, groups, total)
}

// Show answers a group.
func (s *Service) Show(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	group, err := s.authService.GetGroup(c.UserContext(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, group)
}

// UpdateRoles replaces the roles mapped to a group.
func (s *Service) UpdateRoles(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	var in RolesInput

	if err = handler.Bind(c, &in); err != nil {
		return err
	}

	ctx := c.UserContext()

	if err = s.authService.SyncGroupRoles(ctx, id, in.RoleIDs); err != nil {
		return err
	}

	group, err := s.authService.GetGroup(ctx, id)
	if err != nil {
		return err
	}

	return handler.Message(c, "group roles updated", group)
}
