// Package user provides handlers for managing users (CRUD) in admin area.
package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	usersvc "github.com/GoIAM-Admin/GoIAM-Admin/internal/user"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler"
)

const (
	// Path is the base path for user management.
	Path = "/users"
)

// Service provides CRUD operations for users.
type Service struct {
	handler.Service
	users *usersvc.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Auth == nil || deps.Users == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.users = deps.Users

	view := auth.RequirePermission(deps.Auth, auth.PermUsersView)
	manage := auth.RequirePermission(deps.Auth, auth.PermUsersManage)

	router.Get(Path, view, s.List).Name("users.index")
	router.Post(Path, manage, s.Create).Name("users.store")
	router.Get(Path+"/:id", view, s.Show).Name("users.show")
	router.Put(Path+"/:id", manage, s.Update).Name("users.update")
	router.Delete(Path+"/:id", manage, s.Delete).Name("users.destroy")
	router.Post(Path+"/:id/restore", manage, s.Restore).Name("users.restore")

	return nil
}

// List answers users with pagination, search and the trashed filter
// (trashed=with or trashed=only).
func (s *Service) List(c *fiber.Ctx) error {
	page, perPage := handler.Pagination(c)

	f := usersvc.Filter{
		Keyword:      c.Query("keyword"),
		Status:       models.UserStatus(c.Query("status")),
		DepartmentID: handler.QueryUint(c, "department_id"),
		RoleID:       handler.QueryUint(c, "role_id"),
		Trashed:      usersvc.Trashed(c.Query("trashed")),
		Page:         page,
		PageSize:     perPage,
	}

	users, total, err := s.users.List(c.UserContext(), f)
	if err != nil {
		return err
	}

	return handler.ListOK(c, users, total)
}

// Show answers one user with its roles.
func (s *Service) Show(c *fiber.Ctx) error {
	id, err := handler.ParamID64(c)
	if err != nil {
		return err
	}

	u, err := s.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, u)
}

// Create creates a local user.
func (s *Service) Create(c *fiber.Ctx) error {
	var in usersvc.Input

	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	u, err := s.users.Create(c.UserContext(), in)
	if err != nil {
		return err
	}

	return handler.Message(c, "user created", u)
}

// Update updates a user.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParamID64(c)
	if err != nil {
		return err
	}

	var in usersvc.Input

	if err = handler.Bind(c, &in); err != nil {
		return err
	}

	u, err := s.users.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}

	return handler.Message(c, "user updated", u)
}

// Delete soft deletes a user. Users cannot delete themselves.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParamID64(c)
	if err != nil {
		return err
	}

	if err = s.users.Delete(c.UserContext(), id, auth.UserID(c)); err != nil {
		return err
	}

	return handler.Message(c, "user deleted", nil)
}

// Restore brings back a deleted user.
func (s *Service) Restore(c *fiber.Ctx) error {
	id, err := handler.ParamID64(c)
	if err != nil {
		return err
	}

	u, err := s.users.Restore(c.UserContext(), id)
	if err != nil {
		return err
	}

	return handler.Message(c, "user restored", u)
}
