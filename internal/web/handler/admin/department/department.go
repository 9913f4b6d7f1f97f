// Package department provides the handlers of the department hierarchy.
package department

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	deptsvc "github.com/GoIAM-Admin/GoIAM-Admin/internal/department"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler"
)

const (
	// Path is the base path for department management.
	Path = "/departments"
)

// Detail is a department with its position in the hierarchy.
type Detail struct {
	*models.Department

	FullPath    string              `json:"full_path"`
	Ancestors   []models.Department `json:"ancestors,omitempty"`
	Descendants []models.Department `json:"descendants,omitempty"`
}

// Service provides the department operations.
type Service struct {
	handler.Service
	engine *deptsvc.Engine
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Auth == nil || deps.Departments == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.engine = deps.Departments

	view := auth.RequirePermission(deps.Auth, auth.PermDepartmentsView)
	manage := auth.RequirePermission(deps.Auth, auth.PermDepartmentsManage)

	router.Get(Path+"/tree", view, s.Tree).Name("departments.tree")
	router.Post(Path+"/:id/move", manage, s.Move).Name("departments.move")
	router.Get(Path, view, s.List).Name("departments.index")
	router.Post(Path, manage, s.Create).Name("departments.store")
	router.Get(Path+"/:id", view, s.Show).Name("departments.show")
	router.Put(Path+"/:id", manage, s.Update).Name("departments.update")
	router.Delete(Path+"/:id", manage, s.Delete).Name("departments.destroy")

	return nil
}

func filter(c *fiber.Ctx) deptsvc.Filter {
	f := deptsvc.Filter{
		Name:       c.Query("name"),
		Code:       c.Query("code"),
		Status:     models.DepartmentStatus(c.Query("status")),
		ParentID:   handler.QueryUint(c, "parent_id"),
		ActiveOnly: handler.QueryBool(c, "active_only"),
	}

	if raw := c.Query("manager_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			f.ManagerID = &id
		}
	}

	return f
}

// Tree answers the filtered departments as a forest with level and is_leaf.
func (s *Service) Tree(c *fiber.Ctx) error {
	forest, total, err := s.engine.Tree(c.UserContext(), filter(c))
	if err != nil {
		return err
	}

	return handler.ListOK(c, forest, int64(total))
}

// List answers the departments in tree order with pagination.
func (s *Service) List(c *fiber.Ctx) error {
	f := filter(c)
	f.Page, f.PageSize = handler.Pagination(c)

	depts, total, err := s.engine.List(c.UserContext(), f)
	if err != nil {
		return err
	}

	return handler.ListOK(c, depts, total)
}

// Show answers a department with its full path; with_ancestors and
// with_descendants add the related departments.
func (s *Service) Show(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	ctx := c.UserContext()

	dept, err := s.engine.Get(ctx, id)
	if err != nil {
		return err
	}

	detail := Detail{Department: dept}

	if detail.FullPath, err = s.engine.FullPath(ctx, id); err != nil {
		return err
	}

	if handler.QueryBool(c, "with_ancestors") {
		if detail.Ancestors, err = s.engine.Ancestors(ctx, id); err != nil {
			return err
		}
	}

	if handler.QueryBool(c, "with_descendants") {
		if detail.Descendants, err = s.engine.Descendants(ctx, id); err != nil {
			return err
		}
	}

	return handler.OK(c, detail)
}

// Create creates a department.
func (s *Service) Create(c *fiber.Ctx) error {
	var in deptsvc.CreateInput

	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	dept, err := s.engine.Create(c.UserContext(), in)
	if err != nil {
		return err
	}

	return handler.Message(c, "department created", dept)
}

// Update updates a department. A null parent_id makes it a root.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	var in deptsvc.UpdateInput

	if err = handler.Bind(c, &in); err != nil {
		return err
	}

	in.ParentSet = handler.Has(c, "parent_id")

	dept, err := s.engine.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}

	return handler.Message(c, "department updated", dept)
}

// Move places a department before or after a sibling, or inside a parent.
func (s *Service) Move(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	var in deptsvc.MoveInput

	if err = handler.Bind(c, &in); err != nil {
		return err
	}

	dept, err := s.engine.Move(c.UserContext(), id, in)
	if err != nil {
		return err
	}

	return handler.Message(c, "department moved", dept)
}

// Delete removes a department without children and users.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	if err = s.engine.Delete(c.UserContext(), id); err != nil {
		return err
	}

	return handler.Message(c, "department deleted", nil)
}
