// Package menu provides the handlers administering menus.
package menu

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	menusvc "github.com/GoIAM-Admin/GoIAM-Admin/internal/menu"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/tree"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler"
)

const (
	// Path is the base path for menu management.
	Path = "/menus"
)

// Node is a menu with its children, as answered by Tree.
type Node struct {
	models.Menu

	Children []Node `json:"children"`
}

// Service provides CRUD operations for menus.
type Service struct {
	handler.Service
	menus *menusvc.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Auth == nil || deps.Menus == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.menus = deps.Menus

	view := auth.RequirePermission(deps.Auth, auth.PermMenusView)
	manage := auth.RequirePermission(deps.Auth, auth.PermMenusManage)

	router.Get(Path+"/tree", view, s.Tree).Name("menus.tree")
	router.Get(Path, view, s.List).Name("menus.index")
	router.Post(Path, manage, s.Create).Name("menus.store")
	router.Get(Path+"/:id", view, s.Show).Name("menus.show")
	router.Put(Path+"/:id", manage, s.Update).Name("menus.update")
	router.Delete(Path+"/:id", manage, s.Delete).Name("menus.destroy")

	return nil
}

// Tree answers every menu as a forest, disabled ones included.
func (s *Service) Tree(c *fiber.Ctx) error {
	forest, err := s.menus.Tree(c.UserContext())
	if err != nil {
		return err
	}

	return handler.OK(c, fiber.Map{"list": toNodes(forest)})
}

// List answers menus with simple pagination and search.
func (s *Service) List(c *fiber.Ctx) error {
	page, perPage := handler.Pagination(c)

	f := menusvc.Filter{
		Keyword:  c.Query("keyword"),
		ParentID: handler.QueryUint(c, "parent_id"),
		Page:     page,
		PageSize: perPage,
	}

	if c.Query("is_enabled") != "" {
		enabled := handler.QueryBool(c, "is_enabled")
		f.Enabled = &enabled
	}

	menus, total, err := s.menus.List(c.UserContext(), f)
	if err != nil {
		return err
	}

	return handler.ListOK(c, menus, total)
}

// Show answers one menu with its links.
func (s *Service) Show(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	m, err := s.menus.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, m)
}

// Create creates a menu.
func (s *Service) Create(c *fiber.Ctx) error {
	var in menusvc.CreateInput

	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	m, err := s.menus.Create(c.UserContext(), in)
	if err != nil {
		return err
	}

	return handler.Message(c, "menu created", m)
}

// Update updates a menu. A null parent_id moves it to the roots and a null
// guard removes the guard.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	var in menusvc.UpdateInput

	if err = handler.Bind(c, &in); err != nil {
		return err
	}

	fields := handler.Fields(c)
	_, in.ParentSet = fields["parent_id"]
	_, in.GuardSet = fields["guard"]

	m, err := s.menus.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}

	return handler.Message(c, "menu updated", m)
}

// Delete removes a menu without children.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	if err = s.menus.Delete(c.UserContext(), id); err != nil {
		return err
	}

	return handler.Message(c, "menu deleted", nil)
}

func toNodes(forest []*tree.Node[models.Menu]) []Node {
	return tree.Map(forest, func(n *tree.Node[models.Menu], children []Node) Node {
		return Node{Menu: n.Item, Children: children}
	})
}
