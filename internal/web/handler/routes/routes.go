// Package routes answers the front-end route tree visible to the current user.
package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/menu"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler"
)

const (
	// Path is the path of the route tree endpoint.
	Path = "/routes"

	// HeaderMenuVersion carries the version of the menu table the tree was built from.
	HeaderMenuVersion = "X-Menu-Version"
)

// Service is the route tree handler service.
type Service struct {
	handler.Service
	authService *auth.Service
	menus       *menu.Service
}

// Handler is the route tree handler.
var Handler = Service{}

// Init registers the route tree endpoint behind the session middleware.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Auth == nil || deps.Menus == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.authService = deps.Auth
	s.menus = deps.Menus

	router.Get(Path, s.Index).Name("routes.index")

	return nil
}

// Index answers the visible routes. refresh, force or invalidate rebuild the
// cached tree of the caller.
func (s *Service) Index(c *fiber.Ctx) error {
	ctx := c.UserContext()

	p, err := s.authService.Principal(ctx, auth.UserID(c))
	if err != nil {
		return err
	}

	refresh := handler.QueryBool(c, "refresh") || handler.QueryBool(c, "force") || handler.QueryBool(c, "invalidate")

	res, err := s.menus.TreeFor(ctx, p, refresh)
	if err != nil {
		return err
	}

	c.Set(HeaderMenuVersion, res.Version)

	return handler.OK(c, res)
}
