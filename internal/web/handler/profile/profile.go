// Package profile answers the current user with its roles and permissions.
package profile

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler"
)

// Path is the path of the profile endpoint.
const Path = "/auth/me"

// Service is the profile handler service.
type Service struct {
	handler.Service
	authService *auth.Service
}

// Handler is the profile handler.
var Handler = Service{}

// Init registers the profile route behind the session middleware.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Auth == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.authService = deps.Auth

	router.Get(Path, s.Me).Name("auth.me")

	return nil
}

// Me answers the profile of the authenticated user.
func (s *Service) Me(c *fiber.Ctx) error {
	p, err := s.authService.Profile(c.UserContext(), auth.UserID(c))
	if err != nil {
		return err
	}

	return handler.OK(c, p)
}
