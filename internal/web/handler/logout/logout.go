// Package logout provides the HTTP handler closing a session.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/session"
)

// Path is the path of the logout endpoint.
const Path = "/auth/logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the logout handler.
var Handler = Service{}

// Init registers the logout route behind the session middleware.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Cfg == nil || deps.Authenticator == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.deps = deps

	router.Post(Path, s.Logout).Name("auth.logout")

	return nil
}

// Logout handles user logout by deleting the session.
func (s *Service) Logout(c *fiber.Ctx) error {
	if err := s.deps.Authenticator.Logout(auth.SessionID(c)); err != nil {
		log.Error().Err(err).Msg("failed to delete session")
	}

	// Clear the session cookie
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		MaxAge:   -1,
		Secure:   !s.deps.Cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return handler.Message(c, "logout successful", nil)
}
