package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/session"
)

const (
	// Path is the path of the login endpoint.
	Path = "/auth/login"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the login handler.
var Handler = Service{}

// Init registers the login route. It must be mounted outside the session middleware.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Cfg == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	if deps.Authenticator == nil {
		return ErrNoAuthenticator
	}

	s.deps = deps

	router.Post(Path, s.Post).Name("auth.login")

	return nil
}

// Post checks the credentials and answers the session token. The token is
// also set as session cookie.
func (s *Service) Post(c *fiber.Ctx) error {
	var in auth.LoginInput

	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	in.IP = c.IP()
	in.UserAgent = c.Get(fiber.HeaderUserAgent)

	res, err := s.deps.Authenticator.AttemptLogin(c.UserContext(), in)
	if err != nil {
		return err
	}

	expiry := s.deps.Cfg.Webserver.Session.ExpiryTime

	cookie := &fiber.Cookie{
		Name:     session.CookieName,
		Value:    res.Token,
		MaxAge:   int(expiry.Seconds()),
		Secure:   !s.deps.Cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}

	c.Cookie(cookie)

	return handler.Message(c, "login successful", fiber.Map{
		"token":      res.Token,
		"token_type": res.TokenType,
		"expires_at": res.ExpiresAt,
		"user":       res.User,
	})
}
