package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/session"
)

// Locals keys set by Authenticate.
const (
	LocalsUserID    = "user_id"
	LocalsSessionID = "session_id"
)

// Authenticate creates Fiber middleware that requires a valid session of an
// active user and stores the user id in the locals.
func Authenticate(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := session.ID(c)
		if sessionID == "" {
			return ErrUnauthenticated
		}

		sessionData := new(session.Data)
		if err := sessionData.Read(sessionID); err != nil || sessionData.UserID == 0 {
			log.Debug().Err(err).Msg("invalid session")
			return ErrUnauthenticated
		}

		if _, err := authService.ActiveUser(c.UserContext(), sessionData.UserID); err != nil {
			return err
		}

		c.Locals(LocalsUserID, sessionData.UserID)
		c.Locals(LocalsSessionID, sessionID)

		return c.Next()
	}
}

// UserID returns the id of the authenticated user, 0 outside Authenticate.
func UserID(c *fiber.Ctx) uint64 {
	id, _ := c.Locals(LocalsUserID).(uint64)
	return id
}

// SessionID returns the session id of the authenticated request.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalsSessionID).(string)
	return id
}

// RequirePermission creates Fiber middleware that requires a specific permission.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return RequireAnyPermission(authService, permission)
}

// RequireAnyPermission creates Fiber middleware that requires at least one of the given permissions.
func RequireAnyPermission(authService *Service, permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == 0 {
			return ErrUnauthenticated
		}

		hasPermission, err := authService.HasAnyPermission(c.UserContext(), userID, permissions)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", userID).Strs("permissions", permissions).
				Msg("Failed to check permissions")

			return err
		}

		if !hasPermission {
			log.Warn().Uint64("user_id", userID).Strs("permissions", permissions).
				Msg("User lacks required permissions")

			return ErrForbidden
		}

		return c.Next()
	}
}
