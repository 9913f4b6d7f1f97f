// Package session keeps the server side login sessions. The session id is
// sent to the client as cookie and accepted back as bearer token.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// ErrNoSession is returned when a session id is unknown or expired.
var ErrNoSession = errors.New("session not found")

// Store is the global session store instance.
var Store *session.Store

// Data represents the session data structure.
type Data struct {
	UserID   uint64    `json:"user_id"`
	Username string    `json:"username"`
	LoginAt  time.Time `json:"login_at"`
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Storage.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}

	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err
	}

	if len(byteData) == 0 {
		return ErrNoSession
	}

	return json.Unmarshal(byteData, s)
}

// Delete removes the session.
func Delete(sessionID string) error {
	if sessionID == "" {
		return nil
	}

	return Store.Storage.Delete(sessionID)
}

// Init initializes the session store with the provided storage backend.
// A nil storage keeps the sessions in memory.
func Init(storage fiber.Storage) {
	Store = session.New(session.Config{
		Storage:    storage,
		KeyLookup:  "cookie:" + CookieName,
		Expiration: 24 * time.Hour, //nolint:mnd
	})
}

// ID returns the session id of the request: the bearer token if present,
// the session cookie otherwise.
func ID(c *fiber.Ctx) string {
	if token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return c.Cookies(CookieName)
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
