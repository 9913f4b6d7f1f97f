// Package login provides the HTTP handler opening a session.
package login

import "errors"

// ErrNoAuthenticator is returned by Init without an authenticator.
var ErrNoAuthenticator = errors.New("authenticator is nil")
