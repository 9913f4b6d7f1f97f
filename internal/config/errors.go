package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownCacheDriver error if config cache.driver is not supported.
	ErrUnknownCacheDriver = errors.New("toml config cache.driver must be redis, database, memory or none")

	// ErrUnknownGormEngine error if config db.gormengine is not supported.
	ErrUnknownGormEngine = errors.New("toml config db.gormengine must be mysql, postgres or sqlite")

	// ErrEmptyGuard error if config iam.guard is empty.
	ErrEmptyGuard = errors.New("toml config iam.guard can not be empty")

	// ErrLDAPURLMissing error if ldap is enabled without url.
	ErrLDAPURLMissing = errors.New("toml config ldap.url can not be empty when ldap is enabled")
)
