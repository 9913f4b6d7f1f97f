package config

import (
	"time"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Cache     Cache
	LDAP      LDAP
	IAM       IAM
	Seed      Seed
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool    // use clean path middleware to allow multi slash requests
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	AllowOrigins   string  // comma separated CORS origins, empty disables CORS
	Session        Session // session settings
}

// Cache selects the store behind the menu cache.
type Cache struct {
	Driver     string // redis, database, memory or none
	Prefix     string // prepended to every cache key
	MemorySize int    // max entries of the memory driver
	Table      string // table of the database driver
	Redis      Redis
}

// Redis holds the redis connection settings.
type Redis struct {
	Addr        string
	Username    string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// LDAP holds the directory login settings.
type LDAP struct {
	Enabled      bool
	URL          string // ldap:// or ldaps:// url
	BindDN       string
	BindPassword string
	BaseDN       string
	UserFilter   string // %s is replaced by the escaped account
	GroupFilter  string // %s is replaced by the escaped user DN
	StartTLS     bool
	SkipVerify   bool
	Timeout      time.Duration

	// Attribute names.
	UsernameAttribute string
	EmailAttribute    string
	NameAttribute     string
	PhoneAttribute    string
	GroupAttribute    string

	// GroupRoles maps directory group names (cn) to role names.
	GroupRoles map[string][]string
	// DefaultRoles are granted to every directory user on first login.
	DefaultRoles []string
}

// Seed controls the initial data written on start.
type Seed struct {
	Enabled       bool
	AdminUsername string
	AdminEmail    string
	AdminPassword string // generated and logged once when empty
	// RootDepartment is the code of the root department, skipped when empty.
	RootDepartment string
}
