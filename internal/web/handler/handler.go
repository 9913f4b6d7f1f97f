// Package handler holds what every HTTP handler shares: the service
// dependencies, the JSON envelope, request binding and error mapping.
package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/config"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/department"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/menu"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/user"
)

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// APIPrefix is the path every IAM route is mounted under.
	APIPrefix = "/api/iam"

	// RouteNamePrefix starts the name of every IAM route.
	RouteNamePrefix = "iam."

	// ErrNilACDFatalLogMsg is used if router or deps var pointer is nil.
	ErrNilACDFatalLogMsg = "router or deps is nil"
)

// Deps bundles the services the handlers work with.
type Deps struct {
	Cfg           *config.Config
	DB            *gorm.DB
	Auth          *auth.Service
	Authenticator *auth.Authenticator
	Users         *user.Service
	Menus         *menu.Service
	Departments   *department.Engine
}

// Service is the interface for a web handler service.
type Service interface {
	Init(router fiber.Router, deps *Deps) error
}
