// Package web wires the fiber application serving the IAM API.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	adapter "github.com/GoIAM-Admin/GoIAM-Admin/internal/logger/adapter/fiber"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler/admin/department"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler/admin/group"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler/admin/loginlog"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler/admin/menu"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler/admin/permission"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler/admin/role"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler/admin/user"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler/login"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler/logout"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler/profile"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler/routes"
)

const (
	// CheckAlivePath answers 200 while the service accepts traffic.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	deps         *handler.Deps
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan error)

	go func() {
		err := s.App.Listen(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("fiber listen error")
		}

		doneFiber <- err
	}()

	return <-doneFiber // wait for fiber to stop
}

// WaitShutdown waits for a termination signal and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.deps.Cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.deps.Cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// Alive reports whether checkalive answers 200.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// New creates the fiber application and registers every handler.
func New(deps *handler.Deps) (*Service, error) {
	if deps == nil || deps.Cfg == nil || deps.DB == nil {
		return nil, errors.New(handler.ErrNilACDFatalLogMsg)
	}

	cfg := deps.Cfg

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   handler.ErrorHandler,
		},
	)

	service := &Service{
		App:          app,
		deps:         deps,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	if cfg.Webserver.CleanPath {
		app.Use(cleanPath)
	}

	app.Use(adapter.New(adapter.Config{
		Config:    cfg.Log,
		SkipPaths: []string{CheckAlivePath, MetricsPath},
		UserIDKey: auth.LocalsUserID,
	}))

	if cfg.Webserver.AllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Webserver.AllowOrigins,
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
			AllowCredentials: !strings.Contains(cfg.Webserver.AllowOrigins, "*"),
		}))
	}

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group(handler.APIPrefix).Name(handler.RouteNamePrefix)

	// login is the only api route reachable without a session
	if err := login.Handler.Init(api, deps); err != nil {
		return nil, err
	}

	api.Use(auth.Authenticate(deps.Auth))

	for _, h := range []handler.Service{
		&logout.Handler,
		&profile.Handler,
		&routes.Handler,
		&menu.Handler,
		&user.Handler,
		&role.Handler,
		&permission.Handler,
		&department.Handler,
		&loginlog.Handler,
		&group.Handler,
	} {
		if err := h.Init(api, deps); err != nil {
			return nil, err
		}
	}

	return service, nil
}

// cleanPath collapses repeated slashes and dot segments before routing.
func cleanPath(c *fiber.Ctx) error {
	p := c.Path()
	if p != "/" && (strings.Contains(p, "//") || strings.Contains(p, "/.")) {
		c.Path(path.Clean(p))
	}

	return c.Next()
}
