// Package daemon assembles the services of the IAM server from the
// configuration and runs it.
package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/config"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/department"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/menu"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/permission"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/user"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/session"
)

// ErrNilConfig is returned by New without configuration.
var ErrNilConfig = errors.New("config is nil")

// Daemon represents the main application daemon.
type Daemon struct {
	Deps       *handler.Deps
	webService *web.Service
	closers    []func()
}

// New connects the database and the stores and builds every service.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	d := &Daemon{}

	store, closeStore := newCacheStore(ctx, cfg, db)
	d.closers = append(d.closers, closeStore)

	sessionStorage := databaseStorage(cfg, db, SessionTable)
	d.closers = append(d.closers, func() { _ = sessionStorage.Close() })
	session.Init(sessionStorage)

	menuCache := menu.NewCache(store, menu.CacheOptions{
		TTL:                cfg.IAM.MenuCache.TTL,
		IncludePermissions: cfg.IAM.MenuCache.IncludePermissions,
	})
	menus := menu.NewService(db, menuCache, menu.NewResolver(cfg.IAM.SuperAdminRole))
	authService := auth.NewService(db, cfg.IAM, menus)

	var ldapProvider *auth.LDAPProvider

	if cfg.LDAP.Enabled {
		if ldapProvider, err = auth.NewLDAPProvider(cfg.LDAP, db); err != nil {
			return nil, err
		}
	}

	d.Deps = &handler.Deps{
		Cfg:           cfg,
		DB:            db,
		Auth:          authService,
		Authenticator: auth.NewAuthenticator(db, authService, ldapProvider, cfg.LDAP, cfg.Webserver.Session.ExpiryTime),
		Users:         user.NewService(db),
		Menus:         menus,
		Departments:   department.NewEngine(db),
	}

	if d.webService, err = web.New(d.Deps); err != nil {
		return nil, err
	}

	return d, nil
}

// Routes returns the named routes of the HTTP API.
func (d *Daemon) Routes() []permission.Route {
	return permission.FiberRoutes(d.webService.App)
}

// SyncPermissions derives the permissions from the API routes, stores them
// and, unless noRoles is set, grants them to the configured sync roles.
func (d *Daemon) SyncPermissions(ctx context.Context, opts permission.DeriveOptions, dryRun, noRoles bool,
) (permission.Report, []string, error) {
	s := permission.NewSynchronizer(d.Deps.DB, d.Deps.Cfg.IAM)
	candidates := s.Derive(d.Routes(), opts)

	report, err := s.Sync(ctx, candidates, dryRun)
	if err != nil || dryRun || noRoles {
		return report, nil, err
	}

	roles, err := s.SyncRoles(ctx, candidates)
	if err != nil {
		return report, nil, err
	}

	if len(roles) > 0 {
		if err = d.Deps.Menus.Flush(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to flush the menu cache")
		}
	}

	return report, roles, nil
}

// Start seeds the database, synchronizes the permissions and serves the
// API until a termination signal arrives.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.seed(ctx); err != nil {
		return err
	}

	if _, _, err := d.SyncPermissions(ctx, permission.DeriveOptions{}, false, false); err != nil {
		return err
	}

	if err := d.seedMenus(ctx); err != nil {
		return err
	}

	errc := make(chan error, 1)

	go func() {
		errc <- d.webService.Start(fmt.Sprintf(":%d", d.Deps.Cfg.Webserver.Port))
	}()

	go d.webService.WaitShutdown()

	return <-errc
}

// Close releases the stores.
func (d *Daemon) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}
