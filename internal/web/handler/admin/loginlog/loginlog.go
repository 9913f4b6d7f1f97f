// Package loginlog provides the login audit endpoints.
package loginlog

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/auth"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/web/handler"
)

// Path is the base path of the login log endpoints.
const Path = "/login-logs"

// dateLayouts are accepted by the start_date and end_date filters.
var dateLayouts = []string{time.RFC3339, time.DateTime, time.DateOnly}

// Service lists login logs.
type Service struct {
	handler.Service
	authService *auth.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Auth == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.authService = deps.Auth

	view := auth.RequirePermission(deps.Auth, auth.PermLoginLogsView)

	router.Get(Path+"/my", s.My).Name("login-logs.my")
	router.Get(Path, view, s.List).Name("login-logs.index")
	router.Get(Path+"/:id", view, s.Show).Name("login-logs.show")

	return nil
}

func filter(c *fiber.Ctx) auth.LoginLogFilter {
	f := auth.LoginLogFilter{
		Username:  c.Query("username"),
		Account:   c.Query("account"),
		Status:    models.LoginStatus(c.Query("status")),
		IP:        c.Query("ip"),
		LoginType: c.Query("login_type"),
		From:      parseDate(c.Query("start_date"), false),
		To:        parseDate(c.Query("end_date"), true),
	}

	f.Page, f.PageSize = handler.Pagination(c)

	return f
}

// parseDate reads a filter bound. A bare end date covers the whole day.
func parseDate(raw string, end bool) *time.Time {
	if raw == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, raw, time.Local)
		if err != nil {
			continue
		}

		if end && layout == time.DateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}

		return &t
	}

	return nil
}

// My answers the login logs of the current user.
func (s *Service) My(c *fiber.Ctx) error {
	f := filter(c)

	userID := auth.UserID(c)
	f.UserID = &userID

	logs, total, err := s.authService.ListLoginLogs(c.UserContext(), f)
	if err != nil {
		return err
	}

	return handler.ListOK(c, logs, total)
}

// List answers every login log, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	f := filter(c)

	if raw := c.QueryInt("user_id"); raw > 0 {
		userID := uint64(raw)
		f.UserID = &userID
	}

	logs, total, err := s.authService.ListLoginLogs(c.UserContext(), f)
	if err != nil {
		return err
	}

	return handler.ListOK(c, logs, total)
}

// Show answers one login log.
func (s *Service) Show(c *fiber.Ctx) error {
	id, err := handler.ParamID64(c)
	if err != nil {
		return err
	}

	entry, err := s.authService.GetLoginLog(c.UserContext(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, entry)
}
