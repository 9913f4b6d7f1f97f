// Package fiber writes one zerolog access log line per request served by the IAM API.
package fiber

import (
	"io"
	"os"
	"path"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/logger"
)

// HeaderResponseTime carries the handler latency in milliseconds.
const HeaderResponseTime = "X-Response-Time"

// Config of the access log middleware.
type Config struct {
	// Next skips the middleware when it returns true.
	Next func(c *fiber.Ctx) bool

	// Config of the logger.
	Config logger.Log

	// CacheControlError is set on responses the error handler could not render.
	CacheControlError string

	// SkipPaths are not logged when Log.DisableCheckAlive is set.
	SkipPaths []string

	// UserIDKey is the fiber.Locals key holding the authenticated user id.
	UserIDKey string
}

// ConfigDefault is used for every unset field.
var ConfigDefault = Config{ //nolint:gochecknoglobals
	CacheControlError: "no-store",
	UserIDKey:         "user_id",
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}

	cfg := config[0]

	if cfg.CacheControlError == "" {
		cfg.CacheControlError = ConfigDefault.CacheControlError
	}

	if cfg.UserIDKey == "" {
		cfg.UserIDKey = ConfigDefault.UserIDKey
	}

	return cfg
}

// accessWriter collects the configured access log outputs.
func accessWriter(cfg logger.Log) io.Writer {
	var writers []io.Writer

	if cfg.File.Enabled {
		if w := newRollingAccessFile(cfg); w != nil {
			writers = append(writers, w)
		}
	}

	if cfg.Console.Enabled && cfg.EnableAccessLogToConsole {
		if cfg.Console.UseConsoleWriter {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:          os.Stdout,
				TimeFormat:   zerolog.TimeFieldFormat,
				PartsExclude: []string{zerolog.LevelFieldName},
			})
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	return zerolog.MultiLevelWriter(writers...)
}

// New returns the access log middleware.
// Errors returned by the chain are rendered with the app error handler before the line is written,
// so the logged status is the one the client receives.
func New(config ...Config) fiber.Handler {
	var (
		cfg        = configDefault(config...)
		once       sync.Once
		errHandler fiber.ErrorHandler
	)

	access := zerolog.New(accessWriter(cfg.Config)).With().Timestamp().Logger().Level(zerolog.NoLevel)

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		once.Do(func() {
			errHandler = c.App().ErrorHandler
		})

		start := time.Now()

		chainErr := c.Next()
		if chainErr != nil {
			if err := errHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError) //nolint:errcheck
				c.Response().Header.Set(fiber.HeaderCacheControl, cfg.CacheControlError)
			}
		}

		latency := time.Since(start)
		c.Set(HeaderResponseTime, strconv.FormatFloat(float64(latency.Microseconds())/1000, 'f', 3, 64))

		// the raw path is logged, fasthttp normalizes duplicate slashes in c.Path
		uri := string(c.Request().RequestURI())
		if cfg.Config.DisableCheckAlive && slices.Contains(cfg.SkipPaths, c.Path()) {
			return nil
		}

		event := access.Log().
			Str("ip", c.IP()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", latency).
			Str("uri", uri).
			Str("method", c.Method()).
			Str("host", c.Hostname()).
			Str("forwarded_for", c.Get(fiber.HeaderXForwardedFor)).
			Str("user_agent", c.Get(fiber.HeaderUserAgent)).
			Str("referer", c.Get(fiber.HeaderReferer))

		if name := c.Route().Name; name != "" {
			event.Str("route", name)
		}

		if userID, ok := c.Locals(cfg.UserIDKey).(uint64); ok {
			event.Uint64("user_id", userID)
		}

		if chainErr != nil {
			event.Err(chainErr)
		}

		event.Send()

		return nil
	}
}

func newRollingAccessFile(cfg logger.Log) io.Writer {
	if cfg.File.AccessLog == "" {
		return nil
	}

	if cfg.File.Path != "" {
		if err := os.MkdirAll(cfg.File.Path, 0o750); err != nil { //nolint:mnd
			log.Error().Err(err).Str("path", cfg.File.Path).Msg("access log directory not created")

			return nil
		}
	}

	return &lumberjack.Logger{
		Filename:   path.Join(cfg.File.Path, cfg.File.AccessLog),
		MaxSize:    cfg.File.AccessMaxSize,
		MaxAge:     cfg.File.AccessMaxAge,
		MaxBackups: cfg.File.AccessMaxBackups,
	}
}
