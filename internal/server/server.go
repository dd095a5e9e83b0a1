// Package server provides the HTTP server and Echo setup for the dashboard API.
package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/opsboard/opsboard/internal/activity"
	"github.com/opsboard/opsboard/internal/auth"
	"github.com/opsboard/opsboard/internal/logger"
)

// publicPaths bypass the authentication gate.
var publicPaths = map[string]struct{}{
	"/api/ping":          {},
	"/api/health":        {},
	"/api/auth/login":    {},
	"/api/auth/register": {},
	"/api/auth/refresh":  {},
}

// Server is the HTTP server (Echo) with the auth gate, activity recording, and
// registered handlers.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger
}

// Handler registers routes on the Echo instance.
type Handler interface {
	Register(e *echo.Echo)
}

// NewServer builds the Echo server with recovery, request logging, JWT auth,
// activity recording, and the given handlers.
func NewServer(log *slog.Logger, addr, jwtSecret string, userService auth.UserResolver, activityService *activity.Service,
	handlers ...Handler,
) *Server {
	if addr == "" {
		addr = ":8080"
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Request-scoped logger; handlers pick it up via logger.FromContext.
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			reqLog := log.With(
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.String("remote_ip", c.RealIP()),
			)
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), reqLog)))
			return next(c)
		}
	})
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", c.RealIP()),
			)
			return nil
		},
	}))

	skipper := func(c echo.Context) bool {
		path := c.Request().URL.Path
		if strings.HasPrefix(path, "/uploads/") {
			return true
		}
		_, ok := publicPaths[path]
		return ok
	}
	e.Use(auth.JWTMiddleware(jwtSecret, skipper))
	e.Use(auth.CurrentUser(userService, skipper))
	if activityService != nil {
		e.Use(activity.Middleware(activityService))
	}

	for _, h := range handlers {
		if h != nil {
			h.Register(e)
		}
	}

	return &Server{
		echo:   e,
		addr:   addr,
		logger: log.With(slog.String("component", "server")),
	}
}

// Start starts the HTTP server (blocks until shutdown).
func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Stop gracefully shuts down the server using the given context.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
