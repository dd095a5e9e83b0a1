package activity

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opsboard/opsboard/internal/auth"
)

// skippedPaths are never logged. Health probes would flood the capped log,
// and login failures carry credentials in their context.
var skippedPaths = map[string]struct{}{
	"/api/health":     {},
	"/api/ping":       {},
	"/api/auth/login": {},
}

// Middleware records one entry per handled request after the response is
// written. Recording is fire-and-forget and never affects the response.
func Middleware(svc *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if _, ok := skippedPaths[path]; ok {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				// Let echo resolve the status before we read it.
				c.Error(err)
			}

			entry := Entry{
				Action:     c.Request().Method + " " + path,
				Method:     c.Request().Method,
				Endpoint:   path,
				StatusCode: c.Response().Status,
				UserAgent:  c.Request().UserAgent(),
				IP:         c.RealIP(),
				Duration:   fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
				Timestamp:  start.UTC(),
			}
			if principal, ok := auth.MaybePrincipal(c); ok {
				id := principal.ID
				entry.UserID = &id
			}
			svc.Record(entry)

			return err
		}
	}
}
