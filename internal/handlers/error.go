package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsboard/opsboard/internal/logger"
)

// ErrorResponse is the standard API error body (message only).
type ErrorResponse struct {
	Message string `json:"message"`
}

// internalError logs the cause with the request-scoped logger and returns a
// generic 500. Store errors carry on-disk paths; those never reach the client.
func internalError(c echo.Context, err error) error {
	logger.FromContext(c.Request().Context()).Error("request failed", slog.Any("error", err))
	return echo.NewHTTPError(http.StatusInternalServerError, "server error")
}
