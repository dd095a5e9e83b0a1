package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsboard/opsboard/internal/auth"
	"github.com/opsboard/opsboard/internal/query"
	"github.com/opsboard/opsboard/internal/users"
)

// UsersHandler serves /api/users.
type UsersHandler struct {
	service *users.Service
	logger  *slog.Logger
}

// UserListResponse is the body for GET /api/users.
type UserListResponse struct {
	Success    bool               `json:"success"`
	Data       []users.PublicUser `json:"data"`
	Pagination query.Pagination   `json:"pagination"`
}

// UserResponse is the single-user envelope.
type UserResponse struct {
	Success bool             `json:"success"`
	Data    users.PublicUser `json:"data"`
}

// NewUsersHandler creates a users handler.
func NewUsersHandler(log *slog.Logger, service *users.Service) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{
		service: service,
		logger:  log.With(slog.String("handler", "users")),
	}
}

// Register mounts the user routes on the Echo instance.
func (h *UsersHandler) Register(e *echo.Echo) {
	g := e.Group("/api/users")
	g.GET("", h.ListUsers, auth.RequireAdmin)
	g.POST("", h.CreateUser, auth.RequireAdmin)
	g.GET("/:id", h.GetUser)
	g.PUT("/:id", h.UpdateUser)
	g.DELETE("/:id", h.DeleteUser, auth.RequireAdmin)
	g.PUT("/:id/password", h.UpdatePassword)
}

// ListUsers godoc
// @Summary List users (admin only)
// @Description List users with search, filters, sorting, and pagination
// @Tags users
// @Success 200 {object} UserListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/users [get].
func (h *UsersHandler) ListUsers(c echo.Context) error {
	q := users.ListQuery{
		Page:      intQuery(c, "page", 1),
		Limit:     intQuery(c, "limit", 10),
		Search:    c.QueryParam("search"),
		Role:      c.QueryParam("role"),
		Status:    c.QueryParam("status"),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
	}
	data, pagination, err := h.service.List(c.Request().Context(), q)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, UserListResponse{
		Success:    true,
		Data:       data,
		Pagination: pagination,
	})
}

// CreateUser godoc
// @Summary Create user (admin only)
// @Description Create a new account
// @Tags users
// @Param payload body users.CreateRequest true "User payload"
// @Success 201 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/users [post].
func (h *UsersHandler) CreateUser(c echo.Context) error {
	var req users.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name, email and password are required")
	}
	user, err := h.service.Register(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "user already exists")
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusCreated, UserResponse{Success: true, Data: user.Public()})
}

// GetUser godoc
// @Summary Get user by ID
// @Description Get account details (self or admin only)
// @Tags users
// @Param id path int true "User ID"
// @Success 200 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/users/{id} [get].
func (h *UsersHandler) GetUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.requireSelfOrAdmin(c, id); err != nil {
		return err
	}
	user, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, UserResponse{Success: true, Data: user.Public()})
}

// UpdateUser godoc
// @Summary Update user
// @Description Update account fields (self or admin; role changes admin only)
// @Tags users
// @Param id path int true "User ID"
// @Param payload body users.UpdateRequest true "Update payload"
// @Success 200 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/users/{id} [put].
func (h *UsersHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.requireSelfOrAdmin(c, id); err != nil {
		return err
	}
	var req users.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	principal, err := auth.PrincipalFromContext(c)
	if err != nil {
		return err
	}
	if (req.Role != nil || req.Status != nil) && !principal.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "admin access required to change role or status")
	}
	user, err := h.service.Update(c.Request().Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, users.ErrEmailTaken):
			return echo.NewHTTPError(http.StatusBadRequest, "email already in use")
		default:
			return internalError(c, err)
		}
	}
	return c.JSON(http.StatusOK, UserResponse{Success: true, Data: user.Public()})
}

// DeleteUser godoc
// @Summary Delete user (admin only)
// @Description Delete an account; self-deletion is rejected
// @Tags users
// @Param id path int true "User ID"
// @Success 200 {object} map[string]any
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/users/{id} [delete].
func (h *UsersHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	principal, err := auth.PrincipalFromContext(c)
	if err != nil {
		return err
	}
	if principal.ID == id {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot delete your own account")
	}
	removed, err := h.service.Delete(c.Request().Context(), id)
	if err != nil {
		return internalError(c, err)
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "user deleted successfully",
	})
}

// UpdatePassword godoc
// @Summary Change password
// @Description Change the account password; self-service changes must present the current password
// @Tags users
// @Param id path int true "User ID"
// @Param payload body users.UpdatePasswordRequest true "Password payload"
// @Success 200 {object} map[string]any
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/users/{id}/password [put].
func (h *UsersHandler) UpdatePassword(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.requireSelfOrAdmin(c, id); err != nil {
		return err
	}
	var req users.UpdatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "new password is required")
	}
	principal, err := auth.PrincipalFromContext(c)
	if err != nil {
		return err
	}
	// Admins resetting another account skip the current-password check.
	requireCurrent := !(principal.IsAdmin() && principal.ID != id)
	err = h.service.UpdatePassword(c.Request().Context(), id, req.CurrentPassword, req.NewPassword, requireCurrent)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, users.ErrInvalidPassword):
			return echo.NewHTTPError(http.StatusBadRequest, "current password is incorrect")
		default:
			return internalError(c, err)
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "password updated successfully",
	})
}

func (h *UsersHandler) requireSelfOrAdmin(c echo.Context, targetID int64) error {
	principal, err := auth.PrincipalFromContext(c)
	if err != nil {
		return err
	}
	if principal.ID != targetID && !principal.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	return nil
}
