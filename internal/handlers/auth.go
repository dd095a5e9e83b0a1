// Package handlers provides the HTTP API handlers for the dashboard server.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opsboard/opsboard/internal/auth"
	"github.com/opsboard/opsboard/internal/users"
)

// AuthHandler serves /api/auth and issues JWTs.
type AuthHandler struct {
	userService *users.Service
	jwtSecret   string
	expiresIn   time.Duration
	logger      *slog.Logger
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the success body for login and register.
type LoginResponse struct {
	Success   bool             `json:"success"`
	Token     string           `json:"token"`
	User      users.PublicUser `json:"user"`
	ExpiresIn string           `json:"expiresIn,omitempty"`
}

// RefreshRequest is the body for POST /api/auth/refresh.
type RefreshRequest struct {
	Token string `json:"token"`
}

// NewAuthHandler creates an auth handler with the user service and JWT config.
func NewAuthHandler(log *slog.Logger, userService *users.Service, jwtSecret string, expiresIn time.Duration) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		userService: userService,
		jwtSecret:   jwtSecret,
		expiresIn:   expiresIn,
		logger:      log.With(slog.String("handler", "auth")),
	}
}

// Register mounts the auth routes on the Echo instance.
func (h *AuthHandler) Register(e *echo.Echo) {
	g := e.Group("/api/auth")
	g.POST("/login", h.Login)
	g.POST("/register", h.SignUp)
	g.GET("/me", h.Me)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
}

// Login godoc
// @Summary Login
// @Description Validate credentials and issue a JWT
// @Tags auth
// @Param payload body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/auth/login [post].
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, err := h.userService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		if errors.Is(err, users.ErrInactiveAccount) {
			return echo.NewHTTPError(http.StatusUnauthorized, "account is not active")
		}
		return internalError(c, err)
	}

	token, _, err := auth.GenerateToken(user.ID, user.Role, h.jwtSecret, h.expiresIn)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Success:   true,
		Token:     token,
		User:      user.Public(),
		ExpiresIn: h.expiresIn.String(),
	})
}

// SignUp godoc
// @Summary Register
// @Description Create a new account and issue a JWT
// @Tags auth
// @Param payload body users.CreateRequest true "Registration request"
// @Success 201 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/auth/register [post].
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req users.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name, email and password are required")
	}

	user, err := h.userService.Register(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "user already exists")
		}
		return internalError(c, err)
	}

	token, _, err := auth.GenerateToken(user.ID, user.Role, h.jwtSecret, h.expiresIn)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(http.StatusCreated, LoginResponse{
		Success: true,
		Token:   token,
		User:    user.Public(),
	})
}

// Me godoc
// @Summary Get current user
// @Description Return the authenticated account
// @Tags auth
// @Success 200 {object} map[string]any
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/auth/me [get].
func (h *AuthHandler) Me(c echo.Context) error {
	principal, err := auth.PrincipalFromContext(c)
	if err != nil {
		return err
	}
	user, err := h.userService.Get(c.Request().Context(), principal.ID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"user":    user.Public(),
	})
}

// Refresh godoc
// @Summary Refresh token
// @Description Exchange a token (possibly expired) for a fresh one
// @Tags auth
// @Param payload body RefreshRequest true "Refresh request"
// @Success 200 {object} map[string]any
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/auth/refresh [post].
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Token) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	// Expiry is deliberately not checked here; the signature still is, so only
	// tokens this server minted can be renewed.
	claims, err := auth.DecodeToken(req.Token, h.jwtSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	user, err := h.userService.Get(c.Request().Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
		}
		return internalError(c, err)
	}
	if user.Status != users.StatusActive {
		return echo.NewHTTPError(http.StatusUnauthorized, "account is not active")
	}

	token, _, err := auth.GenerateToken(user.ID, user.Role, h.jwtSecret, h.expiresIn)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
	})
}

// Logout godoc
// @Summary Logout
// @Description Acknowledge logout; tokens are stateless and dropped client-side
// @Tags auth
// @Success 200 {object} map[string]any
// @Router /api/auth/logout [post].
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "logged out successfully",
	})
}
