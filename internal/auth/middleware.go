package auth

import (
	"context"
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/golang-jwt/jwt/v5"
)

const principalKey = "auth.principal"

// Errors a UserResolver reports for accounts that must not pass the gate.
var (
	// ErrUnknownPrincipal means the account behind a valid token no longer exists.
	ErrUnknownPrincipal = errors.New("unknown principal")
	// ErrInactivePrincipal means the account exists but has been deactivated.
	ErrInactivePrincipal = errors.New("inactive principal")
)

// Principal is the authenticated identity attached to a request. It never
// carries credentials; the password is stripped before attachment.
type Principal struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == "admin"
}

// UserResolver resolves a verified token's account id to a live principal.
type UserResolver interface {
	ResolvePrincipal(ctx context.Context, id int64) (Principal, error)
}

// JWTMiddleware verifies the bearer token on every request not excluded by the
// skipper. Missing, malformed, tampered, and expired tokens all yield 401.
func JWTMiddleware(secret string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper:    skipper,
		SigningKey: []byte(secret),
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		},
	})
}

// CurrentUser resolves verified token claims to a live account and attaches the
// principal to the request. A valid token for a deleted or deactivated account
// yields 401.
func CurrentUser(resolver UserResolver, skipper middleware.Skipper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}
			claims, err := ClaimsFromContext(c)
			if err != nil {
				return err
			}
			principal, err := resolver.ResolvePrincipal(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, ErrUnknownPrincipal) {
					return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
				}
				if errors.Is(err, ErrInactivePrincipal) {
					return echo.NewHTTPError(http.StatusUnauthorized, "account is not active")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "server error")
			}
			SetPrincipal(c, principal)
			return next(c)
		}
	}
}

// RequireAdmin rejects requests whose principal does not hold the admin role.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal, err := PrincipalFromContext(c)
		if err != nil {
			return err
		}
		if !principal.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}

// SetPrincipal attaches a principal to the request context.
func SetPrincipal(c echo.Context, principal Principal) {
	c.Set(principalKey, principal)
}

// ClaimsFromContext returns the verified token claims set by JWTMiddleware.
func ClaimsFromContext(c echo.Context) (*Claims, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return claims, nil
}

// PrincipalFromContext returns the principal attached by CurrentUser.
func PrincipalFromContext(c echo.Context) (Principal, error) {
	principal, ok := c.Get(principalKey).(Principal)
	if !ok {
		return Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return principal, nil
}

// MaybePrincipal returns the principal if one is attached, for paths that run
// with or without authentication (e.g. activity recording).
func MaybePrincipal(c echo.Context) (Principal, bool) {
	principal, ok := c.Get(principalKey).(Principal)
	return principal, ok
}
