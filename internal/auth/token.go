// Package auth provides JWT bearer credentials and the request authentication gate.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token failure: signature mismatch,
// malformed structure, or expiry. Callers see one outcome; the cause is kept
// in the wrapped error for logging.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the token claims bound to an account id and role.
type Claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed HS256 token for the account, expiring after expiresIn.
func GenerateToken(userID int64, role, secret string, expiresIn time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(expiresIn)
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseToken verifies signature, structure, and expiry, returning the claims.
func ParseToken(tokenString, secret string) (*Claims, error) {
	return parse(tokenString, secret)
}

// DecodeToken checks the signature but skips claims validation, so an expired
// token still decodes. Only the token refresh boundary may use this instead of
// ParseToken; refresh on an expired-but-authentic token is deliberate leniency.
func DecodeToken(tokenString, secret string) (*Claims, error) {
	return parse(tokenString, secret, jwt.WithoutClaimsValidation())
}

func parse(tokenString, secret string, opts ...jwt.ParserOption) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
