package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, expiresAt, err := GenerateToken(42, "admin", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("expected future expiry")
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsTampering(t *testing.T) {
	token, _, err := GenerateToken(1, "user", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", token},
		{"malformed", "not.a.token"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret := testSecret
			if tt.name == "wrong secret" {
				secret = "other-secret"
			}
			if _, err := ParseToken(tt.token, secret); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, _, err := GenerateToken(1, "user", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := ParseToken(token, testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be invalid, got %v", err)
	}
}

func TestDecodeTokenAllowsExpired(t *testing.T) {
	token, _, err := GenerateToken(7, "user", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := DecodeToken(token, testSecret)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if claims.UserID != 7 {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// Decode still verifies the signature.
	parts := strings.Split(token, ".")
	forged := parts[0] + "." + parts[1] + ".forgedsignature"
	if _, err := DecodeToken(forged, testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected forged token to be invalid, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("admin123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "admin123" {
		t.Fatal("expected hash to differ from password")
	}
	if !CheckPassword("admin123", hash) {
		t.Fatal("expected password to verify")
	}
	if CheckPassword("wrong", hash) {
		t.Fatal("expected wrong password to fail")
	}
}
