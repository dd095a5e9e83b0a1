package boot

import (
	"testing"
	"time"

	"github.com/opsboard/opsboard/internal/config"
)

func baseConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Addr: ":8080"},
		Auth:   config.AuthConfig{JWTSecret: "secret", JWTExpiresIn: "24h"},
		Data:   config.DataConfig{Dir: "data"},
		Uploads: config.UploadsConfig{
			Dir: "uploads/products",
		},
	}
}

func TestProvideRuntimeConfig(t *testing.T) {
	rc, err := ProvideRuntimeConfig(baseConfig())
	if err != nil {
		t.Fatalf("provide failed: %v", err)
	}
	if rc.JwtExpiresIn != 24*time.Hour {
		t.Fatalf("expected 24h expiry, got %v", rc.JwtExpiresIn)
	}
	if rc.ServerAddr != ":8080" || rc.DataDir != "data" {
		t.Fatalf("unexpected runtime config: %+v", rc)
	}
}

func TestProvideRuntimeConfigRequiresSecret(t *testing.T) {
	cfg := baseConfig()
	cfg.Auth.JWTSecret = "  "
	if _, err := ProvideRuntimeConfig(cfg); err == nil {
		t.Fatal("expected error for blank secret")
	}
}

func TestProvideRuntimeConfigRejectsBadExpiry(t *testing.T) {
	cfg := baseConfig()
	cfg.Auth.JWTExpiresIn = "one day"
	if _, err := ProvideRuntimeConfig(cfg); err == nil {
		t.Fatal("expected error for unparsable expiry")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("DATA_DIR", "/var/lib/opsboard")

	rc, err := ProvideRuntimeConfig(baseConfig())
	if err != nil {
		t.Fatalf("provide failed: %v", err)
	}
	if rc.JwtSecret != "env-secret" {
		t.Fatalf("expected env secret, got %q", rc.JwtSecret)
	}
	if rc.ServerAddr != ":9999" {
		t.Fatalf("expected env addr, got %q", rc.ServerAddr)
	}
	if rc.DataDir != "/var/lib/opsboard" {
		t.Fatalf("expected env data dir, got %q", rc.DataDir)
	}
}
