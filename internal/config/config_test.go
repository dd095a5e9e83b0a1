package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Addr != DefaultHTTPAddr {
		t.Fatalf("expected default addr, got %q", cfg.Server.Addr)
	}
	if cfg.Data.Dir != DefaultDataDir || cfg.Uploads.Dir != DefaultUploadDir {
		t.Fatalf("unexpected dirs: %q %q", cfg.Data.Dir, cfg.Uploads.Dir)
	}
	if cfg.Auth.JWTExpiresIn != DefaultJWTExpiresIn {
		t.Fatalf("expected default expiry, got %q", cfg.Auth.JWTExpiresIn)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	doc := `
[server]
addr = ":9090"

[auth]
jwt_secret = "s3cret"

[admin]
username = "root"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected overridden addr, got %q", cfg.Server.Addr)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Fatalf("expected overridden secret, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Admin.Username != "root" {
		t.Fatalf("expected overridden username, got %q", cfg.Admin.Username)
	}
	// Untouched sections keep their defaults.
	if cfg.Auth.JWTExpiresIn != DefaultJWTExpiresIn {
		t.Fatalf("expected default expiry, got %q", cfg.Auth.JWTExpiresIn)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\naddr=:"), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
