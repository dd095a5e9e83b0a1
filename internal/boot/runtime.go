// Package boot provides runtime configuration and dependency wiring for the server.
package boot

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/opsboard/opsboard/internal/config"
)

// RuntimeConfig holds parsed runtime settings (JWT, server address, data directories).
// Values may be overridden by environment variables (e.g. HTTP_ADDR, DATA_DIR, JWT_SECRET).
type RuntimeConfig struct {
	JwtSecret    string
	JwtExpiresIn time.Duration
	ServerAddr   string
	DataDir      string
	UploadDir    string
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and applies env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	secret := cfg.Auth.JWTSecret
	if value := os.Getenv("JWT_SECRET"); value != "" {
		secret = value
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}

	jwtExpiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("invalid jwt expires in: %w", err)
	}

	ret := &RuntimeConfig{
		JwtSecret:    secret,
		JwtExpiresIn: jwtExpiresIn,
		ServerAddr:   cfg.Server.Addr,
		DataDir:      cfg.Data.Dir,
		UploadDir:    cfg.Uploads.Dir,
	}

	if value := os.Getenv("HTTP_ADDR"); value != "" {
		ret.ServerAddr = value
	}
	if value := os.Getenv("DATA_DIR"); value != "" {
		ret.DataDir = value
	}
	return ret, nil
}
