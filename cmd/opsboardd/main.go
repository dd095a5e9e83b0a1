package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/opsboard/opsboard/internal/activity"
	"github.com/opsboard/opsboard/internal/boot"
	"github.com/opsboard/opsboard/internal/config"
	"github.com/opsboard/opsboard/internal/handlers"
	"github.com/opsboard/opsboard/internal/logger"
	"github.com/opsboard/opsboard/internal/products"
	"github.com/opsboard/opsboard/internal/server"
	"github.com/opsboard/opsboard/internal/store"
	"github.com/opsboard/opsboard/internal/users"
	"github.com/opsboard/opsboard/internal/version"
)

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	return logger.Init(cfg.Log.Level, cfg.Log.Format)
}

func provideUserCollection(rc *boot.RuntimeConfig) *store.Collection[users.User, *users.User] {
	return store.New[users.User, *users.User](filepath.Join(rc.DataDir, "users.json"))
}

func provideProductCollection(rc *boot.RuntimeConfig) *store.Collection[products.Product, *products.Product] {
	return store.New[products.Product, *products.Product](filepath.Join(rc.DataDir, "products.json"))
}

func provideActivityCollection(rc *boot.RuntimeConfig) *store.Collection[activity.Entry, *activity.Entry] {
	return store.New[activity.Entry, *activity.Entry](filepath.Join(rc.DataDir, "logs.json"))
}

func main() {
	fx.New(
		fx.Provide(
			provideConfig,
			boot.ProvideRuntimeConfig,
			provideLogger,

			provideUserCollection,
			provideProductCollection,
			provideActivityCollection,

			users.NewService,
			products.NewService,
			activity.NewService,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(handlers.NewUsersHandler),
			provideServerHandler(provideProductsHandler),
			provideServerHandler(handlers.NewDashboardHandler),

			provideServer,
		),
		fx.Invoke(
			ensureCollections,
			startActivityWriter,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideAuthHandler(log *slog.Logger, userService *users.Service, rc *boot.RuntimeConfig) *handlers.AuthHandler {
	return handlers.NewAuthHandler(log, userService, rc.JwtSecret, rc.JwtExpiresIn)
}

func provideProductsHandler(log *slog.Logger, productService *products.Service, rc *boot.RuntimeConfig) *handlers.ProductsHandler {
	return handlers.NewProductsHandler(log, productService, rc.UploadDir)
}

type serverParams struct {
	fx.In

	Logger          *slog.Logger
	RuntimeConfig   *boot.RuntimeConfig
	UserService     *users.Service
	ActivityService *activity.Service
	ServerHandlers  []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(
		params.Logger,
		params.RuntimeConfig.ServerAddr,
		params.RuntimeConfig.JwtSecret,
		params.UserService,
		params.ActivityService,
		params.ServerHandlers...,
	)
}

func ensureCollections(
	lc fx.Lifecycle,
	logger *slog.Logger,
	rc *boot.RuntimeConfig,
	cfg config.Config,
	userService *users.Service,
	productService *products.Service,
	activityService *activity.Service,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := os.MkdirAll(rc.DataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			if cfg.Admin.Password == "change-your-password-here" {
				logger.Warn("admin password uses default placeholder; please update config.toml")
			}
			if err := userService.EnsureSeed(users.AdminSeed{
				Username: cfg.Admin.Username,
				Password: cfg.Admin.Password,
				Email:    cfg.Admin.Email,
			}); err != nil {
				return fmt.Errorf("seed users: %w", err)
			}
			if err := productService.Ensure(); err != nil {
				return fmt.Errorf("ensure products: %w", err)
			}
			if err := activityService.Ensure(); err != nil {
				return fmt.Errorf("ensure activity log: %w", err)
			}
			return nil
		},
	})
}

func startActivityWriter(lc fx.Lifecycle, activityService *activity.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			activityService.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return activityService.Stop(ctx)
		},
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting opsboard %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil { // block until server is stopped
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// graceful shutdown
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
