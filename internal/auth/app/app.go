package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/bearer/internal/auth/http"
	"github.com/aussiebroadwan/bearer/internal/auth/service"
	"github.com/aussiebroadwan/bearer/internal/auth/store"
	"github.com/aussiebroadwan/bearer/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/bearer/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/bearer/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/bearer/pkg/cryptox"
	"github.com/aussiebroadwan/bearer/pkg/httpx"
	"github.com/aussiebroadwan/bearer/pkg/jwtx"
	"github.com/aussiebroadwan/bearer/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	codec  *jwtx.Codec
	hasher *cryptox.PasswordHasher

	// Services
	authService *service.AuthService
	userService *service.UserService
	seedService *service.SeedService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// Option adjusts an Application before it is wired. Tests use it to swap
// the log output.
type Option func(*slogx.Config)

// WithLogOutput sends logs to w instead of stdout.
func WithLogOutput(w io.Writer) Option {
	return func(c *slogx.Config) { c.Output = w }
}

// New creates an Application with every dependency initialised, migrations
// applied and seed users loaded.
func New(ctx context.Context, cfg Config, opts ...Option) (*Application, error) {
	logCfg := slogx.Config{
		Service: "auth-service",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	}
	for _, opt := range opts {
		opt(&logCfg)
	}

	app := &Application{
		cfg:    cfg,
		logger: slogx.New(logCfg),
	}

	pepper, err := cryptox.LoadPepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewPasswordHasher(pepper)
	// Build the dummy digests now so the first failed login is not slower.
	_ = app.hasher.DummyDigests()

	if app.codec, err = InitCodec(cfg, app.logger); err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	if err := app.initStore(ctx); err != nil {
		return nil, err
	}

	app.initServices()

	if err := app.seed(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initHTTP(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	return app, nil
}

// Handler is the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Users exposes account management for operator tooling.
func (app *Application) Users() *service.UserService { return app.userService }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "store", app.cfg.Store.Driver)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initStore opens the configured driver and applies migrations.
func (app *Application) initStore(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.Store.Driver {
	case DriverMemory:
		db = memory.NewStore()
		app.logger.Warn("using the in-memory store, accounts are lost on restart")
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.Store.DatabaseURL)
	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.Store.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", app.cfg.Store.Driver, err)
	}
	app.db = db

	if err := db.ApplyMigrations(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("store ready", "driver", app.cfg.Store.Driver)
	return nil
}

func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:     app.db,
		Passwords: app.hasher,
		Codec:     app.codec,
		AccessTTL: app.cfg.AccessTTL(),
	}
	app.userService = &service.UserService{Store: app.db, Hasher: app.hasher}
	app.seedService = &service.SeedService{Store: app.db, Hasher: app.hasher}
}

func (app *Application) seed(ctx context.Context) error {
	ctx = slogx.WithContext(ctx, app.logger)

	n, err := app.seedService.Run(ctx, app.cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	if n > 0 {
		app.logger.Info("seed users created", "count", n, "seed_file", app.cfg.SeedFile)
	}
	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() error {
	proxies, err := httpx.ParseTrustedProxies(app.cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("failed to parse trusted proxies: %w", err)
	}

	router := httpapi.NewRouter(app.codec, BuildVersion, app.db, app.logger)
	router.AuthService = app.authService
	router.Limits = app.cfg.RateLimit.Limits()
	router.TrustedProxies = proxies
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
