package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/bonechkabonechka/tgauth/internal/auth/http"
	"github.com/bonechkabonechka/tgauth/internal/auth/metrics"
	"github.com/bonechkabonechka/tgauth/internal/auth/service"
	"github.com/bonechkabonechka/tgauth/internal/auth/store"
	"github.com/bonechkabonechka/tgauth/internal/auth/store/drivers/postgres"
	"github.com/bonechkabonechka/tgauth/internal/auth/store/drivers/sqlite"
	"github.com/bonechkabonechka/tgauth/pkg/httpx"
	"github.com/bonechkabonechka/tgauth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	issuer  *service.CredentialIssuer
	metrics *metrics.Metrics

	// Services
	profileService      *service.ProfileService
	handshakeService    *service.HandshakeService
	signInService       *service.SignInService
	sessionGuard        *service.SessionGuard
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router

	releaseOnce sync.Once
	releaseErr  error
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tgauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	issuer, err := InitIssuer(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.issuer = issuer

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.metrics = metrics.New(reg)

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested. The
// housekeeping worker and the database are released on every return path.
func (app *Application) Run() error {
	app.housekeepingService.Start()
	defer func() { _ = app.release() }()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

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
			app.logger.Error("server failed", "error", err)
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

// Handler exposes the HTTP handler, mostly for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.release(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// release stops the housekeeping worker and closes the database. Only the
// first call does anything.
func (app *Application) release() error {
	app.releaseOnce.Do(func() {
		app.housekeepingService.Stop()
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			app.releaseErr = err
		}
	})
	return app.releaseErr
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.Open(context.Background(), app.cfg.DatabaseURL, postgres.DefaultPoolConfig)
	default:
		db, err = sqlite.NewStore(app.cfg.DatabaseFile)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize %s database: %w", app.cfg.DatabaseDriver, err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.profileService = &service.ProfileService{
		Store:        app.db,
		DefaultRoles: app.cfg.DefaultRoles,
	}

	app.handshakeService = &service.HandshakeService{
		Store:       app.db,
		Issuer:      app.issuer,
		Profiles:    app.profileService,
		Metrics:     app.metrics,
		BotUsername: app.cfg.BotUsername,
		PublicURL:   app.cfg.PublicURL,
		TTL:         app.cfg.PairingTTL,
	}

	app.signInService = &service.SignInService{
		Store:    app.db,
		Issuer:   app.issuer,
		Profiles: app.profileService,
		Metrics:  app.metrics,
		BotToken: app.cfg.BotToken,
		MaxAge:   app.cfg.InitDataMaxAge,
	}
	if app.cfg.BotToken == "" {
		app.logger.Warn("TELEGRAM_BOT_TOKEN not set, direct sign-in disabled")
	}

	app.sessionGuard = &service.SessionGuard{Issuer: app.issuer, Metrics: app.metrics}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.PairingRetention,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.metrics, app.logger)

	router.Issuer = app.issuer
	router.HandshakeService = app.handshakeService
	router.SignInService = app.signInService
	router.SessionGuard = app.sessionGuard
	router.ProfileService = app.profileService
	router.Cookies = httpx.CookieConfig{
		Domain:   app.cfg.CookieDomain,
		Secure:   app.cfg.CookieSecure,
		SameSite: httpx.ParseSameSite(app.cfg.CookieSameSite),
		MaxAge:   app.cfg.RefreshTTL,
	}
	router.BotSecret = app.cfg.BotCallbackSecret
	if router.BotSecret == "" {
		app.logger.Warn("AUTH_BOT_CALLBACK_SECRET not set, handshake completion is unauthenticated")
	}
	router.SiteURL = app.cfg.SiteURL
	router.CORS = httpx.CORSConfig{AllowedOrigins: app.cfg.CORSOrigins, MaxAgeSeconds: 600}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
