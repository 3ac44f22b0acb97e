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

	"github.com/aussiebroadwan/doorman/internal/auth/directory"
	httpapi "github.com/aussiebroadwan/doorman/internal/auth/http"
	"github.com/aussiebroadwan/doorman/internal/auth/metrics"
	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/aussiebroadwan/doorman/internal/auth/session"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/httpx"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// BuildVersion is overridden at build time via -ldflags "-X ...BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application encapsulates the login service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	keys     *jwtx.KeySet
	signer   *jwtx.EdDSASigner
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	loginService *service.LoginService
	sessions     *session.Manager

	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the service logger from cfg and installs it as the
// default. A nil out writes to stdout.
func NewLogger(cfg Config, out io.Writer) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "doorman",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  out,
	})
}

// New creates a new Application instance with all dependencies initialized.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg, nil),
	}

	cryptox.SetPepperPath(cfg.PepperFile)
	if err := cryptox.LoadPepper(); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	signer, keys, err := InitSessionKeys(cfg.Session, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.signer, app.keys = signer, keys

	dir, err := NewDirectory(cfg.Directory, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initMetrics()
	app.initServices(dir)
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("doorman starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"database", app.cfg.Database.Driver,
		"directory", app.cfg.Directory.Mode,
	)

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

// Handler exposes the HTTP handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down doorman...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("doorman stopped")
	return nil
}

// initDatabase opens the credential store and applies migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := OpenStore(ctx, app.cfg.Database)
	if err != nil {
		return err
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.Database.Driver)
	return nil
}

func (app *Application) initMetrics() {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)
}

func (app *Application) initServices(dir directory.Directory) {
	app.loginService = service.NewLoginService(app.db, dir, app.cfg.Directory.Timeout, app.metrics)

	verifier := jwtx.NewVerifierEdDSA(app.keys, app.cfg.Session.Issuer, 30*time.Second)
	app.sessions = session.NewManager(app.signer, verifier, session.Config{
		Issuer: app.cfg.Session.Issuer,
		TTL:    app.cfg.Session.TTL,
		Secure: app.cfg.Session.Secure,
	})
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.keys, BuildVersion, app.db, app.logger)

	router.LoginService = app.loginService
	router.Sessions = app.sessions
	router.Gatherer = app.registry
	router.TrustProxy = app.cfg.TrustProxy
	router.LoginLimit = rateLimit(app.cfg.RateLimit.LoginRequests, app.cfg.RateLimit.LoginWindow)
	router.ProbeLimit = rateLimit(app.cfg.RateLimit.ProbeRequests, app.cfg.RateLimit.ProbeWindow)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func rateLimit(requests int, window time.Duration) httpx.RateLimitConfig {
	return httpx.RateLimitConfig{Requests: requests, Window: window, Burst: requests}
}
