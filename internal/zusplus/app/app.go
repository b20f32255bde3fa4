package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zusplus/zusplus/internal/zusplus/advisor"
	"github.com/zusplus/zusplus/internal/zusplus/gate"
	httpapi "github.com/zusplus/zusplus/internal/zusplus/http"
	"github.com/zusplus/zusplus/internal/zusplus/obs"
	"github.com/zusplus/zusplus/internal/zusplus/prognoza"
	"github.com/zusplus/zusplus/internal/zusplus/report"
	"github.com/zusplus/zusplus/pkg/idp"
	"github.com/zusplus/zusplus/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the ZUSPlus backend with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	idpClient      *idp.Client
	prognozaClient *prognoza.Client
	advisorClient  *advisor.Client

	flows     *httpapi.FlowStore
	collector *report.Collector

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "zusplus",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.IDPBaseURL == "" {
		return nil, errors.New("IDP_URL must be set")
	}

	obs.Init()
	app.initClients()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("zusplus starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down zusplus...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.logger.Info("zusplus stopped")
	return nil
}

// initClients initializes the upstream clients and the per-browser flow store.
func (app *Application) initClients() {
	app.idpClient = idp.NewClient(app.cfg.IDPBaseURL)
	app.prognozaClient = prognoza.NewClient(app.cfg.PrognozaBaseURL)

	advisorClient, err := advisor.NewClient(app.cfg.AdvisorBaseURL, app.cfg.AdvisorAPIKey)
	if err != nil {
		app.logger.Warn("advisor disabled", "error", err)
	}
	app.advisorClient = advisorClient

	app.flows = httpapi.NewFlowStore(func() gate.Provider {
		return gate.NewIDPProvider(app.idpClient)
	})
	app.flows.TTL = app.cfg.FlowTTL

	app.collector = report.NewCollector()
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.logger)

	router.Flows = app.flows
	router.Report = app.collector
	router.IDPClient = app.idpClient
	router.Prognoza = app.prognozaClient
	router.Advisor = app.advisorClient
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
