// Package bootstrap wires all dependencies and starts the application:
// logger, storage, module registry, route service, HTTP server.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	apihttp "github.com/artpar/modgate/adapters/http"
	"github.com/artpar/modgate/adapters/metrics"
	"github.com/artpar/modgate/adapters/sqlite"
	"github.com/artpar/modgate/app"
	"github.com/artpar/modgate/config"
	"github.com/artpar/modgate/core/events"
	"github.com/artpar/modgate/core/module"
	"github.com/artpar/modgate/core/route"
	"github.com/artpar/modgate/modules/echo"
	"github.com/artpar/modgate/modules/kv"
	"github.com/artpar/modgate/modules/token"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	DB         *sqlite.DB
	Registry   *module.Registry
	Bus        *events.Bus
	Routes     *app.RouteService
	Metrics    *metrics.Collector
	HTTPServer *http.Server

	holder *config.Holder
}

// New wires an application from a loaded configuration.
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	bus := events.NewBus(logger)

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New()
	}

	registry := module.NewRegistry()
	if err := registerModules(registry, db); err != nil {
		db.Close()
		return nil, err
	}

	dispatcher := route.NewDispatcher(cfg.Debug, logger, bus)
	routes := app.NewRouteService(registry, dispatcher, bus, collector, logger)

	if err := routes.Reload(RouteSpecs(cfg)); err != nil {
		db.Close()
		return nil, fmt.Errorf("load routes: %w", err)
	}

	handler := apihttp.NewHandler(routes, logger, Version)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Router(cfg.Metrics.Enabled, cfg.Metrics.Path),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		Logger:     logger,
		DB:         db,
		Registry:   registry,
		Bus:        bus,
		Routes:     routes,
		Metrics:    collector,
		HTTPServer: server,
	}, nil
}

// NewWithHotReload wires an application whose route table follows the
// config file: file writes and SIGHUP trigger a rebuild. A rejected
// config keeps the previous table live.
func NewWithHotReload(path string) (*App, error) {
	bootLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	holder, err := config.NewHolder(path, bootLogger)
	if err != nil {
		return nil, err
	}

	a, err := New(holder.Get())
	if err != nil {
		holder.Stop()
		return nil, err
	}
	a.holder = holder

	holder.OnChange(func(cfg *config.Config) {
		if err := a.Routes.Reload(RouteSpecs(cfg)); err != nil {
			a.Logger.Error().Err(err).Msg("route reload from config change failed")
		}
	})
	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch unavailable")
	}
	holder.WatchSignals()

	return a, nil
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then
// shuts down gracefully.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Str("version", Version).
			Msg("server starting")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-sigCh:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("server shutdown error")
	}

	a.Close()
	return nil
}

// Close releases application resources.
func (a *App) Close() {
	if a.holder != nil {
		a.holder.Stop()
	}
	a.Routes.Stop()
	if a.DB != nil {
		a.DB.Close()
	}
}

// RouteSpecs converts configured routes into compiler input, in sorted
// name order so rebuilds are deterministic.
func RouteSpecs(cfg *config.Config) []route.Spec {
	specs := make([]route.Spec, 0, len(cfg.Routes))
	for _, name := range cfg.RouteNames() {
		rc := cfg.Routes[name]
		specs = append(specs, route.Spec{
			Name:        name,
			Description: rc.Description,
			Broadcast:   rc.Broadcast,
			Schedule:    rc.Schedule,
			Paths:       rc.Paths,
		})
	}
	return specs
}

// registerModules registers the built-in feature modules.
func registerModules(registry *module.Registry, db *sqlite.DB) error {
	kvMod, err := kv.New(db)
	if err != nil {
		return fmt.Errorf("kv module: %w", err)
	}
	tokenMod, err := token.New(db)
	if err != nil {
		return fmt.Errorf("token module: %w", err)
	}

	for _, m := range []module.Module{echo.New(Version), kvMod, tokenMod} {
		if err := registry.Register(m); err != nil {
			return fmt.Errorf("register %s: %w", m.Name(), err)
		}
	}
	return nil
}

// setupLogger builds the root logger from the logging config.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
