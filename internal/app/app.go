package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vk/addonkit/internal/config"
	"github.com/vk/addonkit/internal/ctxlog"
	"github.com/vk/addonkit/internal/env"
	"github.com/vk/addonkit/internal/hcl"
	"github.com/vk/addonkit/internal/metrics"
	"github.com/vk/addonkit/internal/yamlmanifest"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx     context.Context
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	loaders []config.Loader
	modules []env.Module

	env     *env.Env
	metrics *metrics.Collector

	// bootMu serializes Boot; mu guards the results of the last boot.
	bootMu   sync.Mutex
	mu       sync.RWMutex
	manifest *config.Manifest
	order    []string

	httpServer *http.Server
}

// Option customizes an App.
type Option func(*App)

// WithLoaders replaces the default HCL and YAML manifest loaders.
func WithLoaders(loaders ...config.Loader) Option {
	return func(a *App) { a.loaders = loaders }
}

// WithModules replaces the compiled-in Go modules.
func WithModules(modules ...env.Module) Option {
	return func(a *App) { a.modules = modules }
}

// NewApp is the constructor for the main application. It returns an App
// with its own isolated logger, environment and metrics; nothing is loaded
// until Boot.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	a := &App{
		ctx:     ctx,
		outW:    outW,
		logger:  logger,
		config:  cfg,
		loaders: []config.Loader{hcl.NewLoader(), yamlmanifest.NewLoader()},
		modules: coreModules,
		metrics: metrics.NewCollector(""),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.env = env.New(
		env.WithDuplicatePolicy(cfg.policy()),
		env.WithObserver(a.metrics),
	)
	return a
}

// Env returns the application's environment.
func (a *App) Env() *env.Env { return a.env }

// Metrics returns the application's metrics collector.
func (a *App) Metrics() *metrics.Collector { return a.metrics }

// Manifest returns the merged manifest of the last boot.
func (a *App) Manifest() *config.Manifest {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.manifest
}

// Order returns the addon load order of the last boot.
func (a *App) Order() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.order
}

func (a *App) setLoaded(manifest *config.Manifest, order []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.manifest = manifest
	a.order = order
}

// Context returns the app's base context, which carries its logger.
func (a *App) Context() context.Context { return a.ctx }
