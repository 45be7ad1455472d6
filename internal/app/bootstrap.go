// Package app assembles the fleetctl components for the long-running
// surfaces. The serve and tui commands hand it a Config; it builds the
// registry, health monitor, lifecycle controller and metrics once, runs an
// initial discovery, and then enters the requested mode.
package app

import (
	"context"
	"fmt"

	"fleetctl/internal/health"
	"fleetctl/internal/lifecycle"
	"fleetctl/internal/registry"
	"fleetctl/internal/server"
	"fleetctl/pkg/logging"
)

// Application is the main application structure that bootstraps and runs fleetctl
type Application struct {
	config *Config

	registry  *registry.Registry
	monitor   *health.Monitor
	lifecycle *lifecycle.Controller
	metrics   *server.Metrics
}

// NewApplication creates and initializes a new application instance
func NewApplication(cfg *Config) (*Application, error) {
	if cfg.ServicesDir == "" {
		return nil, fmt.Errorf("services directory not configured")
	}

	metrics := server.NewMetrics()
	reg := registry.New(cfg.ServicesDir)

	a := &Application{
		config:    cfg,
		registry:  reg,
		monitor:   health.New(reg, health.WithRecorder(metrics)),
		lifecycle: lifecycle.New(lifecycle.WithRecorder(metrics)),
		metrics:   metrics,
	}

	// Prime the catalog so the first render/request does not start empty.
	// Per-entry descriptor failures are already reported by the registry.
	if _, err := reg.Discover(); err != nil {
		return nil, fmt.Errorf("initial service discovery failed: %w", err)
	}
	logging.Info("Bootstrap", "Managing %d services under %s", len(reg.List()), cfg.ServicesDir)

	return a, nil
}

// logLevel resolves the effective log level from the configuration.
func (a *Application) logLevel() logging.LogLevel {
	if a.config.Debug {
		return logging.LevelDebug
	}
	return logging.ParseLevel(a.config.LogLevel)
}

// RunServe runs the headless HTTP API until ctx is cancelled.
func (a *Application) RunServe(ctx context.Context) error {
	return runServeMode(ctx, a)
}

// RunTUI runs the interactive dashboard until the user exits.
func (a *Application) RunTUI(ctx context.Context) error {
	return runTUIMode(ctx, a)
}
