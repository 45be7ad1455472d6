package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fleetctl/internal/config"
	"fleetctl/internal/server"
	"fleetctl/internal/tui/controller"
	"fleetctl/internal/tui/model"
	"fleetctl/pkg/logging"
)

// runServeMode executes the non-interactive HTTP API mode
func runServeMode(ctx context.Context, a *Application) error {
	logging.InitForCLI(a.logLevel(), os.Stderr)

	// The watcher keeps the catalog current while the API is up; requests
	// then read a fresh registry without rescanning on every call.
	stopWatch, err := a.registry.Watch(ctx, func(cfgs []config.ServiceConfig) {
		logging.Info("Server", "Catalog refreshed, now %d services", len(cfgs))
	})
	if err != nil {
		logging.Warn("Server", "Catalog watching disabled: %v", err)
	} else {
		defer func() { _ = stopWatch() }()
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := server.New(a.registry, a.monitor, a.lifecycle, a.metrics)
	return srv.Run(ctx, a.config.ListenAddr)
}

// runTUIMode executes the interactive terminal UI mode
func runTUIMode(ctx context.Context, a *Application) error {
	// Switch logging to channel-based delivery so entries land in the TUI
	// log pane instead of fighting bubbletea for the terminal.
	logChan := logging.InitForTUI(a.logLevel())
	defer logging.CloseTUIChannel()

	p, err := controller.NewProgram(model.TUIConfig{
		DebugMode: a.config.Debug,
		Registry:  a.registry,
		Monitor:   a.monitor,
		Lifecycle: a.lifecycle,
	}, logChan)
	if err != nil {
		logging.Error("TUI", err, "Error creating TUI program")
		return err
	}

	// Descriptor changes on disk flow into the program as refresh messages.
	stopWatch, err := a.registry.Watch(ctx, func(cfgs []config.ServiceConfig) {
		p.Send(model.CatalogReloadedMsg{Configs: cfgs})
	})
	if err != nil {
		logging.Warn("TUI", "Catalog watching disabled: %v", err)
	} else {
		defer func() { _ = stopWatch() }()
	}

	if _, err := p.Run(); err != nil {
		logging.Error("TUI", err, "Error running TUI program")
		return err
	}
	return nil
}
