package controller

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"fleetctl/internal/tui/model"
	"fleetctl/internal/tui/view"
	"fleetctl/pkg/logging"
)

// NewProgram creates a new Bubble Tea program over the wired core
// components. The registry is expected to be primed so the first frame
// already shows the catalog.
func NewProgram(cfg model.TUIConfig, logChannel <-chan logging.LogEntry) (*tea.Program, error) {
	if cfg.Registry == nil || cfg.Monitor == nil || cfg.Lifecycle == nil {
		return nil, fmt.Errorf("tui requires registry, monitor and lifecycle components")
	}

	// Dark background by default; helps with colour-consistency.
	view.Initialize(true)

	m := model.InitialModel(cfg, logChannel)
	app := NewAppModel(m)

	p := tea.NewProgram(app, tea.WithAltScreen())
	return p, nil
}
