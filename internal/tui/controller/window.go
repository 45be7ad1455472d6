package controller

import (
	tea "github.com/charmbracelet/bubbletea"

	"fleetctl/internal/tui/model"
	"fleetctl/internal/tui/view"
)

// handleWindowSizeMsg updates the model with the new terminal dimensions when
// the window is resized. It also transitions from ModeInitializing to
// ModeDashboard once the size is known.
func handleWindowSizeMsg(m *model.Model, msg tea.WindowSizeMsg) (*model.Model, tea.Cmd) {
	m.Width = msg.Width
	m.Height = msg.Height
	m.Help.Width = msg.Width

	if m.CurrentAppMode == model.ModeInitializing {
		m.CurrentAppMode = model.ModeDashboard
	}

	// Refit the stream viewport so an open overlay tracks the resize.
	w, h := view.StreamOverlaySize(msg.Width, msg.Height)
	m.StreamViewport.Width = w
	m.StreamViewport.Height = h

	return m, nil
}
