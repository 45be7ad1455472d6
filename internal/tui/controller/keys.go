package controller

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"fleetctl/internal/config"
	"fleetctl/internal/tui/model"
	"fleetctl/pkg/logging"
)

// handleKeyMsg routes key presses by mode. Ctrl+C quits from anywhere,
// including while the env editor has focus.
func handleKeyMsg(m *model.Model, keyMsg tea.KeyMsg) (*model.Model, tea.Cmd) {
	if keyMsg.String() == "ctrl+c" {
		return quit(m)
	}

	switch m.CurrentAppMode {
	case model.ModeStreamOverlay:
		return handleStreamOverlayKeys(m, keyMsg)
	case model.ModeEnvOverlay:
		return handleEnvOverlayKeys(m, keyMsg)
	case model.ModeHelpOverlay:
		return handleHelpOverlayKeys(m, keyMsg)
	default:
		return handleDashboardKeys(m, keyMsg)
	}
}

// quit tears down an open stream so its child process group dies with the
// UI, then exits the program loop.
func quit(m *model.Model) (*model.Model, tea.Cmd) {
	if m.Stream != nil {
		_ = m.Stream.Close()
		m.Stream = nil
	}
	m.CurrentAppMode = model.ModeQuitting
	m.QuittingMessage = "Shutting down..."
	return m, tea.Quit
}

func handleDashboardKeys(m *model.Model, keyMsg tea.KeyMsg) (*model.Model, tea.Cmd) {
	switch {
	case key.Matches(keyMsg, m.Keys.Quit):
		return quit(m)

	case key.Matches(keyMsg, m.Keys.Up):
		m.MoveCursor(-1)
		return m, nil

	case key.Matches(keyMsg, m.Keys.Down):
		m.MoveCursor(1)
		return m, nil

	case key.Matches(keyMsg, m.Keys.Help):
		m.CurrentAppMode = model.ModeHelpOverlay
		return m, nil

	case key.Matches(keyMsg, m.Keys.Refresh):
		m.Refreshing = true
		return m, model.RefreshStatusesCmd(m.Monitor, m.Services)

	case key.Matches(keyMsg, m.Keys.Start):
		return startAction(m, model.ActionStart)

	case key.Matches(keyMsg, m.Keys.Stop):
		return startAction(m, model.ActionStop)

	case key.Matches(keyMsg, m.Keys.Restart):
		return startAction(m, model.ActionRestart)

	case key.Matches(keyMsg, m.Keys.Install):
		return startInstall(m)

	case key.Matches(keyMsg, m.Keys.Logs):
		cfg, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, model.OpenLogsCmd(m.Lifecycle, cfg)

	case key.Matches(keyMsg, m.Keys.Env):
		cfg, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, model.LoadEnvCmd(cfg)

	case key.Matches(keyMsg, m.Keys.Yank):
		return yankServicePath(m)
	}
	return m, nil
}

// startAction marks the selected row busy and dispatches the lifecycle
// operation. Start and restart flip the row to starting right away; the
// follow-up check after the result settles the real status.
func startAction(m *model.Model, action string) (*model.Model, tea.Cmd) {
	cfg, ok := m.Selected()
	if !ok {
		return m, nil
	}
	if current, busy := m.Busy[cfg.ID]; busy {
		return m, m.SetStatusMessage(fmt.Sprintf("%s: %s already in progress", cfg.ID, current), model.StatusBarWarning, 3*time.Second)
	}

	m.Busy[cfg.ID] = action
	if action == model.ActionStart || action == model.ActionRestart {
		m.Statuses[cfg.ID] = config.StatusStarting
	}
	logging.Info(controllerSubsystem, "User requested %s for %s", action, cfg.ID)

	return m, tea.Batch(
		model.RunActionCmd(m.Lifecycle, cfg, action),
		m.SetStatusMessage(fmt.Sprintf("%s %s…", action, cfg.ID), model.StatusBarInfo, 3*time.Second),
	)
}

func startInstall(m *model.Model) (*model.Model, tea.Cmd) {
	cfg, ok := m.Selected()
	if !ok {
		return m, nil
	}
	if current, busy := m.Busy[cfg.ID]; busy {
		return m, m.SetStatusMessage(fmt.Sprintf("%s: %s already in progress", cfg.ID, current), model.StatusBarWarning, 3*time.Second)
	}

	m.Busy[cfg.ID] = model.ActionInstall
	logging.Info(controllerSubsystem, "User requested install for %s", cfg.ID)
	return m, model.OpenInstallCmd(m.Lifecycle, cfg)
}

func yankServicePath(m *model.Model) (*model.Model, tea.Cmd) {
	cfg, ok := m.Selected()
	if !ok {
		return m, nil
	}
	if err := clipboard.WriteAll(cfg.Path); err != nil {
		logging.Error(controllerSubsystem, err, "Failed to copy service path")
		return m, m.SetStatusMessage("Copy path failed", model.StatusBarError, 3*time.Second)
	}
	return m, m.SetStatusMessage(fmt.Sprintf("Path of %s copied", cfg.ID), model.StatusBarSuccess, 3*time.Second)
}

func handleStreamOverlayKeys(m *model.Model, keyMsg tea.KeyMsg) (*model.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "q":
		return quit(m)
	case "esc", "l":
		// Closing the stream kills the child; the pending read drains the
		// remaining lines and delivers the closed message.
		if m.Stream != nil {
			_ = m.Stream.Close()
		}
		m.CurrentAppMode = model.ModeDashboard
		return m, nil
	case "y":
		if err := clipboard.WriteAll(strings.Join(m.StreamLines, "\n")); err != nil {
			logging.Error(controllerSubsystem, err, "Failed to copy stream output")
			return m, m.SetStatusMessage("Copy failed", model.StatusBarError, 3*time.Second)
		}
		return m, m.SetStatusMessage("Output copied to clipboard", model.StatusBarSuccess, 3*time.Second)
	default:
		var cmd tea.Cmd
		m.StreamViewport, cmd = m.StreamViewport.Update(keyMsg)
		return m, cmd
	}
}

func handleEnvOverlayKeys(m *model.Model, keyMsg tea.KeyMsg) (*model.Model, tea.Cmd) {
	if m.EnvEditing {
		switch keyMsg.String() {
		case "enter":
			m.EnvEditing = false
			m.EnvInput.Blur()
			if m.EnvCursor < 0 || m.EnvCursor >= len(m.EnvNames) {
				return m, nil
			}
			name := m.EnvNames[m.EnvCursor]
			return m, model.SaveEnvCmd(m.EnvService, name, m.EnvInput.Value())
		case "esc":
			m.EnvEditing = false
			m.EnvInput.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.EnvInput, cmd = m.EnvInput.Update(keyMsg)
			return m, cmd
		}
	}

	switch keyMsg.String() {
	case "q":
		return quit(m)
	case "esc", "e":
		m.CurrentAppMode = model.ModeDashboard
		return m, nil
	case "k", "up":
		if m.EnvCursor > 0 {
			m.EnvCursor--
		}
		return m, nil
	case "j", "down":
		if m.EnvCursor < len(m.EnvNames)-1 {
			m.EnvCursor++
		}
		return m, nil
	case "v":
		m.EnvReveal = !m.EnvReveal
		return m, nil
	case "enter":
		if m.EnvCursor < 0 || m.EnvCursor >= len(m.EnvNames) {
			return m, nil
		}
		name := m.EnvNames[m.EnvCursor]
		m.EnvEditing = true
		m.EnvInput.SetValue(m.EnvValues[name])
		m.EnvInput.CursorEnd()
		m.EnvInput.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func handleHelpOverlayKeys(m *model.Model, keyMsg tea.KeyMsg) (*model.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "q":
		return quit(m)
	case "esc", "?":
		m.CurrentAppMode = model.ModeDashboard
		return m, nil
	}
	return m, nil
}
