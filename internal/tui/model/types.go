package model

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"fleetctl/internal/config"
	"fleetctl/internal/health"
	"fleetctl/internal/lifecycle"
	"fleetctl/internal/registry"
	"fleetctl/pkg/logging"
)

// AppMode represents the current mode of the application
type AppMode int

const (
	ModeInitializing AppMode = iota
	ModeDashboard
	ModeHelpOverlay
	ModeStreamOverlay
	ModeEnvOverlay
	ModeQuitting
)

// String provides a human-readable representation of the AppMode.
func (m AppMode) String() string {
	switch m {
	case ModeInitializing:
		return "Initializing"
	case ModeDashboard:
		return "Dashboard"
	case ModeHelpOverlay:
		return "HelpOverlay"
	case ModeStreamOverlay:
		return "StreamOverlay"
	case ModeEnvOverlay:
		return "EnvOverlay"
	case ModeQuitting:
		return "Quitting"
	default:
		return "Unknown"
	}
}

// TUI configuration struct
type TUIConfig struct {
	DebugMode bool
	Registry  *registry.Registry
	Monitor   *health.Monitor
	Lifecycle *lifecycle.Controller
}

// MessageType represents the type of status bar message
type MessageType int

const (
	StatusBarInfo MessageType = iota
	StatusBarSuccess
	StatusBarError
	StatusBarWarning
)

// OverallFleetStatus defines the high-level operational status shown in the
// status bar. It is an aggregation over the per-service statuses.
type OverallFleetStatus int

const (
	FleetStatusUnknown OverallFleetStatus = iota
	FleetStatusIdle
	FleetStatusWorking
	FleetStatusDegraded
	FleetStatusFailed
)

// String provides a human-readable representation of the OverallFleetStatus.
func (s OverallFleetStatus) String() string {
	switch s {
	case FleetStatusIdle:
		return "Ready"
	case FleetStatusWorking:
		return "Working"
	case FleetStatusDegraded:
		return "Degraded"
	case FleetStatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Constants for UI
const (
	MaxActivityLogLines = 1000
	MaxStreamLines      = 2000
)

// KeyMap defines all the key bindings for the application
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
	Start   key.Binding
	Stop    key.Binding
	Restart key.Binding
	Install key.Binding
	Logs    key.Binding
	Env     key.Binding
	Yank    key.Binding
	Help    key.Binding
	Esc     key.Binding
	Quit    key.Binding
}

// ShortHelp implements help.KeyMap for the bottom help bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Restart, k.Logs, k.Env, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap for the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Refresh, k.Yank},
		{k.Start, k.Stop, k.Restart, k.Install},
		{k.Logs, k.Env, k.Help, k.Quit},
	}
}

// Model represents the state of the TUI application. The controller mutates
// it in response to messages; the view renders it.
type Model struct {
	// Terminal dimensions
	Width  int
	Height int

	// Global application state
	CurrentAppMode  AppMode
	QuittingMessage string
	DebugMode       bool

	// Core components
	Registry  *registry.Registry
	Monitor   *health.Monitor
	Lifecycle *lifecycle.Controller

	// Catalog snapshot and derived health, keyed by service id. Busy tracks
	// the one in-flight lifecycle action per service; rows with an entry
	// here reject further actions until it clears.
	Services []config.ServiceConfig
	Statuses map[string]config.ServiceStatus
	Busy     map[string]string
	Cursor   int

	Refreshing bool

	// Stream overlay state (service logs or install output)
	StreamService  config.ServiceConfig
	StreamAction   string
	Stream         *lifecycle.OutputStream
	StreamLines    []string
	StreamViewport viewport.Model
	StreamDone     bool

	// Env overlay state
	EnvService  config.ServiceConfig
	EnvNames    []string
	EnvValues   map[string]string
	EnvDeclared map[string]config.EnvVarConfig
	EnvCursor   int
	EnvEditing  bool
	EnvReveal   bool
	EnvInput    textinput.Model

	// Activity log fed from the logging channel
	ActivityLog           []string
	ActivityLogDirty      bool
	ActivityViewport      viewport.Model
	ActivityViewportWidth int

	// UI chrome
	Spinner spinner.Model
	Keys    KeyMap
	Help    help.Model

	StatusBarMessage     string
	StatusBarMessageType MessageType
	StatusBarClearCancel chan struct{}

	// Logging
	LogChannel <-chan logging.LogEntry
}

// Selected returns the service config under the cursor.
func (m *Model) Selected() (config.ServiceConfig, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Services) {
		return config.ServiceConfig{}, false
	}
	return m.Services[m.Cursor], true
}

// StatusOf returns the last derived status for a service. ok is false while
// no check has completed yet.
func (m *Model) StatusOf(id string) (config.ServiceStatus, bool) {
	s, ok := m.Statuses[id]
	return s, ok
}

// BusyAction returns the in-flight lifecycle action for a service, if any.
func (m *Model) BusyAction(id string) (string, bool) {
	a, ok := m.Busy[id]
	return a, ok
}

// MoveCursor moves the selection by delta, clamped to the catalog bounds.
func (m *Model) MoveCursor(delta int) {
	m.Cursor += delta
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Cursor >= len(m.Services) {
		m.Cursor = len(m.Services) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

// SetCatalog replaces the service snapshot. Statuses and busy markers for
// services that vanished are pruned, and the cursor is clamped so it still
// points at a row.
func (m *Model) SetCatalog(cfgs []config.ServiceConfig) {
	m.Services = cfgs

	known := make(map[string]bool, len(cfgs))
	for _, cfg := range cfgs {
		known[cfg.ID] = true
	}
	for id := range m.Statuses {
		if !known[id] {
			delete(m.Statuses, id)
		}
	}
	for id := range m.Busy {
		if !known[id] {
			delete(m.Busy, id)
		}
	}

	if m.Cursor >= len(m.Services) {
		m.Cursor = len(m.Services) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

// OverallStatus aggregates the per-service statuses into the fleet-level
// state shown in the status bar, with a short detail string.
func (m *Model) OverallStatus() (OverallFleetStatus, string) {
	if len(m.Services) == 0 {
		return FleetStatusUnknown, "no services"
	}

	running := 0
	degraded := false
	failed := false
	for _, cfg := range m.Services {
		switch m.Statuses[cfg.ID] {
		case config.StatusRunning:
			running++
		case config.StatusUnhealthy:
			degraded = true
		case config.StatusError:
			failed = true
		}
	}
	detail := fmt.Sprintf("%d/%d running", running, len(m.Services))

	switch {
	case failed:
		return FleetStatusFailed, detail
	case degraded:
		return FleetStatusDegraded, detail
	case m.Refreshing || len(m.Busy) > 0:
		return FleetStatusWorking, detail
	default:
		return FleetStatusIdle, detail
	}
}

// SetStatusMessage updates the status bar message and schedules its clearing.
// An earlier pending clear is cancelled so it cannot wipe the new message.
func (m *Model) SetStatusMessage(message string, msgType MessageType, clearAfter time.Duration) tea.Cmd {
	m.StatusBarMessage = message
	m.StatusBarMessageType = msgType

	if m.StatusBarClearCancel != nil {
		close(m.StatusBarClearCancel)
	}
	m.StatusBarClearCancel = make(chan struct{})
	captured := m.StatusBarClearCancel

	return tea.Tick(clearAfter, func(time.Time) tea.Msg {
		select {
		case <-captured:
			return nil
		default:
			return ClearStatusBarMsg{}
		}
	})
}
