package model

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fleetctl/internal/config"
	"fleetctl/pkg/logging"
)

// DefaultKeyMap returns a KeyMap with the default bindings used by the TUI.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "navigate up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "navigate down"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh statuses"),
		),
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start service"),
		),
		Stop: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "stop service"),
		),
		Restart: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "restart service"),
		),
		Install: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "install service"),
		),
		Logs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "view logs"),
		),
		Env: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit env vars"),
		),
		Yank: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy service path"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close/cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// InitialModel constructs the initial model from the wired components. The
// registry is expected to be primed, so the first render already has rows;
// statuses arrive with the first check batch.
func InitialModel(cfg TUIConfig, logChan <-chan logging.LogEntry) *Model {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 50

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := Model{
		CurrentAppMode:   ModeInitializing,
		DebugMode:        cfg.DebugMode,
		Registry:         cfg.Registry,
		Monitor:          cfg.Monitor,
		Lifecycle:        cfg.Lifecycle,
		Statuses:         make(map[string]config.ServiceStatus),
		Busy:             make(map[string]string),
		StreamViewport:   viewport.New(0, 0),
		EnvInput:         ti,
		ActivityLog:      make([]string, 0),
		ActivityViewport: viewport.New(0, 0),
		ActivityLogDirty: true,
		Spinner:          s,
		Keys:             DefaultKeyMap(),
		Help:             help.New(),
		LogChannel:       logChan,
	}

	if cfg.Registry != nil {
		m.Services = cfg.Registry.List()
	}

	return &m
}

// ListenForLogEntriesCmd returns a command that waits for the next entry on
// the logging channel. The handler re-issues it to keep listening.
func ListenForLogEntriesCmd(ch <-chan logging.LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return NewLogEntryMsg{Entry: entry}
	}
}

// Init implements tea.Model and starts the asynchronous bootstrap tasks:
// the first fleet-wide health check, the periodic refresh ticker, the
// logging channel listener, and the spinner.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.Spinner.Tick,
		RefreshStatusesCmd(m.Monitor, m.Services),
		RefreshTickCmd(),
	}
	if c := ListenForLogEntriesCmd(m.LogChannel); c != nil {
		cmds = append(cmds, c)
	}
	return tea.Batch(cmds...)
}
