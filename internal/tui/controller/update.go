package controller

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"fleetctl/internal/config"
	"fleetctl/internal/tui/model"
	"fleetctl/internal/tui/view"
	"fleetctl/pkg/logging"
)

const controllerSubsystem = "TUI"

// Update is the central message routing function for the TUI application.
// It receives all Bubble Tea messages and directs them to the appropriate
// handler based on the message type, updating the model and queuing any
// follow-up commands.
func Update(msg tea.Msg, m *model.Model) (*model.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyMsg(m, msg)

	case tea.WindowSizeMsg:
		return handleWindowSizeMsg(m, msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case model.CatalogReloadedMsg:
		m.SetCatalog(msg.Configs)
		// New rows should not sit unchecked until the next tick.
		return m, model.RefreshStatusesCmd(m.Monitor, m.Services)

	case model.StatusBatchMsg:
		m.Refreshing = false
		for id, status := range msg.Statuses {
			// A row with an action in flight keeps its optimistic status;
			// the follow-up check after the action wins.
			if _, busy := m.Busy[id]; !busy {
				m.Statuses[id] = status
			}
		}
		return m, nil

	case model.ServiceCheckedMsg:
		if _, busy := m.Busy[msg.ID]; !busy {
			m.Statuses[msg.ID] = msg.Status
		}
		return m, nil

	case model.RefreshTickMsg:
		return m, tea.Batch(
			model.RefreshStatusesCmd(m.Monitor, m.Services),
			model.RefreshTickCmd(),
		)

	case model.ActionResultMsg:
		return handleActionResult(m, msg)

	case model.StreamOpenedMsg:
		return handleStreamOpened(m, msg)

	case model.StreamLineMsg:
		model.AppendStreamLine(m, msg.Line)
		atBottom := m.StreamViewport.AtBottom()
		m.StreamViewport.SetContent(strings.Join(m.StreamLines, "\n"))
		if atBottom {
			m.StreamViewport.GotoBottom()
		}
		if m.Stream != nil {
			return m, model.ReadStreamLineCmd(m.Stream)
		}
		return m, nil

	case model.StreamClosedMsg:
		return handleStreamClosed(m)

	case model.EnvLoadedMsg:
		return handleEnvLoaded(m, msg)

	case model.EnvSavedMsg:
		return handleEnvSaved(m, msg)

	case model.NewLogEntryMsg:
		handleNewLogEntry(m, msg)
		return m, model.ListenForLogEntriesCmd(m.LogChannel)

	case model.ClearStatusBarMsg:
		m.StatusBarMessage = ""
		if m.StatusBarClearCancel != nil {
			close(m.StatusBarClearCancel)
			m.StatusBarClearCancel = nil
		}
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		if m.CurrentAppMode == model.ModeStreamOverlay {
			m.StreamViewport, cmd = m.StreamViewport.Update(msg)
		} else {
			m.ActivityViewport, cmd = m.ActivityViewport.Update(msg)
		}
		return m, cmd
	}

	// Unrouted messages reach the focused input so paste and the cursor
	// blink tick keep working while editing.
	if m.CurrentAppMode == model.ModeEnvOverlay && m.EnvEditing {
		var cmd tea.Cmd
		m.EnvInput, cmd = m.EnvInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func handleActionResult(m *model.Model, msg model.ActionResultMsg) (*model.Model, tea.Cmd) {
	delete(m.Busy, msg.ID)

	var cmds []tea.Cmd
	if cfg, ok := findService(m, msg.ID); ok {
		cmds = append(cmds, model.CheckServiceCmd(m.Monitor, cfg))
	}

	text := fmt.Sprintf("%s %s: %s", msg.Action, msg.ID, msg.Message)
	if msg.OK {
		cmds = append(cmds, m.SetStatusMessage(text, model.StatusBarSuccess, 3*time.Second))
	} else {
		logging.Warn(controllerSubsystem, "Action %s on %s failed: %s", msg.Action, msg.ID, msg.Message)
		cmds = append(cmds, m.SetStatusMessage(text, model.StatusBarError, 5*time.Second))
	}
	return m, tea.Batch(cmds...)
}

func handleStreamOpened(m *model.Model, msg model.StreamOpenedMsg) (*model.Model, tea.Cmd) {
	if msg.Err != nil {
		if msg.Action == model.ActionInstall {
			delete(m.Busy, msg.Service.ID)
		}
		logging.Error(controllerSubsystem, msg.Err, "Cannot open %s stream for %s", msg.Action, msg.Service.ID)
		text := fmt.Sprintf("%s %s: %v", msg.Action, msg.Service.ID, msg.Err)
		return m, m.SetStatusMessage(text, model.StatusBarError, 5*time.Second)
	}

	m.StreamService = msg.Service
	m.StreamAction = msg.Action
	m.Stream = msg.Stream
	m.StreamLines = nil
	m.StreamDone = false

	w, h := view.StreamOverlaySize(m.Width, m.Height)
	m.StreamViewport = viewport.New(w, h)
	m.CurrentAppMode = model.ModeStreamOverlay

	return m, model.ReadStreamLineCmd(msg.Stream)
}

func handleStreamClosed(m *model.Model) (*model.Model, tea.Cmd) {
	m.StreamDone = true
	m.Stream = nil

	// An install that just finished may have changed the compose file
	// situation, so re-derive that row.
	if m.StreamAction == model.ActionInstall {
		delete(m.Busy, m.StreamService.ID)
		if cfg, ok := findService(m, m.StreamService.ID); ok {
			return m, model.CheckServiceCmd(m.Monitor, cfg)
		}
	}
	return m, nil
}

func handleEnvLoaded(m *model.Model, msg model.EnvLoadedMsg) (*model.Model, tea.Cmd) {
	if msg.Err != nil {
		logging.Error(controllerSubsystem, msg.Err, "Cannot read env file for %s", msg.Service.ID)
		return m, m.SetStatusMessage(fmt.Sprintf("env %s: %v", msg.Service.ID, msg.Err), model.StatusBarError, 5*time.Second)
	}

	m.EnvService = msg.Service
	m.EnvValues = msg.Values
	if m.EnvValues == nil {
		m.EnvValues = make(map[string]string)
	}

	m.EnvDeclared = make(map[string]config.EnvVarConfig, len(msg.Service.EnvVars))
	m.EnvNames = m.EnvNames[:0]
	for _, decl := range msg.Service.EnvVars {
		m.EnvDeclared[decl.Name] = decl
		m.EnvNames = append(m.EnvNames, decl.Name)
	}
	// File entries nobody declared still show up, after the declared block.
	var extras []string
	for name := range m.EnvValues {
		if _, ok := m.EnvDeclared[name]; !ok {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	m.EnvNames = append(m.EnvNames, extras...)

	m.EnvCursor = 0
	m.EnvEditing = false
	m.EnvReveal = false
	m.CurrentAppMode = model.ModeEnvOverlay
	return m, nil
}

func handleEnvSaved(m *model.Model, msg model.EnvSavedMsg) (*model.Model, tea.Cmd) {
	if msg.Err != nil {
		logging.Error(controllerSubsystem, msg.Err, "Cannot save %s for %s", msg.Key, msg.ID)
		return m, m.SetStatusMessage(fmt.Sprintf("save %s: %v", msg.Key, msg.Err), model.StatusBarError, 5*time.Second)
	}
	if m.EnvValues != nil {
		m.EnvValues[msg.Key] = msg.Value
	}
	return m, m.SetStatusMessage(fmt.Sprintf("%s saved", msg.Key), model.StatusBarSuccess, 3*time.Second)
}

func handleNewLogEntry(m *model.Model, msg model.NewLogEntryMsg) {
	entry := msg.Entry
	// Debug entries stay out of the pane unless TUI debug mode is on.
	if entry.Level >= logging.LevelInfo || m.DebugMode {
		model.AddRawLineToActivityLog(m, view.FormatLogEntry(entry))
	}
}

func findService(m *model.Model, id string) (config.ServiceConfig, bool) {
	for _, cfg := range m.Services {
		if cfg.ID == id {
			return cfg, true
		}
	}
	return config.ServiceConfig{}, false
}
