package model

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"fleetctl/internal/config"
	"fleetctl/internal/envfile"
	"fleetctl/internal/health"
	"fleetctl/internal/lifecycle"
)

// Lifecycle action names as they appear in busy markers and messages.
const (
	ActionStart   = "start"
	ActionStop    = "stop"
	ActionRestart = "restart"
	ActionInstall = "install"
	ActionLogs    = "logs"
)

const (
	// healthRefreshInterval defines how often service statuses are re-derived
	// in the background.
	healthRefreshInterval = 30 * time.Second

	// streamLogTail is the backlog requested when the logs overlay opens.
	streamLogTail = 100
)

// RefreshStatusesCmd creates a command that checks the whole catalog and
// delivers the result as one batch.
func RefreshStatusesCmd(monitor *health.Monitor, cfgs []config.ServiceConfig) tea.Cmd {
	return func() tea.Msg {
		// Skip if the monitor is nil (e.g., in tests)
		if monitor == nil {
			return nil
		}
		return StatusBatchMsg{Statuses: monitor.CheckAll(context.Background(), cfgs)}
	}
}

// CheckServiceCmd creates a command that re-checks a single service, used as
// the follow-up after a lifecycle action.
func CheckServiceCmd(monitor *health.Monitor, cfg config.ServiceConfig) tea.Cmd {
	return func() tea.Msg {
		// Skip if the monitor is nil (e.g., in tests)
		if monitor == nil {
			return nil
		}
		return ServiceCheckedMsg{ID: cfg.ID, Status: monitor.Check(context.Background(), cfg)}
	}
}

// RefreshTickCmd arms the periodic background refresh.
func RefreshTickCmd() tea.Cmd {
	return tea.Tick(healthRefreshInterval, func(time.Time) tea.Msg {
		return RefreshTickMsg{}
	})
}

// RunActionCmd creates a command that runs a start, stop or restart and
// reports the verdict. Operation failure arrives as OK=false with the
// operator-facing message, never as a Go error.
func RunActionCmd(ctrl *lifecycle.Controller, cfg config.ServiceConfig, action string) tea.Cmd {
	return func() tea.Msg {
		// Skip if the controller is nil (e.g., in tests)
		if ctrl == nil {
			return nil
		}
		var ok bool
		var msg string
		switch action {
		case ActionStart:
			ok, msg = ctrl.Start(context.Background(), cfg)
		case ActionStop:
			ok, msg = ctrl.Stop(context.Background(), cfg)
		case ActionRestart:
			ok, msg = ctrl.Restart(context.Background(), cfg)
		default:
			return nil
		}
		return ActionResultMsg{ID: cfg.ID, Action: action, OK: ok, Message: msg}
	}
}

// OpenLogsCmd creates a command that opens a following logs stream for the
// stream overlay.
func OpenLogsCmd(ctrl *lifecycle.Controller, cfg config.ServiceConfig) tea.Cmd {
	return func() tea.Msg {
		// Skip if the controller is nil (e.g., in tests)
		if ctrl == nil {
			return nil
		}
		stream, err := ctrl.Logs(cfg, true, streamLogTail)
		return StreamOpenedMsg{Service: cfg, Action: ActionLogs, Stream: stream, Err: err}
	}
}

// OpenInstallCmd creates a command that starts an install and streams its
// output into the stream overlay.
func OpenInstallCmd(ctrl *lifecycle.Controller, cfg config.ServiceConfig) tea.Cmd {
	return func() tea.Msg {
		// Skip if the controller is nil (e.g., in tests)
		if ctrl == nil {
			return nil
		}
		stream, err := ctrl.Install(cfg)
		return StreamOpenedMsg{Service: cfg, Action: ActionInstall, Stream: stream, Err: err}
	}
}

// ReadStreamLineCmd creates a command that waits for the next line of the
// open stream. The handler re-issues it until the stream closes.
func ReadStreamLineCmd(stream *lifecycle.OutputStream) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-stream.Lines()
		if !ok {
			return StreamClosedMsg{}
		}
		return StreamLineMsg{Line: line}
	}
}

// LoadEnvCmd creates a command that reads the service's .env file for the
// env editor overlay. A missing file loads as an empty map.
func LoadEnvCmd(cfg config.ServiceConfig) tea.Cmd {
	return func() tea.Msg {
		values, err := envfile.Load(envfile.Path(cfg.Path))
		return EnvLoadedMsg{Service: cfg, Values: values, Err: err}
	}
}

// SaveEnvCmd creates a command that merges one key into the service's .env
// file, preserving unrelated keys.
func SaveEnvCmd(cfg config.ServiceConfig, key, value string) tea.Cmd {
	return func() tea.Msg {
		err := envfile.Merge(envfile.Path(cfg.Path), map[string]string{key: value})
		return EnvSavedMsg{ID: cfg.ID, Key: key, Value: value, Err: err}
	}
}
