package model

import (
	"fleetctl/internal/config"
	"fleetctl/internal/lifecycle"
	"fleetctl/pkg/logging"
)

// ---- Catalog and health messages ----

// CatalogReloadedMsg carries a fresh service snapshot, either from the
// registry watcher or from an explicit refresh.
type CatalogReloadedMsg struct {
	Configs []config.ServiceConfig
}

// StatusBatchMsg is the result of a fleet-wide health check.
type StatusBatchMsg struct {
	Statuses map[string]config.ServiceStatus
}

// ServiceCheckedMsg is the result of a single-service follow-up check.
type ServiceCheckedMsg struct {
	ID     string
	Status config.ServiceStatus
}

// RefreshTickMsg fires on the periodic health refresh interval.
type RefreshTickMsg struct{}

// ---- Lifecycle messages ----

// ActionResultMsg reports a finished start, stop or restart.
type ActionResultMsg struct {
	ID      string
	Action  string
	OK      bool
	Message string
}

// StreamOpenedMsg reports the outcome of opening a logs or install stream.
type StreamOpenedMsg struct {
	Service config.ServiceConfig
	Action  string
	Stream  *lifecycle.OutputStream
	Err     error
}

// StreamLineMsg carries one line from the open stream.
type StreamLineMsg struct {
	Line string
}

// StreamClosedMsg signals that the open stream ended, either because the
// process exited or because the stream was closed.
type StreamClosedMsg struct{}

// ---- Env overlay messages ----

// EnvLoadedMsg carries the parsed .env contents for the env editor.
type EnvLoadedMsg struct {
	Service config.ServiceConfig
	Values  map[string]string
	Err     error
}

// EnvSavedMsg reports the outcome of writing one key back to the .env file.
type EnvSavedMsg struct {
	ID    string
	Key   string
	Value string
	Err   error
}

// ---- Logging and status bar ----

// NewLogEntryMsg delivers one entry from the logging channel to the
// activity log pane.
type NewLogEntryMsg struct {
	Entry logging.LogEntry
}

// ClearStatusBarMsg clears the transient status bar message.
type ClearStatusBarMsg struct{}
