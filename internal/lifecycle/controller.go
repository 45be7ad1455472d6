// Package lifecycle starts, stops, restarts, installs and tails services.
//
// Every operation prefers the command the service declares for it and falls
// back to the matching docker compose verb otherwise, always executing in
// the service directory. Captured operations report a (success, message)
// pair instead of an error so callers can show the message verbatim.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fleetctl/internal/config"
	"fleetctl/internal/execx"
	"fleetctl/pkg/logging"
)

const (
	logSubsystem = "Lifecycle"

	// commandTimeout bounds every captured start/stop/restart command.
	commandTimeout = 120 * time.Second

	// installScriptName is the conventional update script run when a
	// service declares no install command.
	installScriptName = "update.sh"
)

// composeCommand runs a docker compose verb in dir and captures its output.
// Package variable so tests can intercept it.
var composeCommand = func(ctx context.Context, dir string, args ...string) (execx.Result, error) {
	argv := append([]string{"docker", "compose"}, args...)
	return execx.Run(ctx, dir, argv...)
}

// composeStream spawns a docker compose verb in dir with its output piped.
var composeStream = func(dir string, args ...string) (*execx.Stream, error) {
	argv := append([]string{"docker", "compose"}, args...)
	return execx.StreamCommand(dir, argv...)
}

// Recorder observes completed lifecycle actions. Implementations must be
// safe for concurrent use.
type Recorder interface {
	ObserveAction(service, action, outcome string)
}

// Action is the shape shared by Start, Stop and Restart, letting callers
// treat the captured operations uniformly.
type Action func(ctx context.Context, cfg config.ServiceConfig) (bool, string)

// Controller executes lifecycle operations for services.
type Controller struct {
	rec Recorder
}

// Option configures a Controller.
type Option func(*Controller)

// WithRecorder wires action metrics into the controller.
func WithRecorder(rec Recorder) Option {
	return func(c *Controller) { c.rec = rec }
}

// New returns a ready Controller.
func New(opts ...Option) *Controller {
	c := &Controller{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start brings a service up. The returned message is operator-facing:
// captured stdout on success, the most specific failure text otherwise.
func (c *Controller) Start(ctx context.Context, cfg config.ServiceConfig) (bool, string) {
	ok, msg := c.start(ctx, cfg)
	c.record(cfg.ID, "start", ok)
	if ok {
		logging.Info(logSubsystem, "Started service %s", cfg.ID)
	} else {
		logging.Warn(logSubsystem, "Start failed for %s: %s", cfg.ID, msg)
	}
	return ok, msg
}

// Stop shuts a service down.
func (c *Controller) Stop(ctx context.Context, cfg config.ServiceConfig) (bool, string) {
	ok, msg := c.stop(ctx, cfg)
	c.record(cfg.ID, "stop", ok)
	if ok {
		logging.Info(logSubsystem, "Stopped service %s", cfg.ID)
	} else {
		logging.Warn(logSubsystem, "Stop failed for %s: %s", cfg.ID, msg)
	}
	return ok, msg
}

// Restart cycles a service. With no declared restart command this is a
// sequential stop followed by a start; a stop failure suppresses the start
// entirely and is surfaced with a "Failed to stop: " prefix.
func (c *Controller) Restart(ctx context.Context, cfg config.ServiceConfig) (bool, string) {
	ok, msg := c.restart(ctx, cfg)
	c.record(cfg.ID, "restart", ok)
	if ok {
		logging.Info(logSubsystem, "Restarted service %s", cfg.ID)
	} else {
		logging.Warn(logSubsystem, "Restart failed for %s: %s", cfg.ID, msg)
	}
	return ok, msg
}

func (c *Controller) start(ctx context.Context, cfg config.ServiceConfig) (bool, string) {
	if cmd := cfg.Lifecycle.Start; cmd != "" {
		return runShell(ctx, cfg.Path, cmd)
	}
	return runCompose(ctx, cfg.Path, "up", "-d")
}

func (c *Controller) stop(ctx context.Context, cfg config.ServiceConfig) (bool, string) {
	if cmd := cfg.Lifecycle.Stop; cmd != "" {
		return runShell(ctx, cfg.Path, cmd)
	}
	return runCompose(ctx, cfg.Path, "down")
}

func (c *Controller) restart(ctx context.Context, cfg config.ServiceConfig) (bool, string) {
	if cmd := cfg.Lifecycle.Restart; cmd != "" {
		return runShell(ctx, cfg.Path, cmd)
	}

	ok, msg := c.stop(ctx, cfg)
	if !ok {
		return false, "Failed to stop: " + msg
	}
	ok, msg = c.start(ctx, cfg)
	if !ok {
		return false, "Failed to start: " + msg
	}
	return true, "Restarted successfully"
}

// Install runs the service's install command, or its update.sh script,
// streaming combined output. The stream always ends with a line stating
// whether the install succeeded. When neither an install command nor an
// update script exists the stream carries a single error line.
func (c *Controller) Install(cfg config.ServiceConfig) (*OutputStream, error) {
	onExit := func(code int) { c.record(cfg.ID, "install", code == 0) }

	if cmd := cfg.Lifecycle.Install; cmd != "" {
		logging.Info(logSubsystem, "Installing service %s", cfg.ID)
		stream, err := execx.StreamShell(cfg.Path, cmd)
		if err != nil {
			return nil, err
		}
		return newInstallStream(stream, onExit), nil
	}

	script := filepath.Join(cfg.Path, installScriptName)
	if _, err := os.Stat(script); err != nil {
		c.record(cfg.ID, "install", false)
		line := fmt.Sprintf("Error: %s not found and no lifecycle.install command", script)
		return newStaticStream(line), nil
	}

	logging.Info(logSubsystem, "Installing service %s via %s", cfg.ID, installScriptName)
	stream, err := execx.StreamCommand(cfg.Path, script)
	if err != nil {
		return nil, err
	}
	return newInstallStream(stream, onExit), nil
}

// Logs streams service logs. In follow mode the stream runs until the
// caller closes it, which kills the child process; otherwise it ends when
// the captured output does.
func (c *Controller) Logs(cfg config.ServiceConfig, follow bool, tail int) (*OutputStream, error) {
	if cmd := cfg.Lifecycle.Logs; cmd != "" {
		if follow {
			cmd += " -f"
		}
		if tail > 0 {
			cmd += fmt.Sprintf(" --tail=%d", tail)
		}
		stream, err := execx.StreamShell(cfg.Path, cmd)
		if err != nil {
			return nil, err
		}
		return newProcessStream(stream), nil
	}

	args := []string{"logs", fmt.Sprintf("--tail=%d", tail)}
	if follow {
		args = append(args, "-f")
	}
	stream, err := composeStream(cfg.Path, args...)
	if err != nil {
		return nil, err
	}
	return newProcessStream(stream), nil
}

func (c *Controller) record(service, action string, ok bool) {
	if c.rec == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	c.rec.ObserveAction(service, action, outcome)
}

func runShell(ctx context.Context, dir, command string) (bool, string) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return verdict(execx.RunShell(ctx, dir, command))
}

func runCompose(ctx context.Context, dir string, args ...string) (bool, string) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return verdict(composeCommand(ctx, dir, args...))
}

func verdict(res execx.Result, err error) (bool, string) {
	if err != nil {
		return false, faultMessage(err)
	}
	if res.ExitCode != 0 {
		return false, failureMessage(res)
	}
	return true, successMessage(res)
}

func successMessage(res execx.Result) string {
	if msg := strings.TrimSpace(res.Stdout); msg != "" {
		return msg
	}
	return "Success"
}

func failureMessage(res execx.Result) string {
	if msg := strings.TrimSpace(res.Stderr); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(res.Stdout); msg != "" {
		return msg
	}
	return "Unknown error"
}

func faultMessage(err error) string {
	var timeout *execx.TimeoutError
	if errors.As(err, &timeout) {
		return "Command timed out"
	}
	var notFound *execx.NotFoundError
	if errors.As(err, &notFound) {
		if notFound.Tool == "docker" {
			return "Docker not found"
		}
		return notFound.Error()
	}
	return err.Error()
}
