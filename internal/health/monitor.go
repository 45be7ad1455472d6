// Package health derives the authoritative ServiceStatus for services.
//
// One service's status comes from a layered chain of signals, first
// applicable rule wins: a declared status override command, presence of a
// compose descriptor, the ids reported by `docker compose ps`, and finally
// an HTTP probe of the primary port's health endpoint. Batch checks fan out
// concurrently with per-service fault isolation: nothing one probe does can
// affect another's result.
package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"fleetctl/internal/compose"
	"fleetctl/internal/config"
	"fleetctl/internal/execx"
	"fleetctl/internal/registry"
	"fleetctl/pkg/logging"
)

const logSubsystem = "HealthMonitor"

const (
	statusCmdTimeout = 10 * time.Second
	composePsTimeout = 5 * time.Second
	httpProbeTimeout = 2 * time.Second
)

// composePS queries the ids of running containers for a service directory.
// Package variable for mocking in tests.
var composePS = func(ctx context.Context, dir string) (execx.Result, error) {
	return execx.Run(ctx, dir, "docker", "compose", "ps", "--format", "json", "-q")
}

// Recorder receives probe observations for metrics. Implementations must be
// safe for concurrent use.
type Recorder interface {
	ObserveCheck(service string, status config.ServiceStatus, elapsed time.Duration)
}

// Monitor derives service statuses. It reads the registry catalog and never
// mutates it.
type Monitor struct {
	reg    *registry.Registry
	client *http.Client
	rec    Recorder
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithHTTPClient replaces the probe client, mainly for tests and for
// callers that need a different probe timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Monitor) { m.client = client }
}

// WithRecorder attaches a metrics recorder to every check.
func WithRecorder(rec Recorder) Option {
	return func(m *Monitor) { m.rec = rec }
}

// New returns a Monitor reading from reg.
func New(reg *registry.Registry, opts ...Option) *Monitor {
	m := &Monitor{
		reg:    reg,
		client: &http.Client{Timeout: httpProbeTimeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Check derives the status of one service.
//
// Precedence: a lifecycle.status override decides alone (exit 0 Running,
// nonzero Stopped, failure Error). Otherwise a missing compose file means
// NotInstalled; a failing `docker compose ps` means Error; no running
// containers means Stopped. With containers present, a declared health
// endpoint on the primary port is probed over HTTP (2xx Running, anything
// else Unhealthy) and without one the containers alone count as Running.
func (m *Monitor) Check(ctx context.Context, cfg config.ServiceConfig) config.ServiceStatus {
	start := time.Now()
	status := m.check(ctx, cfg)
	if m.rec != nil {
		m.rec.ObserveCheck(cfg.ID, status, time.Since(start))
	}
	return status
}

func (m *Monitor) check(ctx context.Context, cfg config.ServiceConfig) config.ServiceStatus {
	if cmd := cfg.Lifecycle.Status; cmd != "" {
		return m.checkStatusCommand(ctx, cfg, cmd)
	}

	if _, ok := compose.File(cfg.Path); !ok {
		return config.StatusNotInstalled
	}

	psCtx, cancel := context.WithTimeout(ctx, composePsTimeout)
	defer cancel()
	res, err := composePS(psCtx, cfg.Path)
	if err != nil {
		logging.Debug(logSubsystem, "Compose ps failed for %s: %v", cfg.ID, err)
		return config.StatusError
	}
	if res.ExitCode != 0 {
		return config.StatusError
	}
	if strings.TrimSpace(res.Stdout) == "" {
		return config.StatusStopped
	}

	port := cfg.PrimaryPort()
	if port == nil || port.HealthEndpoint == "" {
		// Containers running is the only signal available.
		return config.StatusRunning
	}
	return m.probeHTTP(ctx, cfg.ID, port)
}

func (m *Monitor) checkStatusCommand(ctx context.Context, cfg config.ServiceConfig, cmd string) config.ServiceStatus {
	cmdCtx, cancel := context.WithTimeout(ctx, statusCmdTimeout)
	defer cancel()

	res, err := execx.RunShell(cmdCtx, cfg.Path, cmd)
	if err != nil {
		logging.Debug(logSubsystem, "Status command failed for %s: %v", cfg.ID, err)
		return config.StatusError
	}
	if res.ExitCode == 0 {
		return config.StatusRunning
	}
	return config.StatusStopped
}

func (m *Monitor) probeHTTP(ctx context.Context, id string, port *config.PortConfig) config.ServiceStatus {
	url := fmt.Sprintf("http://localhost:%d%s", port.Port, port.HealthEndpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return config.StatusUnhealthy
	}

	resp, err := m.client.Do(req)
	if err != nil {
		logging.Debug(logSubsystem, "Probe %s for %s failed: %v", url, id, err)
		return config.StatusUnhealthy
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return config.StatusRunning
	}
	return config.StatusUnhealthy
}

// CheckAll probes every given config concurrently and returns one status per
// input, keyed by service id. Each check runs in its own goroutine and
// writes only its own slot; a panic inside one check is recovered and
// recorded as StatusError for that entry alone.
func (m *Monitor) CheckAll(ctx context.Context, cfgs []config.ServiceConfig) map[string]config.ServiceStatus {
	statuses := make([]config.ServiceStatus, len(cfgs))

	var wg sync.WaitGroup
	for i, cfg := range cfgs {
		wg.Add(1)
		go func(i int, cfg config.ServiceConfig) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logging.Error(logSubsystem, nil, "Check for %s panicked: %v", cfg.ID, r)
					statuses[i] = config.StatusError
				}
			}()
			statuses[i] = m.Check(ctx, cfg)
		}(i, cfg)
	}
	wg.Wait()

	out := make(map[string]config.ServiceStatus, len(cfgs))
	for i, cfg := range cfgs {
		out[cfg.ID] = statuses[i]
	}
	return out
}

// CheckCatalog is CheckAll over the registry's current catalog.
func (m *Monitor) CheckCatalog(ctx context.Context) map[string]config.ServiceStatus {
	return m.CheckAll(ctx, m.reg.List())
}
