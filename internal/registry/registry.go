// Package registry owns the id->ServiceConfig catalog for one services root.
//
// A Registry is handed explicitly to the health monitor, lifecycle
// controller, HTTP server, and TUI; there is no package-level instance.
// Catalog entries are immutable snapshots: the cache is written only by
// Discover and Get, and read by everyone else.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"fleetctl/internal/config"
	"fleetctl/pkg/logging"
)

const logSubsystem = "Registry"

// DiagnosticSink receives per-entry discovery faults. Discovery never aborts
// on a bad descriptor; it reports the entry here and moves on.
type DiagnosticSink func(id string, err error)

// Registry scans a services root for descriptors and caches the results.
type Registry struct {
	root string
	diag DiagnosticSink

	mu    sync.RWMutex
	cache map[string]config.ServiceConfig
}

// Option configures a Registry.
type Option func(*Registry)

// WithDiagnosticSink replaces the default sink, which logs skipped entries
// at warn level.
func WithDiagnosticSink(sink DiagnosticSink) Option {
	return func(r *Registry) { r.diag = sink }
}

// New returns a Registry over the given services root. The root does not
// need to exist yet; a missing root just means an empty catalog.
func New(root string, opts ...Option) *Registry {
	r := &Registry{
		root:  root,
		cache: make(map[string]config.ServiceConfig),
		diag: func(id string, err error) {
			logging.Warn(logSubsystem, "Skipping service %q: %v", id, err)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the services root directory.
func (r *Registry) Root() string { return r.root }

// Discover scans the services root and rebuilds the catalog. Subdirectories
// are visited in lexicographic order; ones without a service.yaml are
// silently skipped, and ones whose descriptor fails to parse are reported to
// the diagnostic sink and excluded without affecting their siblings. The
// cache is fully replaced by the scan result.
func (r *Registry) Discover() ([]config.ServiceConfig, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.mu.Lock()
			r.cache = make(map[string]config.ServiceConfig)
			r.mu.Unlock()
			return nil, nil
		}
		return nil, fmt.Errorf("reading services root %s: %w", r.root, err)
	}

	// os.ReadDir returns entries sorted by filename already.
	fresh := make(map[string]config.ServiceConfig)
	var out []config.ServiceConfig
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(r.root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, config.DescriptorFileName)); err != nil {
			continue
		}
		cfg, err := config.LoadServiceConfig(dir)
		if err != nil {
			r.diag(entry.Name(), err)
			continue
		}
		fresh[cfg.ID] = cfg
		out = append(out, cfg)
	}

	r.mu.Lock()
	r.cache = fresh
	r.mu.Unlock()

	logging.Debug(logSubsystem, "Discovered %d services under %s", len(out), r.root)
	return out, nil
}

// Get returns the config for one service id. A cache hit is returned as-is;
// otherwise a single-entry load from <root>/<id>/service.yaml is attempted
// and cached on success. Get never triggers a full rescan.
func (r *Registry) Get(id string) (config.ServiceConfig, bool) {
	if !validID(id) {
		return config.ServiceConfig{}, false
	}

	r.mu.RLock()
	cfg, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return cfg, true
	}

	cfg, err := config.LoadServiceConfig(filepath.Join(r.root, id))
	if err != nil {
		logging.Debug(logSubsystem, "No loadable descriptor for %q: %v", id, err)
		return config.ServiceConfig{}, false
	}

	r.mu.Lock()
	r.cache[cfg.ID] = cfg
	r.mu.Unlock()
	return cfg, true
}

// List returns an id-sorted snapshot of the cached catalog. It does not
// touch the disk.
func (r *Registry) List() []config.ServiceConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]config.ServiceConfig, 0, len(r.cache))
	for _, cfg := range r.cache {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// validID rejects anything that is not a plain directory name. Ids arrive
// from URLs and CLI arguments, so path traversal must not reach the join.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && id == filepath.Base(id)
}
