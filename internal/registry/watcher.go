package registry

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/stopper"

	"fleetctl/internal/config"
	"fleetctl/pkg/logging"
)

const watchDebounce = 250 * time.Millisecond

// Watch re-runs discovery whenever descriptors change under the services
// root and hands the fresh catalog to onChange. Changes are debounced so a
// burst of writes produces a single rescan. The returned cleanup stops the
// watcher and waits for its goroutine to finish.
//
// Watched events: descriptor edits inside service directories, and service
// directories appearing or disappearing at the root.
func (r *Registry) Watch(ctx context.Context, onChange func([]config.ServiceConfig)) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(r.root); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	// Watch existing service directories too, so descriptor edits are seen.
	for _, cfg := range r.List() {
		if err := watcher.Add(cfg.Path); err != nil {
			logging.Warn(logSubsystem, "Cannot watch %s: %v", cfg.Path, err)
		}
	}

	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		_ = watcher.Close()
	})

	var mu sync.Mutex
	var debouncer *time.Timer

	rescan := func() {
		if sctx.IsStopping() {
			return
		}
		cfgs, err := r.Discover()
		if err != nil {
			logging.Error(logSubsystem, err, "Rescan after catalog change failed")
			return
		}
		// Newly appeared directories need their own watch for descriptor
		// edits; Add is idempotent for already-watched paths.
		for _, cfg := range cfgs {
			_ = watcher.Add(cfg.Path)
		}
		if !sctx.IsStopping() {
			onChange(cfgs)
		}
	}

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond)
		err := sctx.Wait()
		mu.Lock()
		if debouncer != nil {
			debouncer.Stop()
		}
		mu.Unlock()
		return err
	}

	sctx.Go(func(sctx *stopper.Context) error {
		for !sctx.IsStopping() {
			select {
			case <-sctx.Stopping():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !relevantEvent(r.root, event) {
					continue
				}
				mu.Lock()
				if debouncer != nil {
					debouncer.Stop()
				}
				debouncer = time.AfterFunc(watchDebounce, rescan)
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil {
					logging.Warn(logSubsystem, "Watch error: %v", err)
				}
			}
		}
		return nil
	})

	return cleanup, nil
}

// relevantEvent filters the noise: only descriptor writes and directory
// churn directly under the root should trigger a rescan.
func relevantEvent(root string, event fsnotify.Event) bool {
	if filepath.Base(event.Name) == config.DescriptorFileName {
		return true
	}
	if filepath.Dir(event.Name) == root {
		return event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
	}
	return false
}
