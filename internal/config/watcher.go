package config

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchTargets holds callbacks that fire when specific config files change,
// letting rule/whitelist edits made through the control plane take effect
// without restarting the proxy.
type WatchTargets struct {
	// OnWhitelistChange fires when rules.yaml (parent overrides: whitelist,
	// blacklist, disabled rules, category thresholds) is written or
	// created. Typically triggers reloading a ruleengine.ParentOverrides
	// set via ruleengine.Manager.SetOverrides.
	OnWhitelistChange func()

	// OnCommunityChange fires when community.yaml (imported community/
	// curated rule packs) is written or created. Typically triggers
	// ruleengine.Manager.AddRules with the freshly parsed set.
	OnCommunityChange func()
}

// Watcher monitors the Aegis config directory for file changes using
// fsnotify. It watches for modifications to rules.yaml and community.yaml,
// firing the appropriate callback when a change is detected.
//
// The watcher runs a background goroutine that processes fsnotify events.
// Call Close() to stop the watcher and release resources.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	done      chan struct{}
}

// NewWatcher creates a file watcher on the given config directory.
// It watches for changes to rules.yaml and community.yaml.
//
// The watcher immediately starts processing events in a background
// goroutine. Events are not debounced: every write or create event on a
// watched file fires its callback, so rapid successive writes can fire it
// several times.
func NewWatcher(dir string, targets WatchTargets) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	// Watch the entire config directory. fsnotify will send events for
	// any file created, written, renamed, or removed in this directory.
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}

	w := &Watcher{
		fsWatcher: fw,
		done:      make(chan struct{}),
	}

	// Start the event processing goroutine.
	go w.processEvents(targets)

	slog.Info("file watcher started", "dir", dir)
	return w, nil
}

// processEvents reads fsnotify events and dispatches to the appropriate
// callback. Runs in a background goroutine until Close() is called.
func (w *Watcher) processEvents(targets WatchTargets) {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			// We only care about write and create events — not remove
			// or rename, which would indicate the file was deleted.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// Match on filename regardless of directory path.
			name := filepath.Base(event.Name)
			switch name {
			case "rules.yaml":
				slog.Info("rules.yaml changed, triggering reload")
				if targets.OnWhitelistChange != nil {
					targets.OnWhitelistChange()
				}
			case "community.yaml":
				slog.Info("community.yaml changed, triggering reload")
				if targets.OnCommunityChange != nil {
					targets.OnCommunityChange()
				}
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("file watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Close stops the file watcher goroutine and releases the underlying
// fsnotify watcher. Safe to call multiple times.
func (w *Watcher) Close() error {
	// Signal the goroutine to stop.
	select {
	case <-w.done:
		// Already closed.
		return nil
	default:
		close(w.done)
	}
	return w.fsWatcher.Close()
}
