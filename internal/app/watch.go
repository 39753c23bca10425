package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/addonkit/internal/ctxlog"
)

// reloadDebounce is how long Watch waits for a burst of writes to settle.
const reloadDebounce = 250 * time.Millisecond

// Watch reboots the app whenever a manifest under the configured paths is
// created, written, removed or renamed. A failed reload is logged and the
// watcher keeps running, so fixing the file triggers the next attempt.
// Watch blocks until ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	logger := ctxlog.FromContext(a.ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("manifest watcher: %w", err)
	}
	defer watcher.Close()

	dirs, err := a.watchDirs()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("manifest watcher: watch %s: %w", dir, err)
		}
	}
	logger.Info("👀 Watching manifests for changes.", "dirs", len(dirs))

	timer := time.NewTimer(reloadDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Manifest watcher stopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// New directories are watched so addons added later are seen.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logger.Warn("Could not watch new directory.", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if !a.isManifest(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("Manifest changed.", "file", event.Name, "op", event.Op.String())
			timer.Reset(reloadDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Manifest watcher error.", "error", err)

		case <-timer.C:
			logger.Info("🔄 Reloading addons.")
			if err := a.Boot(ctx); err != nil {
				logger.Error("Reload failed; fix the manifest to retry.", "error", err)
			}
		}
	}
}

// isManifest reports whether any loader reads files like name.
func (a *App) isManifest(name string) bool {
	ext := filepath.Ext(name)
	for _, loader := range a.loaders {
		if slices.Contains(loader.Extensions(), ext) {
			return true
		}
	}
	return false
}

// watchDirs lists every existing directory under the configured paths. A
// file path contributes its parent directory.
func (a *App) watchDirs() ([]string, error) {
	seen := make(map[string]struct{})
	var dirs []string
	add := func(d string) {
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			dirs = append(dirs, d)
		}
	}

	for _, root := range a.config.Paths() {
		info, err := os.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("manifest watcher: %w", err)
		}
		if !info.IsDir() {
			add(filepath.Dir(root))
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("manifest watcher: %w", err)
		}
	}
	slices.Sort(dirs)
	return dirs, nil
}
