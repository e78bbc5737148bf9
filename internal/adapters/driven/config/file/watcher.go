package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/searchlift/internal/logger"
)

// reloadOps are the operations that can change a file's content.
const reloadOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Watcher reloads the config and prompt stores when their files change.
type Watcher struct {
	config  *ConfigStore
	prompts *PromptStore

	// OnConfigChange is called after config.toml is reloaded.
	OnConfigChange func()
}

// NewWatcher creates a watcher. Either store may be nil.
func NewWatcher(config *ConfigStore, prompts *PromptStore) *Watcher {
	return &Watcher{config: config, prompts: prompts}
}

// Watch blocks until ctx is cancelled, reloading stores as files change.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Close()

	for _, dir := range w.dirs() {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create watched directory: %w", err)
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		logger.Debug("watcher: watching %s", dir)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		}
	}
}

func (w *Watcher) dirs() []string {
	var dirs []string
	if w.config != nil {
		dirs = append(dirs, filepath.Dir(w.config.Path()))
	}
	if w.prompts != nil && (w.config == nil || w.prompts.Dir() != filepath.Dir(w.config.Path())) {
		dirs = append(dirs, w.prompts.Dir())
	}
	return dirs
}

// handleEvent reloads whichever store owns the changed file.
// It reports whether a reload happened.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op&reloadOps == 0 {
		return false
	}

	name := filepath.Clean(event.Name)

	if w.config != nil && name == filepath.Clean(w.config.Path()) {
		if err := w.config.Load(); err != nil {
			logger.Warn("watcher: keeping previous config: %v", err)
			return false
		}
		logger.Info("Reloaded %s", name)
		if w.OnConfigChange != nil {
			w.OnConfigChange()
		}
		return true
	}

	if w.prompts != nil && filepath.Dir(name) == filepath.Clean(w.prompts.Dir()) &&
		strings.HasSuffix(name, ".txt") {
		w.prompts.Reload()
		logger.Info("Reloaded prompts after change to %s", filepath.Base(name))
		return true
	}

	return false
}
