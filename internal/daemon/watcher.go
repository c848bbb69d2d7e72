package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/deepdoc/internal/logfields"
)

// ConfigWatcher watches the configuration file and fires a debounced
// callback on changes. Watching the parent directory instead of the file
// itself survives editors that replace the file on save.
type ConfigWatcher struct {
	configPath string
	watcher    *fsnotify.Watcher
	debounce   time.Duration
	onChange   func()
}

func NewConfigWatcher(configPath string, debounce time.Duration, onChange func()) (*ConfigWatcher, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &ConfigWatcher{
		configPath: absPath,
		watcher:    watcher,
		debounce:   debounce,
		onChange:   onChange,
	}, nil
}

// Start begins watching until the context is canceled.
func (w *ConfigWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.configPath)); err != nil {
		return fmt.Errorf("watch config directory: %w", err)
	}
	slog.Info("Watching configuration file", logfields.Path(w.configPath))
	go w.loop(ctx)
	return nil
}

// Close stops the underlying filesystem watcher.
func (w *ConfigWatcher) Close() error {
	return w.watcher.Close()
}

func (w *ConfigWatcher) loop(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				if event.Op&fsnotify.Remove != 0 {
					slog.Warn("Configuration file removed", logfields.Path(w.configPath))
				}
				continue
			}
			slog.Debug("Configuration change detected", logfields.Path(event.Name))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.onChange)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Configuration watcher error", logfields.Error(err))
		}
	}
}
