package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

// reloadTarget receives validated configurations.
type reloadTarget interface {
	ReloadConfig(cfg *config.Config)
}

// ConfigWatcher reloads the configuration file after it settles.
// Invalid documents are logged and the current configuration stays in force.
type ConfigWatcher struct {
	configPath   string
	target       reloadTarget
	watcher      *fsnotify.Watcher
	done         chan struct{}
	closeOnce    sync.Once
	debounceTime time.Duration
}

func NewConfigWatcher(configPath string, target reloadTarget) (*ConfigWatcher, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &ConfigWatcher{
		configPath:   absPath,
		target:       target,
		watcher:      w,
		done:         make(chan struct{}),
		debounceTime: 2 * time.Second,
	}, nil
}

// Start watches the directory holding the file; editors often save by
// renaming a temporary file over it.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	slog.Info("Watching configuration for changes", logfields.Path(cw.configPath))
	go cw.loop(ctx)
	return nil
}

// Stop is safe to call more than once.
func (cw *ConfigWatcher) Stop() error {
	var err error
	cw.closeOnce.Do(func() {
		close(cw.done)
		err = cw.watcher.Close()
	})
	return err
}

func (cw *ConfigWatcher) loop(ctx context.Context) {
	name := filepath.Base(cw.configPath)

	// pending fires once the file has been quiet for debounceTime.
	var pending <-chan time.Time
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
		case <-cw.done:
			return
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Remove) {
				slog.Warn("Configuration file removed, keeping current configuration", logfields.File(ev.Name))
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			slog.Debug("Configuration change detected", logfields.File(ev.Name), slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(cw.debounceTime)
			} else {
				timer.Reset(cw.debounceTime)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			cw.reload()
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Configuration watcher error", logfields.Error(err))
		}
	}
}

func (cw *ConfigWatcher) reload() {
	cfg, err := config.Load(cw.configPath)
	if err != nil {
		slog.Error("Configuration reload rejected", logfields.Path(cw.configPath), logfields.Error(err))
		return
	}
	cw.target.ReloadConfig(cfg)
}
