package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/daemon/events"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
	"git.home.luguber.info/inful/smartcart/internal/logfields"
)

// ConfigWatcher reloads the config file after it changes and publishes the
// reloadable settings as events.ConfigReloaded. Bursts of writes within the
// debounce window produce one reload.
type ConfigWatcher struct {
	configPath string
	watcher    *fsnotify.Watcher
	logger     *slog.Logger
	debounce   time.Duration

	mu       sync.Mutex
	stopChan chan struct{}
	reload   chan struct{}
	stopped  bool
}

func NewConfigWatcher(configPath string, logger *slog.Logger) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to resolve config path").
			WithContext("path", configPath).
			Build()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDaemon, "failed to create file watcher").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigWatcher{
		configPath: abs,
		watcher:    w,
		logger:     logger,
		debounce:   time.Second,
		stopChan:   make(chan struct{}),
		reload:     make(chan struct{}, 1),
	}, nil
}

// Start watches the directory holding the file; editors that replace the
// file on save would otherwise drop the watch.
func (cw *ConfigWatcher) Start(ctx context.Context, bus *events.Bus) error {
	dir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(dir); err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "failed to watch config directory").
			WithContext("dir", dir).
			Build()
	}
	cw.logger.Info("Watching configuration", logfields.Path(cw.configPath))
	go cw.watchLoop(ctx)
	go cw.reloadLoop(ctx, bus)
	return nil
}

func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.stopped {
		return nil
	}
	cw.stopped = true
	close(cw.stopChan)
	return cw.watcher.Close()
}

func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	name := filepath.Base(cw.configPath)
	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			switch {
			case ev.Op.Has(fsnotify.Write), ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Rename):
				cw.logger.Debug("Config file changed", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
				cw.trigger()
			case ev.Op.Has(fsnotify.Remove):
				cw.logger.Warn("Config file removed", logfields.Path(ev.Name))
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error("Config watcher error", logfields.Error(err))
		}
	}
}

func (cw *ConfigWatcher) trigger() {
	select {
	case cw.reload <- struct{}{}:
	default:
	}
}

func (cw *ConfigWatcher) reloadLoop(ctx context.Context, bus *events.Bus) {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case <-cw.reload:
			timer.Reset(cw.debounce)
		case <-timer.C:
			cw.performReload(ctx, bus)
		}
	}
}

func (cw *ConfigWatcher) performReload(ctx context.Context, bus *events.Bus) {
	cfg, err := config.Load(cw.configPath)
	if err != nil {
		cw.logger.Error("Ignoring invalid configuration change", logfields.Path(cw.configPath), logfields.Error(err))
		return
	}
	evt := events.ConfigReloaded{Path: cw.configPath, Settings: cfg.Reloadable()}
	if err := events.Publish(ctx, bus, evt); err != nil && ctx.Err() == nil {
		cw.logger.Warn("Failed to publish configuration reload", logfields.Error(err))
	}
}
