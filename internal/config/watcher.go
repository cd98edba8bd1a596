package config

import (
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// overlay is the subset of Config that the YAML file may override at
// runtime: graph edge weights, cache TTLs, and quality weights. Every
// other field requires a process restart.
type overlay struct {
	Graph   *Graph   `yaml:"graph"`
	Cache   *Cache   `yaml:"cache"`
	Quality *Quality `yaml:"quality"`
}

// Watcher watches ConfigFile and applies overlay changes to a live Config,
// notifying registered callbacks after each successful reload.
type Watcher struct {
	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)
	logger    *zap.Logger
	fsw       *fsnotify.Watcher
	stopCh    chan struct{}
}

// NewWatcher starts watching cfg.ConfigFile. If ConfigFile is empty, the
// watcher is inert (Stop is a no-op, no goroutine is started).
func NewWatcher(cfg *Config, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{current: cfg, logger: logger, stopCh: make(chan struct{})}

	if cfg.ConfigFile == "" {
		return w, nil
	}
	if err := w.applyOverlay(cfg.ConfigFile); err != nil {
		logger.Warn("initial config overlay failed to apply", zap.Error(err))
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(cfg.ConfigFile); err != nil {
		fsw.Close()
		return nil, err
	}
	w.fsw = fsw
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.fsw.Close()
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.RLock()
			path := w.current.ConfigFile
			w.mu.RUnlock()
			if err := w.applyOverlay(path); err != nil {
				w.logger.Warn("config overlay reload failed", zap.String("file", path), zap.Error(err))
				continue
			}
			w.notify()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", zap.Error(err))
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var ov overlay
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return err
	}

	w.mu.Lock()
	next := *w.current
	if ov.Graph != nil {
		next.Graph = *ov.Graph
	}
	if ov.Cache != nil {
		next.Cache = *ov.Cache
	}
	if ov.Quality != nil {
		next.Quality = *ov.Quality
	}
	if err := next.Graph.Validate(); err != nil {
		w.mu.Unlock()
		return err
	}
	if err := next.Quality.Validate(); err != nil {
		w.mu.Unlock()
		return err
	}
	w.current = &next
	w.mu.Unlock()

	w.logger.Info("config overlay applied", zap.String("file", path))
	return nil
}

// OnChange registers a callback invoked (in its own goroutine, panics
// recovered) after every successful overlay reload.
func (w *Watcher) OnChange(cb func(*Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, cb)
	w.mu.Unlock()
}

func (w *Watcher) notify() {
	w.mu.RLock()
	cfg := w.current
	cbs := make([]func(*Config), len(w.callbacks))
	copy(cbs, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range cbs {
		go func(cb func(*Config)) {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("config change callback panicked", zap.Any("panic", r))
				}
			}()
			cb(cfg)
		}(cb)
	}
}

// Config returns the current (possibly overlay-reloaded) configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Stop stops the watcher goroutine, if one was started.
func (w *Watcher) Stop() {
	if w.fsw != nil {
		close(w.stopCh)
	}
}
