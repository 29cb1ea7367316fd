package internal

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	pkgconfig "github.com/starford/dagaz/pkg/config"
)

// ApplyFunc receives a freshly loaded and validated configuration.
type ApplyFunc func(*Config)

// WatchConfig starts an fsnotify watcher on the config file and reloads it
// on change until ctx is cancelled. Only validated configs reach apply; a
// broken edit is logged and skipped so the running settings stay intact.
//
// The watch is placed on the parent directory because most editors replace
// the file on save, which would otherwise drop the watch.
func WatchConfig(ctx context.Context, path string, logger *slog.Logger, apply ApplyFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("config watcher: started", slog.String("path", path))

	// reloadTimer debounces bursts of write events from a single save.
	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(300 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(300 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("config watcher: stopped")
			return nil

		case <-reloadCh:
			cfg := NewDefaultConfig()
			if err := pkgconfig.Load(path, cfg); err != nil {
				logger.Warn("config watcher: reload rejected", slog.String("error", err.Error()))
				continue
			}
			logger.Info("config watcher: applying new settings")
			apply(cfg)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher: error", slog.String("error", werr.Error()))
		}
	}
}
