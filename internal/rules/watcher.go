package rules

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDebounce absorbs the burst of events editors emit on save.
const reloadDebounce = 200 * time.Millisecond

// Watch reloads path into h whenever the file changes, until ctx is done.
// The parent directory is watched so atomic rename-on-save is picked up.
// A file that fails to parse is logged and the previous set stays active.
func Watch(ctx context.Context, h *Holder, path string, logger *zap.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("rules watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("rules watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return fmt.Errorf("rules watcher: watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer w.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
				} else {
					timer.Reset(reloadDebounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if err := h.LoadFile(abs); err != nil {
					logger.Warn("Rules reload failed, keeping previous set",
						zap.String("path", abs), zap.Error(err))
					continue
				}
				logger.Info("Rules reloaded", zap.String("path", abs))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("Rules watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
