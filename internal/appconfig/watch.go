package appconfig

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/isnippet/internal/models"
)

const reloadDelay = 100 * time.Millisecond

// ChangeCallback receives the config after an on-disk change. cfg is nil
// when the file was removed.
type ChangeCallback func(cfg *models.Config)

// Watch observes the app-data directory and calls cb whenever config.json
// changes, until ctx is cancelled. Bursts of events (the atomic
// tmp+rename write produces several) are coalesced.
func (s *Store) Watch(ctx context.Context, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory, not the file: rename replaces the inode.
	if err := w.Add(s.Dir()); err != nil {
		return err
	}
	logger.Info("config watcher: started", slog.String("dir", s.Dir()))

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDelay)
			timerCh = timer.C
		} else {
			timer.Reset(reloadDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("config watcher: stopped")
			return nil

		case <-timerCh:
			cfg, err := s.Load()
			if err != nil {
				logger.Warn("config watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("config watcher: reloaded")
			if cb != nil {
				cb(cfg)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != FileName {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
