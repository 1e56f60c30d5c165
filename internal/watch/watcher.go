// Package watch notices edits made to the registry file outside the
// dashboard.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDebounce = 300 * time.Millisecond

// RegistryWatcher calls onChange once a burst of writes to one file has
// settled. The parent directory is watched so that editors which replace
// the file by renaming are still seen.
type RegistryWatcher struct {
	path     string
	debounce time.Duration
	onChange func() error
	logger   *zap.Logger
	ready    chan struct{}
}

func NewRegistryWatcher(path string, debounce time.Duration, onChange func() error, logger *zap.Logger) *RegistryWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &RegistryWatcher{
		path:     path,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the watch is in place.
func (w *RegistryWatcher) Ready() <-chan struct{} { return w.ready }

// Run blocks until ctx is done. A failing onChange is logged and watching
// continues.
func (w *RegistryWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	close(w.ready)
	w.logger.Info("watching registry", zap.String("path", w.path))

	base := filepath.Base(w.path)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.logger.Debug("registry event", zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				restartTimer(timer, w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			if err := w.onChange(); err != nil {
				w.logger.Error("registry change handler failed", zap.Error(err))
			}
		}
	}
}

// restartTimer rearms t for d, discarding a tick that fired but was never
// received so it cannot cut the new wait short.
func restartTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
