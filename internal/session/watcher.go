package session

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce batches the burst of events a single bbolt commit
// produces
const DefaultWatchDebounce = 100 * time.Millisecond

// Watcher re-syncs a Manager when another process changes the state file
type Watcher struct {
	manager  *Manager
	file     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	stopOnce sync.Once
	done     chan struct{}
}

// NewWatcher watches the directory of the manager's state file
func NewWatcher(m *Manager, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	path := m.store.Path()
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	return &Watcher{
		manager:  m,
		file:     filepath.Clean(path),
		watcher:  fw,
		debounce: debounce,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// Run processes file events until ctx is canceled or Stop is called
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.file {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("state watcher error", "error", err)
		case <-fire:
			fire = nil
			if err := w.manager.Resync(ctx); err != nil {
				w.logger.Warn("session resync failed", "error", err)
			}
		}
	}
}

// Stop ends Run and releases the watcher
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
