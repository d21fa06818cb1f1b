package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reloads a Store when its catalog file changes on disk.
//
// The parent directory is watched rather than the file so that editors that
// save by rename keep triggering reloads.
type Watcher struct {
	store    *Store
	target   string
	debounce time.Duration
	logger   *zap.Logger
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher prepares a watcher for store. A non-positive debounce uses the
// default of 250ms.
func NewWatcher(store *Store, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	target, err := filepath.Abs(store.Path())
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	return &Watcher{
		store:    store,
		target:   target,
		debounce: debounce,
		logger:   logger,
		watcher:  fw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It returns once the directory is registered; events
// are handled on a background goroutine until ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	dir := filepath.Dir(w.target)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.running = true

	w.logger.Info("catalog watcher started", zap.String("event", "catalog_watch"), zap.String("path", w.target))
	go w.run(ctx)
	return nil
}

// Stop ends the event loop and releases the fs watcher. It is safe to call
// more than once and before Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	w.mu.Unlock()

	if wasRunning {
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("close fs watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("catalog changed", zap.String("event", "catalog_fs_event"), zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			reload = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("catalog watcher error", zap.String("event", "catalog_watch_error"), zap.Error(err))
		case <-reload:
			reload = nil
			if err := w.store.Reload(); err != nil {
				w.logger.Warn("catalog reload failed; keeping previous catalog", zap.String("event", "catalog_reload_failed"), zap.Error(err))
				continue
			}
			w.logger.Info("catalog reloaded", zap.String("event", "catalog_reloaded"), zap.Strings("pictures", w.store.Current().Names()))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.target {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename)
}
