// Package watch reloads the camera tuning when its config file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// Loader reads the tuning from the file at path.
type Loader func(path string) (domain.CameraTuning, error)

// Config holds configuration options for the tuning watcher.
type Config struct {
	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{DebounceDelay: 100 * time.Millisecond}
}

// TuningWatcher monitors one config file and publishes the reloaded tuning
// on Updates. Only the latest pending tuning is kept: a reader that falls
// behind sees the newest value, never a stale one.
type TuningWatcher struct {
	mu sync.Mutex

	path          string
	load          Loader
	debounceDelay time.Duration
	logger        ports.Logger

	updates  chan domain.CameraTuning
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// New creates a watcher for path. It does nothing until Start.
func New(path string, load Loader, logger ports.Logger, cfg Config) *TuningWatcher {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &TuningWatcher{
		path:          path,
		load:          load,
		debounceDelay: cfg.DebounceDelay,
		logger:        logger,
		updates:       make(chan domain.CameraTuning, 1),
	}
}

// Updates delivers each successfully reloaded tuning.
func (w *TuningWatcher) Updates() <-chan domain.CameraTuning {
	return w.updates
}

// Start begins watching. The directory is watched rather than the file so
// editors that replace the file on save are still noticed.
func (w *TuningWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.logger.Info("watching tuning file", ports.String("path", w.path))

	w.wg.Add(1)
	go w.watchLoop(watchCtx, watcher)
	return nil
}

// Stop stops watching and waits for the watcher loop to exit.
func (w *TuningWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
}

func (w *TuningWatcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer w.wg.Done()
	defer watcher.Close()

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("tuning watcher error", ports.Err(err))
		}
	}
}

func (w *TuningWatcher) debounceReload(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}

	w.debounce = time.AfterFunc(w.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		w.reload()
	})
}

// reload loads the file and replaces any undelivered tuning with it. A file
// that fails to load is reported and otherwise ignored.
func (w *TuningWatcher) reload() {
	t, err := w.load(w.path)
	if err != nil {
		w.logger.Warn("ignoring invalid tuning file", ports.String("path", w.path), ports.Err(err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.updates:
	default:
	}
	w.updates <- t
	w.logger.Info("tuning file reloaded", ports.String("path", w.path))
}
