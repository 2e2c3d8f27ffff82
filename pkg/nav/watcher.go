package nav

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads navigation graph files when they change on disk. Editors
// and deploy tooling tend to emit bursts of write events for a single save,
// so per-path reloads are debounced.
type Watcher struct {
	watcher  *fsnotify.Watcher
	paths    map[string]bool
	onChange func(path string)
	logger   *zap.Logger

	debounce      time.Duration
	debounceTimer map[string]*time.Timer
	debounceMu    sync.Mutex
	closed        bool

	done chan struct{}
}

// NewWatcher starts watching the given graph files. onChange is invoked
// with the changed file's path after the debounce window, from the
// watcher's goroutine.
func NewWatcher(paths []string, onChange func(path string), logger *zap.Logger) (*Watcher, error) {
	return newWatcher(paths, onChange, logger, 500*time.Millisecond)
}

func newWatcher(paths []string, onChange func(path string), logger *zap.Logger, debounce time.Duration) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:       fsw,
		paths:         make(map[string]bool, len(paths)),
		onChange:      onChange,
		logger:        logger,
		debounce:      debounce,
		debounceTimer: make(map[string]*time.Timer),
		done:          make(chan struct{}),
	}

	// Watch the containing directories: most editors replace files by
	// rename, which unregisters a direct file watch.
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to resolve graph path %s: %w", p, err)
		}
		w.paths[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	go w.eventLoop()
	return w, nil
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.paths[abs] {
				continue
			}
			w.scheduleReload(abs)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("graph watcher error", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) scheduleReload(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.closed {
		return
	}
	if timer, ok := w.debounceTimer[path]; ok {
		timer.Stop()
	}
	w.debounceTimer[path] = time.AfterFunc(w.debounce, func() {
		// Stop cannot cancel a timer that has already fired; recheck
		// closed under the lock so onChange never runs after Close
		// returns. Close takes the same lock, so an in-flight callback
		// finishes before Close does.
		w.debounceMu.Lock()
		defer w.debounceMu.Unlock()
		if w.closed {
			return
		}
		delete(w.debounceTimer, path)

		w.logger.Info("navigation graph changed", zap.String("path", path))
		w.onChange(path)
	})
}

// Close stops the watcher and any pending reloads. onChange is not invoked
// after Close returns.
func (w *Watcher) Close() error {
	close(w.done)
	w.debounceMu.Lock()
	w.closed = true
	for _, timer := range w.debounceTimer {
		timer.Stop()
	}
	w.debounceMu.Unlock()
	return w.watcher.Close()
}
