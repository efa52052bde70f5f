package store

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"bidwatch/internal/logging"
)

// datasetWatcher follows the source file a dataset was loaded from and
// flips the stale flag when it changes on disk. Reloading stays a user
// decision; the watcher only surfaces that the file moved underneath us.
type datasetWatcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	path     string
	debounce time.Duration
	stale    bool
	onStale  func()
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func newDatasetWatcher(path string, onStale func()) (*datasetWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors replace files by rename,
	// which drops a direct file watch.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &datasetWatcher{
		fsw:      fsw,
		path:     filepath.Clean(path),
		debounce: 500 * time.Millisecond,
		onStale:  onStale,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *datasetWatcher) run() {
	defer close(w.doneCh)

	var lastEvent time.Time
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	pending := false
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending = true
			lastEvent = time.Now()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.StoreError("dataset watcher: %v", err)

		case <-ticker.C:
			if pending && time.Since(lastEvent) >= w.debounce {
				pending = false
				w.markStale()
			}
		}
	}
}

func (w *datasetWatcher) markStale() {
	w.mu.Lock()
	already := w.stale
	w.stale = true
	w.mu.Unlock()
	if already {
		return
	}
	logging.Store("dataset file changed on disk: %s", w.path)
	if w.onStale != nil {
		w.onStale()
	}
}

func (w *datasetWatcher) isStale() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stale
}

func (w *datasetWatcher) stop() {
	select {
	case <-w.stopCh:
		return // already stopped
	default:
	}
	close(w.stopCh)
	w.fsw.Close()
	<-w.doneCh
}

// Watch starts tracking the dataset source file. onStale runs at most once,
// from the watcher goroutine, the first time the file changes.
func (s *Store) Watch(path string, onStale func()) error {
	w, err := newDatasetWatcher(path, onStale)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		s.watcher.stop()
	}
	s.watcher = w
	return nil
}

// Stale reports whether the watched dataset file changed since it was
// loaded. False when nothing is being watched.
func (s *Store) Stale() bool {
	s.mu.RLock()
	w := s.watcher
	s.mu.RUnlock()
	return w != nil && w.isStale()
}
