package report

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce batches the burst of events most editors and agents emit
// for a single artifact write.
const defaultDebounce = 100 * time.Millisecond

// Watcher observes the report directory and delivers batched notifications
// as artifacts land. Paths are reported relative to the watched directory,
// slash-separated, matching the form contracts are written in.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	onBatch func(relPaths []string)

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for the given report directory. The directory
// is created if it does not exist yet, so a watcher can start before the
// first movement writes anything.
func NewWatcher(dir string) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory %s: %w", dir, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating report watcher: %w", err)
	}
	return &Watcher{
		dir:      dir,
		watcher:  fsw,
		debounce: defaultDebounce,
		stopCh:   make(chan struct{}),
	}, nil
}

// Dir returns the watched report directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// OnBatch sets the callback invoked with each debounced batch of changed
// paths. Must be set before Start.
func (w *Watcher) OnBatch(cb func(relPaths []string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onBatch = cb
}

// Start registers the directory tree with fsnotify and begins dispatching.
func (w *Watcher) Start() error {
	if err := w.watchRecursive(w.dir); err != nil {
		return fmt.Errorf("watching report directory %s: %w", w.dir, err)
	}
	go w.loop()
	return nil
}

// Stop ends dispatching and releases the underlying watcher. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
}

// watchRecursive adds dir and every subdirectory to the watcher. fsnotify
// only watches directories, not trees.
func (w *Watcher) watchRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer

	pending := make(map[string]struct{})

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// New directories need their own watch before files inside
			// them produce events.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.watchRecursive(event.Name)
					continue
				}
			}

			rel, err := filepath.Rel(w.dir, event.Name)
			if err != nil {
				continue
			}
			pending[filepath.ToSlash(rel)] = struct{}{}
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = make(map[string]struct{})

			w.mu.Lock()
			cb := w.onBatch
			w.mu.Unlock()
			if cb != nil {
				cb(batch)
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
