package treecache

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher is the workspace change watcher named in the spec's ambient
// stack: an fsnotify watcher that invalidates cached trees when a file
// changes on disk outside of the executor's own write path (an editor
// save, a git checkout, another process), independent of the executor's
// post-Phase-4 invalidation.
type Watcher struct {
	fs    *fsnotify.Watcher
	cache *Cache
	log   *slog.Logger
	done  chan struct{}
}

// NewWatcher wraps an fsnotify watcher to invalidate entries in cache.
func NewWatcher(cache *Cache, log *slog.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{fs: fs, cache: cache, log: log, done: make(chan struct{})}, nil
}

// Add registers dir for change notifications. fsnotify watches are
// non-recursive, so callers add one watch per directory they care about.
func (w *Watcher) Add(dir string) error {
	return w.fs.Add(dir)
}

// Run processes filesystem events until Close is called. Intended to be
// started in its own goroutine.
func (w *Watcher) Run() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.cache.Invalidate(event.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("treecache watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// Close stops Run and releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}
