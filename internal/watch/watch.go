package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bananalab/internal/logging"
	"bananalab/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

var log = logging.Component("watch")

// DefaultDebounce is how long a document must be quiet before it is handled.
const DefaultDebounce = 300 * time.Millisecond

// Handlers receive settled events. Either may be nil.
type Handlers struct {
	Changed func(ctx context.Context, path string)
	Removed func(ctx context.Context, path string)
}

type event struct {
	path    string
	removed bool
}

// Watcher debounces page document events under a directory.
type Watcher struct {
	dir      string
	debounce time.Duration
	handlers Handlers

	mu      sync.Mutex
	pending map[string]*time.Timer
	settled chan event
	ready   chan struct{}
	done    chan struct{}
}

// New returns a watcher for dir. A debounce <= 0 uses DefaultDebounce.
func New(dir string, debounce time.Duration, h Handlers) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		handlers: h,
		pending:  make(map[string]*time.Timer),
		settled:  make(chan event, 64),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Ready is closed once the directory tree is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// IsPageDocument reports whether path names a page document.
func IsPageDocument(path string) bool {
	base := filepath.Base(path)
	return strings.EqualFold(filepath.Ext(base), ".json") && !strings.HasPrefix(base, ".")
}

// Scan lists the page documents currently under dir, in lexical order.
func Scan(dir string) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsPageDocument(path) {
			docs = append(docs, path)
		}
		return nil
	})
	return docs, err
}

// Run watches until ctx is done. A Watcher runs once.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatchErrors.Inc()
		return err
	}
	defer func() {
		close(w.done)
		if err := watcher.Close(); err != nil {
			log.Error("failed to close file watcher: %v", err)
		}
		w.stopTimers()
	}()

	n, err := w.addTree(watcher, w.dir)
	if err != nil {
		return err
	}
	log.Info("watching %d directories under %s", n, w.dir)
	close(w.ready)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(watcher, ev)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher error: %v", err)
			metrics.WatchErrors.Inc()

		case ev := <-w.settled:
			w.dispatch(ctx, ev)
		}
	}
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(path); addErr != nil {
			log.Warn("failed to watch %s: %v", path, addErr)
			metrics.WatchErrors.Inc()
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		metrics.WatchErrors.Inc()
		return count, err
	}
	return count, nil
}

func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if _, err := w.addTree(watcher, ev.Name); err != nil {
				log.Warn("failed to watch new directory %s: %v", ev.Name, err)
			}
			return
		}
	}
	if !IsPageDocument(ev.Name) {
		return
	}

	op := opName(ev.Op)
	if op == "" {
		return
	}
	metrics.WatchEventsTotal.WithLabelValues(op).Inc()
	removed := op == "remove" || op == "rename"
	if removed {
		// a rename onto this path arrives as a separate create
		if _, err := os.Stat(ev.Name); err == nil {
			removed = false
		}
	}
	w.schedule(event{path: ev.Name, removed: removed})
}

// schedule (re)starts the quiet period of ev.path.
func (w *Watcher) schedule(ev event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[ev.path]; ok {
		t.Stop()
	}
	w.pending[ev.path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, ev.path)
		w.mu.Unlock()
		select {
		case w.settled <- ev:
		case <-w.done:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) dispatch(ctx context.Context, ev event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("handler for %s panicked: %v", ev.path, r)
		}
	}()
	if ev.removed {
		log.Debug("removed: %s", ev.path)
		if w.handlers.Removed != nil {
			w.handlers.Removed(ctx, ev.path)
		}
		return
	}
	// the file may have vanished during the quiet period
	if _, err := os.Stat(ev.path); errors.Is(err, fs.ErrNotExist) {
		if w.handlers.Removed != nil {
			w.handlers.Removed(ctx, ev.path)
		}
		return
	}
	log.Debug("changed: %s", ev.path)
	if w.handlers.Changed != nil {
		w.handlers.Changed(ctx, ev.path)
	}
}

func opName(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	default:
		return ""
	}
}
