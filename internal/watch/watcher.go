// Package watch feeds new files from a directory into a handler.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// HandlerFunc processes one settled file.
type HandlerFunc func(ctx context.Context, path string) error

// DefaultExtensions are the still-image extensions Live Photos arrive with.
var DefaultExtensions = []string{".jpg", ".jpeg", ".heic", ".heif"}

// Watcher calls a handler for files created or rewritten in a directory,
// once writes to the file have been quiet for the debounce period.
type Watcher struct {
	dir        string
	debounce   time.Duration
	extensions map[string]bool
	handle     HandlerFunc
	log        *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher for dir. Only files whose extension is listed are
// reported; nil means DefaultExtensions.
func New(dir string, debounce time.Duration, extensions []string, handle HandlerFunc) *Watcher {
	if extensions == nil {
		extensions = DefaultExtensions
	}
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Watcher{
		dir:        dir,
		debounce:   debounce,
		extensions: exts,
		handle:     handle,
		log:        slog.With("component", "watcher", "dir", dir),
		pending:    make(map[string]*time.Timer),
	}
}

// Run watches until ctx is done. Handlers still running at that point are
// waited for.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("watching for live photos")

	defer w.wg.Wait()
	defer w.cancelPending()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				w.schedule(ctx, ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

// Accepts reports whether path has a watched extension.
func (w *Watcher) Accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return w.extensions[strings.ToLower(filepath.Ext(base))]
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	if !w.Accepts(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// A stopped timer never ran its callback, so it can be re-armed. One that
	// already fired gets a successor.
	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(w.debounce)
		return
	}

	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if err := w.handle(ctx, path); err != nil {
			w.log.Warn("handler failed", "path", path, "error", err)
		}
	})
	w.pending[path] = t
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}
