// Package watcher re-imports catalog workbooks when they are created or changed under the
// configured import directories.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// ImportFunc handles one changed workbook.
type ImportFunc func(ctx context.Context, path string)

// Watcher watches import directories and calls an ImportFunc for matching files once
// writes to them have settled.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	onImport   ImportFunc
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	ctx     context.Context
	done    chan struct{}
	stop    sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long a file must stay quiet before it is imported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher over roots. extensions filters files by extension (empty
// means all files).
func NewWatcher(roots, extensions []string, recursive bool, onImport ImportFunc, opts ...Option) *Watcher {
	w := &Watcher{
		roots:      append([]string(nil), roots...),
		extensions: extensions,
		recursive:  recursive,
		onImport:   onImport,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. Missing roots are created. It returns once watches are in place;
// events are handled until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		if err := w.watchTree(fsw, root); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.fsw = fsw
	w.ctx = ctx
	w.logger.Info("watching import directories",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive),
	)
	go w.loop(ctx, fsw)
	return nil
}

func (w *Watcher) watchTree(fsw *fsnotify.Watcher, root string) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !w.recursive {
		return fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	path := ev.Name
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if w.recursive {
				if err := w.watchTree(fsw, path); err != nil {
					w.logger.Warn("watch new directory failed", zap.String("path", path), zap.Error(err))
				}
				w.syncDirectory(path)
			}
			return
		}
		if w.accepts(path) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancel(path)
		if w.accepts(path) {
			// Imported rows stay in the catalog.
			w.logger.Info("workbook removed", zap.String("path", path))
		}
	}
}

// accepts reports whether path has a watched extension and is not an editor lock file.
func (w *Watcher) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".~lock.") {
		return false
	}
	return matchExtension(path, w.extensions)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		ctx := w.ctx
		w.mu.Unlock()
		if ctx == nil || ctx.Err() != nil {
			return
		}
		w.onImport(ctx, path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) syncDirectory(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && w.accepts(path) {
			w.schedule(path)
		}
		return nil
	})
}

// SyncExistingFiles schedules an import of every matching file already under the roots.
// Call it after Start.
func (w *Watcher) SyncExistingFiles() {
	for _, root := range w.Directories() {
		w.syncDirectory(root)
	}
}

// Directories returns the watched roots.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// Stop stops watching and drops pending imports.
func (w *Watcher) Stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	fsw := w.fsw
	w.fsw = nil
	w.mu.Unlock()
	if fsw != nil {
		_ = fsw.Close()
	}
	w.stop.Do(func() { close(w.done) })
}
