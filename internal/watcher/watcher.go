// Package watcher watches a document directory with fsnotify and triggers a
// debounced full re-ingest when its contents change.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/kiku/internal/models"
)

const defaultDebounce = 400 * time.Millisecond

// ReindexFunc receives every matching file under the watched directory. The
// corpus is rebuilt from the full set on each invocation, so deletes are
// handled the same way as creates and writes.
type ReindexFunc func(ctx context.Context, files []models.File) error

// Watcher watches one directory and re-ingests it after changes settle.
type Watcher struct {
	root       string
	extensions []string
	reindex    ReindexFunc
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	watcher *fsnotify.Watcher
	started bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the settle interval before a re-ingest fires.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher over root. extensions filter which files are
// collected for re-ingest (empty matches all).
func NewWatcher(root string, extensions []string, reindex ReindexFunc, opts ...Option) *Watcher {
	w := &Watcher{
		root:       root,
		extensions: extensions,
		reindex:    reindex,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It performs one initial ingest of the directory,
// then runs until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := fsw.Add(w.root); err != nil {
		_ = fsw.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = fsw
	w.started = true
	w.mu.Unlock()

	w.logger.Info("watching directory", zap.String("root", w.root), zap.Strings("extensions", w.extensions))
	if err := w.runReindex(ctx); err != nil {
		w.logger.Warn("initial ingest failed", zap.Error(err))
	}

	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return
	}
	if !w.matchExtension(ev.Name) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if err := w.runReindex(ctx); err != nil {
			w.logger.Warn("re-ingest failed", zap.Error(err))
		}
	})
}

func (w *Watcher) runReindex(ctx context.Context) error {
	files, err := w.collectFiles()
	if err != nil {
		return err
	}
	return w.reindex(ctx, files)
}

func (w *Watcher) collectFiles() ([]models.File, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil, err
	}
	var files []models.File
	for _, entry := range entries {
		if entry.IsDir() || !w.matchExtension(entry.Name()) {
			continue
		}
		path := filepath.Join(w.root, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			w.logger.Debug("skipping unreadable file", zap.String("path", path), zap.Error(err))
			continue
		}
		files = append(files, models.File{Name: entry.Name(), Content: content})
	}
	return files, nil
}

func (w *Watcher) matchExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range w.extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}
