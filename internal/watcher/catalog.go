// Package watcher rebuilds the evidence catalog when the repository tree
// changes on disk.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"observatorio/internal/retrieval"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	DefaultDebounce = 2 * time.Second
	tickInterval    = 100 * time.Millisecond
)

// Rebuilder publishes a fresh catalog snapshot. retrieval.Holder implements it.
type Rebuilder interface {
	Rebuild(ctx context.Context) *retrieval.Catalog
}

var watchedExt = map[string]bool{".txt": true, ".pdf": true, ".json": true, ".csv": true}

// CatalogWatcher coalesces bursts of filesystem events under the watched
// roots into a single rebuild once the tree has been quiet for the debounce
// window. fsnotify is not recursive, so every directory is added explicitly
// and new directories are picked up as they appear.
type CatalogWatcher struct {
	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	target    Rebuilder
	roots     []string
	debounce  time.Duration
	logger    *zap.Logger
	pending   bool
	lastEvent time.Time
	rebuilds  int
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func New(target Rebuilder, roots []string, debounce time.Duration, logger *zap.Logger) (*CatalogWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogWatcher{
		watcher:  w,
		target:   target,
		roots:    roots,
		debounce: debounce,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start registers every directory under the roots and begins the event loop.
// It does not block. Missing roots are logged and skipped.
func (cw *CatalogWatcher) Start(ctx context.Context) error {
	cw.mu.Lock()
	if cw.running {
		cw.mu.Unlock()
		return nil
	}
	cw.running = true
	cw.mu.Unlock()

	watched := 0
	for _, root := range cw.roots {
		watched += cw.addTree(root)
	}
	cw.logger.Info("catalog watcher started", zap.Strings("roots", cw.roots), zap.Int("dirs", watched))

	go cw.run(ctx)
	return nil
}

// Stop ends the event loop and releases the fsnotify handle.
func (cw *CatalogWatcher) Stop() {
	cw.mu.Lock()
	if !cw.running {
		cw.mu.Unlock()
		return
	}
	cw.running = false
	cw.mu.Unlock()

	close(cw.stopCh)
	<-cw.doneCh
	if err := cw.watcher.Close(); err != nil {
		cw.logger.Warn("catalog watcher close failed", zap.Error(err))
	}
}

// Rebuilds reports how many rebuilds the watcher has triggered.
func (cw *CatalogWatcher) Rebuilds() int {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.rebuilds
}

func (cw *CatalogWatcher) addTree(root string) int {
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			cw.logger.Debug("watch walk skipped", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := cw.watcher.Add(path); err != nil {
			cw.logger.Warn("watch add failed", zap.String("dir", path), zap.Error(err))
			return nil
		}
		n++
		return nil
	})
	if err != nil {
		cw.logger.Warn("watch root unavailable", zap.String("root", root), zap.Error(err))
	}
	return n
}

func (cw *CatalogWatcher) run(ctx context.Context) {
	defer close(cw.doneCh)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopCh:
			return
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleEvent(ev, time.Now())
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warn("catalog watcher error", zap.Error(err))
		case now := <-ticker.C:
			cw.flush(ctx, now)
		}
	}
}

func (cw *CatalogWatcher) handleEvent(ev fsnotify.Event, at time.Time) {
	if ev.Op&fsnotify.Create != 0 {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			cw.addTree(ev.Name)
			cw.mark(at)
			return
		}
	}
	if !relevant(ev) {
		return
	}
	cw.logger.Debug("catalog change", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
	cw.mark(at)
}

func (cw *CatalogWatcher) mark(at time.Time) {
	cw.mu.Lock()
	cw.pending = true
	cw.lastEvent = at
	cw.mu.Unlock()
}

// flush rebuilds once when changes are pending and the last one is older
// than the debounce window.
func (cw *CatalogWatcher) flush(ctx context.Context, now time.Time) bool {
	cw.mu.Lock()
	if !cw.pending || now.Sub(cw.lastEvent) < cw.debounce {
		cw.mu.Unlock()
		return false
	}
	cw.pending = false
	cw.mu.Unlock()

	started := time.Now()
	cat := cw.target.Rebuild(ctx)

	cw.mu.Lock()
	cw.rebuilds++
	cw.mu.Unlock()
	cw.logger.Info("catalog rebuilt after change",
		zap.Int("documents", cat.Len()),
		zap.Duration("took", time.Since(started)))
	return true
}

// relevant keeps evidence files and directory removals; temp files written by
// atomic saves are ignored.
func relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "tmp-") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	if ext == "" {
		// A removed or renamed directory no longer stats; treat it as a change.
		return ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0
	}
	return watchedExt[ext]
}
