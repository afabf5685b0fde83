// Package watch triggers catalog reloads when content files change
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/standardbeagle/medcat/internal/logging"
)

// DefaultDebounce is used when Options.Debounce is zero
const DefaultDebounce = 300 * time.Millisecond

// ReloadFunc is called once per debounced batch with the changed paths,
// relative to the root and sorted
type ReloadFunc func(ctx context.Context, changed []string) error

// Options configure a Watcher
type Options struct {
	Root     string
	Debounce time.Duration
	// Match reports whether a slash-separated path relative to Root should
	// trigger a reload. nil accepts every file.
	Match func(rel string) bool
	// SkipDirs are doublestar patterns of directories never watched
	SkipDirs []string
}

// Stats are cumulative watch counters
type Stats struct {
	Events     int64     `json:"events"`
	Reloads    int64     `json:"reloads"`
	Failures   int64     `json:"failures"`
	LastReload time.Time `json:"lastReload"`
}

// Watcher monitors the content root recursively and calls reload after
// events settle
type Watcher struct {
	watcher *fsnotify.Watcher
	opts    Options
	reload  ReloadFunc
	logger  *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	changes chan string
	dirsMu  sync.Mutex
	dirs    map[string]bool // watched directories
	started atomic.Bool
	stopped atomic.Bool

	events   atomic.Int64
	reloads  atomic.Int64
	failures atomic.Int64
	statsMu  sync.RWMutex
	last     time.Time
}

// New creates a watcher; nothing is watched until Start
func New(opts Options, reload ReloadFunc, logger *zap.Logger) (*Watcher, error) {
	if reload == nil {
		return nil, errors.New("watch: reload func is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Match == nil {
		opts.Match = func(string) bool { return true }
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		watcher: fsw,
		opts:    opts,
		reload:  reload,
		logger:  logging.OrNop(logger),
		ctx:     ctx,
		cancel:  cancel,
		changes: make(chan string, 64),
		dirs:    make(map[string]bool),
	}, nil
}

// Start adds watches under Root and begins processing events
func (w *Watcher) Start() error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: already started")
	}
	if err := w.addWatches(w.opts.Root); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", w.opts.Root, err)
	}

	w.wg.Add(2)
	go w.processEvents()
	go w.debounce()

	w.logger.Info("watching content", zap.String("root", w.opts.Root), zap.Duration("debounce", w.opts.Debounce))
	return nil
}

// Stop ends watching and waits for every goroutine to exit. Pending
// changes are dropped. Safe to call more than once.
func (w *Watcher) Stop() error {
	if !w.stopped.CompareAndSwap(false, true) {
		return nil
	}
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	w.logger.Info("content watcher stopped")
	return err
}

// Stats returns a copy of the watch counters
func (w *Watcher) Stats() Stats {
	w.statsMu.RLock()
	last := w.last
	w.statsMu.RUnlock()
	return Stats{
		Events:     w.events.Load(),
		Reloads:    w.reloads.Load(),
		Failures:   w.failures.Load(),
		LastReload: last,
	}
}

func (w *Watcher) addWatches(root string) error {
	if _, err := os.Stat(root); err != nil {
		return err
	}
	visited := make(map[string]bool)

	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil || visited[realPath] {
			return filepath.SkipDir
		}
		visited[realPath] = true

		if w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to add watch", zap.String("path", path), zap.Error(err))
			return nil
		}
		w.dirsMu.Lock()
		w.dirs[filepath.Clean(path)] = true
		w.dirsMu.Unlock()
		return nil
	})
}

// forgetDir unwatches path and everything below it and reports whether
// path was a watched directory
func (w *Watcher) forgetDir(path string) bool {
	path = filepath.Clean(path)
	prefix := path + string(filepath.Separator)

	w.dirsMu.Lock()
	found := w.dirs[path]
	var gone []string
	for dir := range w.dirs {
		if dir == path || strings.HasPrefix(dir, prefix) {
			delete(w.dirs, dir)
			gone = append(gone, dir)
		}
	}
	w.dirsMu.Unlock()

	// a moved directory is still watched by inode; a deleted one is
	// already gone and Remove fails harmlessly
	for _, dir := range gone {
		_ = w.watcher.Remove(dir)
	}
	return found
}

func (w *Watcher) skipDir(path string) bool {
	rel, ok := w.rel(path)
	if !ok || rel == "." {
		return false
	}
	for _, pattern := range w.opts.SkipDirs {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, rel+"/"); matched {
			return true
		}
	}
	return false
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.opts.Root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// new directories may already hold files
			if err := w.addWatches(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
			w.queue(event.Name)
			return
		}
	}

	// a removed or renamed directory takes its records with it and emits
	// no per-file events when moved out of the root
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && w.forgetDir(event.Name) {
		w.queue(event.Name)
		return
	}

	rel, ok := w.rel(event.Name)
	if !ok || !w.opts.Match(rel) {
		return
	}
	w.queue(event.Name)
}

func (w *Watcher) queue(path string) {
	w.events.Add(1)
	select {
	case w.changes <- path:
	case <-w.ctx.Done():
	}
}

// debounce collects changes until Debounce passes without a new one, then
// reloads once for the whole batch
func (w *Watcher) debounce() {
	defer w.wg.Done()

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]bool)
	for {
		select {
		case <-w.ctx.Done():
			return

		case path := <-w.changes:
			if rel, ok := w.rel(path); ok {
				pending[rel] = true
			}
			timer.Reset(w.opts.Debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			w.flush(changed)
		}
	}
}

func (w *Watcher) flush(changed []string) {
	w.logger.Debug("content changed, reloading", zap.Strings("paths", changed))

	if err := w.reload(w.ctx, changed); err != nil {
		w.failures.Add(1)
		if w.ctx.Err() == nil {
			w.logger.Error("reload after change failed, previous snapshot stays active", zap.Error(err))
		}
		return
	}

	w.reloads.Add(1)
	w.statsMu.Lock()
	w.last = time.Now()
	w.statsMu.Unlock()
}
