// Package watcher posts file change events to a bus using fsnotify.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/brianly1003/evbus/internal/domain/events"
	"github.com/brianly1003/evbus/internal/domain/ports"
)

// renameWindow is how long a rename waits for the matching create.
const renameWindow = time.Second

// Options configures a Watcher.
type Options struct {
	// DebounceMS is the quiet period per path before a change is posted.
	DebounceMS int
	// Include limits posted changes to base names matching one of these
	// globs. Empty means every file.
	Include []string
	// Ignore skips paths with any component matching one of these globs.
	Ignore []string
}

// Watcher watches a directory tree and posts *events.FileChanged for each
// debounced change.
type Watcher struct {
	root      string
	publisher ports.Publisher
	opts      Options

	mu        sync.RWMutex
	fsw       *fsnotify.Watcher
	running   bool
	cancel    context.CancelFunc
	debouncer *Debouncer

	// Rename tracking: directory -> old path awaiting its create.
	renames   map[string]pendingRename
	renamesMu sync.Mutex
}

type pendingRename struct {
	oldPath string
	at      time.Time
}

// New creates a watcher rooted at root that posts to publisher.
func New(root string, publisher ports.Publisher, opts Options) *Watcher {
	return &Watcher{
		root:      root,
		publisher: publisher,
		opts:      opts,
		renames:   make(map[string]pendingRename),
	}
}

// Start begins watching. It returns once watches are in place; events are
// posted from a background goroutine until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.fsw = fsw

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.debouncer = NewDebouncer(time.Duration(w.opts.DebounceMS)*time.Millisecond, w.post)
	w.running = true
	w.mu.Unlock()

	if err := w.addWatchRecursive(w.root); err != nil {
		_ = w.Stop()
		return err
	}

	go w.eventLoop(watchCtx, fsw)
	go w.renameCleanup(watchCtx)

	log.Info().
		Str("path", w.root).
		Int("debounce_ms", w.opts.DebounceMS).
		Strs("include", w.opts.Include).
		Msg("file watcher started")

	return nil
}

// Stop terminates watching. Pending changes are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false

	if w.cancel != nil {
		w.cancel()
	}
	if w.debouncer != nil {
		w.debouncer.Stop()
	}
	if w.fsw != nil {
		err := w.fsw.Close()
		w.fsw = nil
		log.Info().Msg("file watcher stopped")
		return err
	}
	return nil
}

// IsRunning returns true if the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) addWatchRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.fsw.Add(root)
	}

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip what we can't access
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to add watch")
		}
		return nil
	})
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// renameCleanup posts deletions for renames that never saw their create.
func (w *Watcher) renameCleanup(ctx context.Context) {
	ticker := time.NewTicker(renameWindow / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.flushStaleRenames(time.Now())
		}
	}
}

func (w *Watcher) flushStaleRenames(now time.Time) {
	w.renamesMu.Lock()
	var stale []string
	for dir, p := range w.renames {
		if now.Sub(p.at) > renameWindow {
			delete(w.renames, dir)
			stale = append(stale, p.oldPath)
		}
	}
	w.renamesMu.Unlock()

	for _, path := range stale {
		log.Debug().Str("path", path).Msg("stale rename treated as deletion")
		w.publish(events.NewFileChangedEvent(path, events.FileChangeDeleted, 0))
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		relPath = event.Name
	}
	if w.shouldIgnore(relPath) {
		return
	}

	var changeType events.FileChangeType
	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addWatchRecursive(event.Name)
			return
		}
		changeType = events.FileChangeCreated
	case event.Has(fsnotify.Write):
		changeType = events.FileChangeModified
	case event.Has(fsnotify.Remove):
		changeType = events.FileChangeDeleted
	case event.Has(fsnotify.Rename):
		// Wait for the create in the same directory to learn the new name.
		w.renamesMu.Lock()
		w.renames[filepath.Dir(relPath)] = pendingRename{oldPath: relPath, at: time.Now()}
		w.renamesMu.Unlock()
		return
	default:
		return
	}

	if !w.included(relPath) {
		return
	}
	w.debouncer.Add(relPath, changeType)
}

// post is the debouncer callback.
func (w *Watcher) post(c Change) {
	if c.Type == events.FileChangeCreated {
		dir := filepath.Dir(c.Path)
		w.renamesMu.Lock()
		p, ok := w.renames[dir]
		if ok {
			delete(w.renames, dir)
		}
		w.renamesMu.Unlock()

		if ok && time.Since(p.at) < renameWindow+time.Duration(w.opts.DebounceMS)*time.Millisecond {
			w.publish(events.NewFileRenamedEvent(p.oldPath, c.Path))
			return
		}
	}

	var size int64
	if c.Type != events.FileChangeDeleted {
		if info, err := os.Stat(filepath.Join(w.root, c.Path)); err == nil {
			size = info.Size()
		}
	}
	w.publish(events.NewFileChangedEvent(c.Path, c.Type, size))
}

func (w *Watcher) publish(e *events.FileChanged) {
	if err := w.publisher.Post(e); err != nil {
		log.Warn().Err(err).Str("path", e.Path).Str("change", string(e.Change)).Msg("failed to post file change")
		return
	}
	log.Debug().
		Str("path", e.Path).
		Str("change", string(e.Change)).
		Int64("size", e.Size).
		Msg("file change posted")
}

// included reports whether the base name matches an include glob.
func (w *Watcher) included(path string) bool {
	if len(w.opts.Include) == 0 {
		return true
	}
	base := filepath.Base(path)
	for _, pattern := range w.opts.Include {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// shouldIgnore reports whether any path component matches an ignore glob.
func (w *Watcher) shouldIgnore(path string) bool {
	for _, part := range splitPath(path) {
		for _, pattern := range w.opts.Ignore {
			if matched, _ := filepath.Match(pattern, part); matched {
				return true
			}
		}
	}
	return false
}

// splitPath splits a path into its components.
func splitPath(path string) []string {
	var parts []string
	for path != "" && path != "/" && path != "." {
		dir, file := filepath.Split(path)
		if file != "" {
			parts = append([]string{file}, parts...)
		}
		path = filepath.Clean(dir)
	}
	return parts
}
