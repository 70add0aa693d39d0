package watcher

import (
	"sync"
	"time"

	"github.com/brianly1003/evbus/internal/domain/events"
)

// Change is a coalesced file change.
type Change struct {
	Path string
	Type events.FileChangeType
}

type pendingChange struct {
	change Change
	timer  *time.Timer
}

// Debouncer coalesces rapid changes to the same path into one callback
// after the path has been quiet for the window.
type Debouncer struct {
	window   time.Duration
	callback func(Change)

	mu      sync.Mutex
	pending map[string]*pendingChange
	stopped bool
}

// NewDebouncer creates a new debouncer with the given window and callback.
func NewDebouncer(window time.Duration, callback func(Change)) *Debouncer {
	return &Debouncer{
		window:   window,
		callback: callback,
		pending:  make(map[string]*pendingChange),
	}
}

// Add queues a change. A pending change for the same path is merged and
// its window restarts.
func (d *Debouncer) Add(path string, changeType events.FileChangeType) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if p, ok := d.pending[path]; ok {
		p.timer.Stop()
		p.change.Type = mergeChangeTypes(p.change.Type, changeType)
		p.timer = time.AfterFunc(d.window, func() { d.fire(path) })
		return
	}

	d.pending[path] = &pendingChange{
		change: Change{Path: path, Type: changeType},
		timer:  time.AfterFunc(d.window, func() { d.fire(path) }),
	}
}

// Pending returns the number of paths waiting for their window to expire.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Debouncer) fire(path string) {
	d.mu.Lock()
	p, ok := d.pending[path]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	stopped := d.stopped
	d.mu.Unlock()

	if !stopped && d.callback != nil {
		d.callback(p.change)
	}
}

// Stop drops all pending changes.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for _, p := range d.pending {
		p.timer.Stop()
	}
	d.pending = make(map[string]*pendingChange)
}

// mergeChangeTypes combines two change types, preferring the more significant one.
func mergeChangeTypes(existing, next events.FileChangeType) events.FileChangeType {
	// Delete takes precedence
	if next == events.FileChangeDeleted {
		return events.FileChangeDeleted
	}
	// A file created and then written is still new
	if existing == events.FileChangeCreated {
		return events.FileChangeCreated
	}
	return next
}
