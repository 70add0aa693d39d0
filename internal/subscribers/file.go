package subscribers

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/brianly1003/evbus/internal/domain/events"
)

// ErrEmptyPath is returned for a file event without a path.
var ErrEmptyPath = errors.New("file event has an empty path")

// FileAuditor keeps an audit trail of file changes.
type FileAuditor struct {
	HandleFileChanged func(*events.FileChanged) error `evbus:"file_changed"`

	mu      sync.Mutex
	changes []events.FileChanged
	counts  map[events.FileChangeType]int
}

// NewFileAuditor creates an auditor with its handler field wired.
func NewFileAuditor() *FileAuditor {
	a := &FileAuditor{
		counts: make(map[events.FileChangeType]int),
	}
	a.HandleFileChanged = a.OnFileChanged
	return a
}

// OnFileChanged records the change.
func (a *FileAuditor) OnFileChanged(e *events.FileChanged) error {
	if e.Path == "" {
		return ErrEmptyPath
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.changes = append(a.changes, *e)
	a.counts[e.Change]++
	log.Debug().Str("path", e.Path).Str("change", string(e.Change)).Msg("File change audited")
	return nil
}

// Changes returns the audited changes in order.
func (a *FileAuditor) Changes() []events.FileChanged {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]events.FileChanged, len(a.changes))
	copy(out, a.changes)
	return out
}

// Count returns how many changes of the given kind were audited.
func (a *FileAuditor) Count(change events.FileChangeType) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts[change]
}

// State implements Stater.
func (a *FileAuditor) State() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()

	paths := make([]string, len(a.changes))
	for i, c := range a.changes {
		paths[i] = c.Path
	}
	counts := make(map[string]int, len(a.counts))
	for k, v := range a.counts {
		counts[string(k)] = v
	}
	return map[string]any{
		"paths":  paths,
		"counts": counts,
	}
}
