package subscribers

import (
	"fmt"
	"sync"

	"github.com/brianly1003/evbus/internal/domain/events"
)

// BranchWatcher follows the checked-out branch.
type BranchWatcher struct {
	HandleBranchChanged func(*events.GitBranchChanged) error `evbus:"git_branch_changed"`

	mu       sync.Mutex
	current  string
	switches int
}

// NewBranchWatcher creates a watcher with its handler field wired.
func NewBranchWatcher() *BranchWatcher {
	w := &BranchWatcher{}
	w.HandleBranchChanged = w.OnGitBranchChanged
	return w
}

// OnGitBranchChanged moves to the new branch. The event's FromBranch must
// match the branch last seen, if any.
func (w *BranchWatcher) OnGitBranchChanged(e *events.GitBranchChanged) error {
	if e.ToBranch == "" {
		return fmt.Errorf("branch change from %q has no target branch", e.FromBranch)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current != "" && e.FromBranch != w.current {
		return fmt.Errorf("branch change from %q but current branch is %q", e.FromBranch, w.current)
	}
	w.current = e.ToBranch
	w.switches++
	return nil
}

// Current returns the last branch switched to.
func (w *BranchWatcher) Current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// State implements Stater.
func (w *BranchWatcher) State() map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return map[string]any{
		"current":  w.current,
		"switches": w.switches,
	}
}
