// Package subscribers provides ready-made subscribers for the evbus domain
// events. Every subscriber exposes On<Event> methods for method name mode
// and evbus-tagged func fields for annotation mode, so the same value can
// be registered on a bus in either mode.
package subscribers

import (
	"fmt"
	"sort"
)

// Tag is the struct tag key carried by handler fields.
const Tag = "evbus"

// Method names of the handlers defined in this package.
const (
	OnSessionStarted   = "OnSessionStarted"
	OnSessionEnded     = "OnSessionEnded"
	OnFileChanged      = "OnFileChanged"
	OnGitBranchChanged = "OnGitBranchChanged"
	OnHeartbeat        = "OnHeartbeat"
)

// MethodNames returns every handler method name used in this package.
func MethodNames() []string {
	return []string{OnSessionStarted, OnSessionEnded, OnFileChanged, OnGitBranchChanged, OnHeartbeat}
}

// Kind names a subscriber constructor in scenario files.
type Kind string

const (
	KindSessionTracker   Kind = "session_tracker"
	KindFileAuditor      Kind = "file_auditor"
	KindBranchWatcher    Kind = "branch_watcher"
	KindHeartbeatCounter Kind = "heartbeat_counter"
)

var constructors = map[Kind]func() any{
	KindSessionTracker:   func() any { return NewSessionTracker() },
	KindFileAuditor:      func() any { return NewFileAuditor() },
	KindBranchWatcher:    func() any { return NewBranchWatcher() },
	KindHeartbeatCounter: func() any { return NewHeartbeatCounter() },
}

// New creates a fresh subscriber of the given kind.
func New(kind Kind) (any, error) {
	ctor, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("unknown subscriber kind: %s", kind)
	}
	return ctor(), nil
}

// Kinds returns all known kinds, sorted by name.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(constructors))
	for k := range constructors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Stater is implemented by subscribers that can summarise what they saw.
type Stater interface {
	State() map[string]any
}
