// Package events defines the event types posted on the bus by evbus tooling.
package events

import (
	"fmt"
	"sort"
)

// EventType names an event in scenario files and persisted ledgers.
type EventType string

const (
	// File events
	EventTypeFileChanged EventType = "file_changed"

	// Git events
	EventTypeGitBranchChanged EventType = "git_branch_changed"

	// Session events
	EventTypeSessionStarted EventType = "session_started"
	EventTypeSessionEnded   EventType = "session_ended"

	// Connection events
	EventTypeHeartbeat EventType = "heartbeat"
)

// Event is implemented by every event type in this package.
// The bus itself dispatches on the concrete Go type; Type only gives
// the event a stable name outside the process.
type Event interface {
	Type() EventType
}

// factories creates a zero value of each event type, ready for decoding.
var factories = map[EventType]func() Event{
	EventTypeFileChanged:      func() Event { return &FileChanged{} },
	EventTypeGitBranchChanged: func() Event { return &GitBranchChanged{} },
	EventTypeSessionStarted:   func() Event { return &SessionStarted{} },
	EventTypeSessionEnded:     func() Event { return &SessionEnded{} },
	EventTypeHeartbeat:        func() Event { return &Heartbeat{} },
}

// New returns a pointer to a zero value of the named event type.
func New(eventType EventType) (Event, error) {
	factory, ok := factories[eventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
	return factory(), nil
}

// Types returns all known event types, sorted by name.
func Types() []EventType {
	types := make([]EventType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
