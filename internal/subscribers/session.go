package subscribers

import (
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/brianly1003/evbus/internal/domain/events"
)

// ErrUnknownSession is returned when a session ends that never started.
var ErrUnknownSession = errors.New("session was never started")

// SessionTracker tracks which sessions are currently active.
type SessionTracker struct {
	HandleStarted func(*events.SessionStarted) error `evbus:"session_started"`
	HandleEnded   func(*events.SessionEnded) error   `evbus:"session_ended"`

	mu     sync.RWMutex
	active map[string]*events.SessionStarted
	ended  []string
}

// NewSessionTracker creates a tracker with its handler fields wired.
func NewSessionTracker() *SessionTracker {
	t := &SessionTracker{
		active: make(map[string]*events.SessionStarted),
	}
	t.HandleStarted = t.OnSessionStarted
	t.HandleEnded = t.OnSessionEnded
	return t
}

// OnSessionStarted marks the session active.
func (t *SessionTracker) OnSessionStarted(e *events.SessionStarted) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active[e.SessionID] = e
	log.Debug().Str("session_id", e.SessionID).Str("repo", e.RepoName).Msg("Session started")
	return nil
}

// OnSessionEnded marks the session ended. Ending an unknown session fails.
func (t *SessionTracker) OnSessionEnded(e *events.SessionEnded) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.active[e.SessionID]; !ok {
		return ErrUnknownSession
	}
	delete(t.active, e.SessionID)
	t.ended = append(t.ended, e.SessionID)
	log.Debug().Str("session_id", e.SessionID).Str("reason", e.Reason).Msg("Session ended")
	return nil
}

// Active returns the IDs of active sessions, sorted.
func (t *SessionTracker) Active() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.active))
	for id := range t.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Ended returns the IDs of ended sessions in the order they ended.
func (t *SessionTracker) Ended() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, len(t.ended))
	copy(out, t.ended)
	return out
}

// State implements Stater.
func (t *SessionTracker) State() map[string]any {
	return map[string]any{
		"active": t.Active(),
		"ended":  t.Ended(),
	}
}
