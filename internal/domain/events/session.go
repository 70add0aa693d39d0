package events

import "time"

// SessionStarted is posted when a session begins.
type SessionStarted struct {
	SessionID   string `json:"session_id" yaml:"session_id"`
	WorkspaceID string `json:"workspace_id,omitempty" yaml:"workspace_id,omitempty"`
	RepoName    string `json:"repo_name,omitempty" yaml:"repo_name,omitempty"`
}

// Type returns EventTypeSessionStarted.
func (e *SessionStarted) Type() EventType {
	return EventTypeSessionStarted
}

// SessionEnded is posted when a session ends.
type SessionEnded struct {
	SessionID string `json:"session_id" yaml:"session_id"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Type returns EventTypeSessionEnded.
func (e *SessionEnded) Type() EventType {
	return EventTypeSessionEnded
}

// Heartbeat is posted periodically so listeners can detect a stalled producer.
type Heartbeat struct {
	ServerTime string `json:"server_time" yaml:"server_time"`
	Sequence   int64  `json:"sequence" yaml:"sequence"`
}

// Type returns EventTypeHeartbeat.
func (e *Heartbeat) Type() EventType {
	return EventTypeHeartbeat
}

// NewSessionStartedEvent creates a new session_started event.
func NewSessionStartedEvent(sessionID, workspaceID, repoName string) *SessionStarted {
	return &SessionStarted{
		SessionID:   sessionID,
		WorkspaceID: workspaceID,
		RepoName:    repoName,
	}
}

// NewSessionEndedEvent creates a new session_ended event.
func NewSessionEndedEvent(sessionID, reason string) *SessionEnded {
	return &SessionEnded{
		SessionID: sessionID,
		Reason:    reason,
	}
}

// NewHeartbeatEvent creates a new heartbeat event.
func NewHeartbeatEvent(sequence int64) *Heartbeat {
	return &Heartbeat{
		ServerTime: time.Now().UTC().Format(time.RFC3339),
		Sequence:   sequence,
	}
}
