package events

// GitBranchChanged is posted when the checked-out branch changes.
type GitBranchChanged struct {
	FromBranch string `json:"from_branch" yaml:"from_branch"`
	ToBranch   string `json:"to_branch" yaml:"to_branch"`
	SessionID  string `json:"session_id,omitempty" yaml:"session_id,omitempty"`
}

// Type returns EventTypeGitBranchChanged.
func (e *GitBranchChanged) Type() EventType {
	return EventTypeGitBranchChanged
}

// NewGitBranchChangedEvent creates a new git_branch_changed event.
func NewGitBranchChangedEvent(fromBranch, toBranch, sessionID string) *GitBranchChanged {
	return &GitBranchChanged{
		FromBranch: fromBranch,
		ToBranch:   toBranch,
		SessionID:  sessionID,
	}
}
