package events

// FileChangeType represents the type of file change.
type FileChangeType string

const (
	FileChangeCreated  FileChangeType = "created"
	FileChangeModified FileChangeType = "modified"
	FileChangeDeleted  FileChangeType = "deleted"
	FileChangeRenamed  FileChangeType = "renamed"
)

// FileChanged is posted when a watched file changes.
type FileChanged struct {
	Path    string         `json:"path" yaml:"path"`
	Change  FileChangeType `json:"change" yaml:"change"`
	Size    int64          `json:"size,omitempty" yaml:"size,omitempty"`
	OldPath string         `json:"old_path,omitempty" yaml:"old_path,omitempty"`
}

// Type returns EventTypeFileChanged.
func (e *FileChanged) Type() EventType {
	return EventTypeFileChanged
}

// NewFileChangedEvent creates a new file_changed event.
func NewFileChangedEvent(path string, change FileChangeType, size int64) *FileChanged {
	return &FileChanged{
		Path:   path,
		Change: change,
		Size:   size,
	}
}

// NewFileRenamedEvent creates a new file_changed event for renamed files.
func NewFileRenamedEvent(oldPath, newPath string) *FileChanged {
	return &FileChanged{
		Path:    newPath,
		Change:  FileChangeRenamed,
		OldPath: oldPath,
	}
}
