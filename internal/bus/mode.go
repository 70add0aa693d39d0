package bus

import (
	"fmt"
	"strings"
)

// Mode selects how Register recognises handlers on a subscriber.
type Mode int

const (
	// ModeAnnotation recognises exported func-typed struct fields that carry
	// one of the configured struct tag keys.
	ModeAnnotation Mode = iota + 1

	// ModeMethodName recognises exported methods whose name is exactly one
	// of the configured method names.
	ModeMethodName
)

// String returns the mode name used in config and scenario files.
func (m Mode) String() string {
	switch m {
	case ModeAnnotation:
		return "annotation"
	case ModeMethodName:
		return "method_name"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeAnnotation || m == ModeMethodName
}

// ParseMode parses a mode name. Matching is case-insensitive and accepts
// "-" in place of "_".
func ParseMode(s string) (Mode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "annotation", "tag":
		return ModeAnnotation, nil
	case "method_name", "method":
		return ModeMethodName, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want annotation or method_name)", s)
	}
}
