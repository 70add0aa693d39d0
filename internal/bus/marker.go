package bus

import (
	"fmt"
	"go/token"
	"reflect"
	"unicode"

	"github.com/brianly1003/evbus/internal/domain"
)

// Marker identifies handlers under one mode. It is implemented by Tag and
// MethodName only.
type Marker interface {
	// Mode returns the mode this marker kind belongs to.
	Mode() Mode
	String() string

	validate() error
}

// Tag is a struct tag key. In ModeAnnotation a func-typed field carrying
// the key (with any value) is a handler:
//
//	type Tracker struct {
//		OnStart func(*events.SessionStarted) error `evbus:"subscribe"`
//	}
type Tag string

// Mode returns ModeAnnotation.
func (t Tag) Mode() Mode { return ModeAnnotation }

func (t Tag) String() string { return string(t) }

// validate follows the key syntax reflect.StructTag.Lookup understands.
func (t Tag) validate() error {
	if t == "" {
		return fmt.Errorf("tag key is empty")
	}
	for _, r := range string(t) {
		if r <= ' ' || r == ':' || r == '"' || r == 0x7f || !unicode.IsPrint(r) {
			return fmt.Errorf("tag key %q contains %q", string(t), r)
		}
	}
	return nil
}

// in reports whether the struct tag carries this key.
func (t Tag) in(tag reflect.StructTag) bool {
	_, ok := tag.Lookup(string(t))
	return ok
}

// MethodName is the exact name of a handler method in ModeMethodName.
type MethodName string

// Mode returns ModeMethodName.
func (n MethodName) Mode() Mode { return ModeMethodName }

func (n MethodName) String() string { return string(n) }

// validate requires an exported identifier; unexported methods are not
// visible through reflection and could never match.
func (n MethodName) validate() error {
	if n == "" {
		return fmt.Errorf("method name is empty")
	}
	if !token.IsIdentifier(string(n)) {
		return fmt.Errorf("method name %q is not an identifier", string(n))
	}
	if !token.IsExported(string(n)) {
		return fmt.Errorf("method name %q is not exported", string(n))
	}
	return nil
}

// descriptors is the append-only marker set of the active mode.
type descriptors struct {
	mode    Mode
	markers []Marker
	seen    map[Marker]struct{}
}

func newDescriptors(mode Mode) *descriptors {
	return &descriptors{
		mode: mode,
		seen: make(map[Marker]struct{}),
	}
}

// check validates a batch without modifying the set.
func (d *descriptors) check(op string, markers []Marker) error {
	mode := d.mode.String()
	if len(markers) == 0 {
		return domain.NewConfigurationError(op, mode, domain.ErrNoMarkers)
	}
	for i, m := range markers {
		if m == nil {
			return domain.NewConfigurationError(op, mode,
				fmt.Errorf("%w: marker %d is nil", domain.ErrInvalidMarker, i))
		}
		if m.Mode() != d.mode {
			return domain.NewConfigurationError(op, mode,
				fmt.Errorf("%w: %T %q is a %s marker", domain.ErrWrongMode, m, m.String(), m.Mode()))
		}
		if err := m.validate(); err != nil {
			return domain.NewConfigurationError(op, mode,
				fmt.Errorf("%w: %v", domain.ErrInvalidMarker, err))
		}
	}
	return nil
}

// add appends markers not already present, keeping insertion order.
func (d *descriptors) add(markers []Marker) {
	for _, m := range markers {
		if _, ok := d.seen[m]; ok {
			continue
		}
		d.seen[m] = struct{}{}
		d.markers = append(d.markers, m)
	}
}

func (d *descriptors) empty() bool {
	return len(d.markers) == 0
}

// hasMethod reports whether name is a configured method name.
func (d *descriptors) hasMethod(name string) bool {
	_, ok := d.seen[MethodName(name)]
	return ok
}

// hasTag reports whether the struct tag carries any configured key.
func (d *descriptors) hasTag(tag reflect.StructTag) bool {
	for _, m := range d.markers {
		if t, ok := m.(Tag); ok && t.in(tag) {
			return true
		}
	}
	return false
}

// list returns a copy of the configured markers.
func (d *descriptors) list() []Marker {
	out := make([]Marker, len(d.markers))
	copy(out, d.markers)
	return out
}
