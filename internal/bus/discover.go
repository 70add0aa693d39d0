package bus

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/brianly1003/evbus/internal/domain"
)

var errorType = reflect.TypeFor[error]()

// handler is a validated, invokable event handler.
type handler struct {
	name      string
	eventType reflect.Type
	call      func(event any) error
}

// invoke runs the handler, converting a panic into a *domain.PanicError.
func (h handler) invoke(event any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return h.call(event)
}

// reflectCall adapts a func value with a validated signature.
func reflectCall(fn reflect.Value) func(event any) error {
	return func(event any) error {
		out := fn.Call([]reflect.Value{reflect.ValueOf(event)})
		if len(out) == 1 && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	}
}

// discover finds and validates every handler of subscriber under the
// active mode. Any invalid candidate fails the whole scan.
func discover(d *descriptors, subscriber any) ([]handler, error) {
	switch d.mode {
	case ModeAnnotation:
		return discoverFields(d, subscriber)
	case ModeMethodName:
		return discoverMethods(d, subscriber)
	default:
		return nil, fmt.Errorf("unsupported mode: %s", d.mode)
	}
}

// discoverMethods scans the exported method set of the subscriber's type,
// which includes methods promoted from embedded fields.
func discoverMethods(d *descriptors, subscriber any) ([]handler, error) {
	v := reflect.ValueOf(subscriber)
	t := v.Type()

	var handlers []handler
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !d.hasMethod(m.Name) {
			continue
		}

		fn := v.Method(i)
		eventType, err := checkSignature(fn.Type())
		if err != nil {
			return nil, handlerError(m.Name, err)
		}

		handlers = append(handlers, handler{
			name:      m.Name,
			eventType: eventType,
			call:      reflectCall(fn),
		})
	}

	// A configured method declared on the pointer receiver cannot be called
	// through a value.
	if t.Kind() != reflect.Pointer {
		pt := reflect.PointerTo(t)
		for _, marker := range d.markers {
			name := marker.String()
			if _, ok := t.MethodByName(name); ok {
				continue
			}
			if _, ok := pt.MethodByName(name); ok {
				return nil, handlerError(name, fmt.Errorf("%w: method has a pointer receiver but a %s value was registered",
					domain.ErrHandlerNotPublic, t))
			}
		}
	}

	return handlers, nil
}

// discoverFields scans the direct fields of a struct (or pointer to struct)
// for func values carrying a configured tag key.
func discoverFields(d *descriptors, subscriber any) ([]handler, error) {
	v := reflect.ValueOf(subscriber)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, nil
	}
	t := v.Type()

	var handlers []handler
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous || !d.hasTag(f.Tag) {
			continue
		}

		if !f.IsExported() {
			return nil, handlerError(f.Name, fmt.Errorf("%w: field is unexported", domain.ErrHandlerNotPublic))
		}
		if f.Type.Kind() != reflect.Func {
			return nil, handlerError(f.Name, fmt.Errorf("%w: tagged field is %s, not a func", domain.ErrHandlerSignature, f.Type))
		}

		fn := v.Field(i)
		if fn.IsNil() {
			return nil, handlerError(f.Name, fmt.Errorf("%w: tagged field is nil", domain.ErrNilHandler))
		}

		eventType, err := checkSignature(f.Type)
		if err != nil {
			return nil, handlerError(f.Name, err)
		}

		handlers = append(handlers, handler{
			name:      f.Name,
			eventType: eventType,
			call:      reflectCall(fn),
		})
	}
	return handlers, nil
}

// checkSignature validates a handler func type (receiver excluded) and
// returns its event type.
func checkSignature(ft reflect.Type) (reflect.Type, error) {
	if ft.IsVariadic() || ft.NumIn() != 1 {
		return nil, fmt.Errorf("%w: handler must declare exactly one parameter, the event; got %s",
			domain.ErrHandlerSignature, ft)
	}

	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) != errorType {
			return nil, fmt.Errorf("%w: handler may only return error; got %s", domain.ErrHandlerSignature, ft)
		}
	default:
		return nil, fmt.Errorf("%w: handler may only return error; got %s", domain.ErrHandlerSignature, ft)
	}

	eventType := ft.In(0)
	if err := checkEventType(eventType); err != nil {
		return nil, err
	}
	return eventType, nil
}

// checkEventType rejects event types the bus can never route to a handler
// meaningfully: standard library and builtin types, and interfaces (a
// posted event's dynamic type is always concrete).
func checkEventType(t reflect.Type) error {
	if isStandardType(t) {
		return fmt.Errorf("%w: %s", domain.ErrDisallowedEventType, t)
	}
	if t.Kind() == reflect.Interface {
		return fmt.Errorf("%w: event parameter %s is an interface; events are matched by concrete type",
			domain.ErrHandlerSignature, t)
	}
	return nil
}

// isStandardType reports whether t (after pointer indirection) is a builtin,
// an unnamed composite, or declared in the standard library.
func isStandardType(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	pkg := t.PkgPath()
	if pkg == "" {
		return true
	}
	return isStandardPath(pkg, buildModules())
}

// stdRoots holds the first element of every standard library import path.
var stdRoots = map[string]bool{
	"archive": true, "bufio": true, "bytes": true, "cmp": true, "compress": true,
	"container": true, "context": true, "crypto": true, "database": true,
	"debug": true, "embed": true, "encoding": true, "errors": true, "expvar": true,
	"flag": true, "fmt": true, "go": true, "hash": true, "html": true,
	"image": true, "index": true, "internal": true, "io": true, "iter": true,
	"log": true, "maps": true, "math": true, "mime": true, "net": true,
	"os": true, "path": true, "plugin": true, "reflect": true, "regexp": true,
	"runtime": true, "slices": true, "sort": true, "strconv": true,
	"strings": true, "structs": true, "sync": true, "syscall": true,
	"testing": true, "text": true, "time": true, "unicode": true,
	"unique": true, "unsafe": true, "vendor": true, "weak": true,
}

// isStandardPath reports whether the import path pkg belongs to the
// standard library. Paths inside one of modules never do, so a module
// named after a standard root (or any dotless module) keeps its types.
func isStandardPath(pkg string, modules []string) bool {
	for _, mod := range modules {
		if mod != "" && (pkg == mod || strings.HasPrefix(pkg, mod+"/")) {
			return false
		}
	}
	first, _, _ := strings.Cut(pkg, "/")
	return stdRoots[first]
}

// buildModules lists the main module and its dependencies from the
// binary's build info.
var buildModules = sync.OnceValue(func() []string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	mods := []string{info.Main.Path}
	for _, dep := range info.Deps {
		mods = append(mods, dep.Path)
		if dep.Replace != nil {
			mods = append(mods, dep.Replace.Path)
		}
	}
	return mods
})

// handlerError tags a discovery failure with the handler name. The caller
// adds subscriber and mode context.
func handlerError(name string, err error) error {
	return &discoveryError{handler: name, err: err}
}

type discoveryError struct {
	handler string
	err     error
}

func (e *discoveryError) Error() string {
	return e.handler + ": " + e.err.Error()
}

func (e *discoveryError) Unwrap() error {
	return e.err
}
