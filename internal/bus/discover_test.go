package bus

import (
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/brianly1003/evbus/internal/domain"
	"github.com/brianly1003/evbus/internal/domain/events"
)

func TestIsStandardType(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want bool
	}{
		{"string", reflect.TypeFor[string](), true},
		{"int pointer", reflect.TypeFor[*int](), true},
		{"map", reflect.TypeFor[map[string]int](), true},
		{"slice of domain", reflect.TypeFor[[]*myEvent](), true},
		{"error", reflect.TypeFor[error](), true},
		{"time.Time", reflect.TypeFor[time.Time](), true},
		{"net/http request", reflect.TypeFor[*http.Request](), true},
		{"zerolog level", reflect.TypeFor[zerolog.Level](), false},
		{"local type", reflect.TypeFor[myEvent](), false},
		{"local pointer", reflect.TypeFor[**myEvent](), false},
		{"domain event", reflect.TypeFor[*events.FileChanged](), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStandardType(tt.typ); got != tt.want {
				t.Errorf("isStandardType(%s) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestIsStandardPath(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		modules []string
		want    bool
	}{
		{"fmt", "fmt", nil, true},
		{"nested std", "encoding/json", nil, true},
		{"internal std", "internal/poll", nil, true},
		{"dotted module", "github.com/acme/events", nil, false},
		{"dotless module", "myapp/events", []string{"myapp"}, false},
		{"dotless module root", "evbus", []string{"evbus"}, false},
		{"dotless module without build info", "myapp/events", nil, false},
		{"module named after std root", "net/events", []string{"net/events"}, false},
		{"std next to dotless module", "net/http", []string{"myapp"}, true},
		{"prefix is not a module boundary", "myappx/events", []string{"myapp"}, false},
		{"main", "main", nil, false},
		{"example", "example/events", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStandardPath(tt.pkg, tt.modules); got != tt.want {
				t.Errorf("isStandardPath(%q, %v) = %v, want %v", tt.pkg, tt.modules, got, tt.want)
			}
		})
	}
}

func TestCheckSignature(t *testing.T) {
	tests := []struct {
		name    string
		fn      any
		want    reflect.Type
		wantErr error
	}{
		{"no result", func(*myEvent) {}, reflect.TypeFor[*myEvent](), nil},
		{"error result", func(myEvent) error { return nil }, reflect.TypeFor[myEvent](), nil},
		{"two results", func(*myEvent) (int, error) { return 0, nil }, nil, domain.ErrHandlerSignature},
		{"bool result", func(*myEvent) bool { return true }, nil, domain.ErrHandlerSignature},
		{"no params", func() {}, nil, domain.ErrHandlerSignature},
		{"two params", func(*myEvent, *myEvent) {}, nil, domain.ErrHandlerSignature},
		{"variadic", func(...*myEvent) {}, nil, domain.ErrHandlerSignature},
		{"builtin", func(int) {}, nil, domain.ErrDisallowedEventType},
		{"any", func(any) {}, nil, domain.ErrDisallowedEventType},
		{"domain interface", func(events.Event) {}, nil, domain.ErrHandlerSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checkSignature(reflect.TypeOf(tt.fn))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected event type %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDiscover_MethodOrder(t *testing.T) {
	d := newDescriptors(ModeMethodName)
	d.add([]Marker{MethodName("OnEvent"), MethodName("HandleEvent")})

	handlers, err := discover(d, &twoHandlers{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(handlers) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(handlers))
	}
	// Method sets are sorted by name.
	if handlers[0].name != "HandleEvent" || handlers[1].name != "OnEvent" {
		t.Errorf("unexpected order: %s, %s", handlers[0].name, handlers[1].name)
	}
}

func TestDiscover_FieldsSkipNonStruct(t *testing.T) {
	d := newDescriptors(ModeAnnotation)
	d.add([]Marker{Tag("evbus")})

	handlers, err := discover(d, &order{})
	if err != nil || len(handlers) != 0 {
		t.Errorf("expected no handlers and no error, got %d, %v", len(handlers), err)
	}

	fn := func(*myEvent) {}
	handlers, err = discover(d, &fn)
	if err != nil || len(handlers) != 0 {
		t.Errorf("expected no handlers for a func pointer, got %d, %v", len(handlers), err)
	}
}

func TestHandler_Invoke(t *testing.T) {
	h := handler{name: "h", call: func(any) error { panic(errBoom) }}

	err := h.invoke(&myEvent{})

	var perr *domain.PanicError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *domain.PanicError, got %v", err)
	}
	if perr.Value != errBoom {
		t.Errorf("expected panic value %v, got %v", errBoom, perr.Value)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"annotation", ModeAnnotation, false},
		{"ANNOTATION", ModeAnnotation, false},
		{"tag", ModeAnnotation, false},
		{"method_name", ModeMethodName, false},
		{"METHOD-NAME", ModeMethodName, false},
		{" method ", ModeMethodName, false},
		{"", 0, true},
		{"reflection", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if got.String() != tt.want.String() {
				t.Errorf("String mismatch")
			}
		})
	}

	if Mode(9).Valid() {
		t.Error("expected Mode(9) to be invalid")
	}
}

func TestMarkers_Validate(t *testing.T) {
	valid := []Marker{Tag("evbus"), Tag("on-event"), MethodName("OnEvent"), MethodName("Handle2")}
	for _, m := range valid {
		if err := m.validate(); err != nil {
			t.Errorf("%T(%q): unexpected error: %v", m, m.String(), err)
		}
	}

	invalid := []Marker{Tag(""), Tag("a b"), Tag(`a"b`), Tag("a:b"), MethodName("2Go"), MethodName("on"), MethodName("On-Event")}
	for _, m := range invalid {
		if err := m.validate(); err == nil {
			t.Errorf("%T(%q): expected error", m, m.String())
		}
	}
}
