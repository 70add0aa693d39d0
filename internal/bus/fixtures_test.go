package bus

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/brianly1003/evbus/internal/domain/events"
)

type myEvent struct{ ID string }

type otherEvent struct{ N int }

var errBoom = errors.New("boom")

// newTestBus creates a quiet bus with markers already added.
func newTestBus(t *testing.T, mode Mode, markers ...Marker) *Bus {
	t.Helper()
	b, err := New(mode, WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(markers) > 0 {
		if err := b.AddMarkers(markers...); err != nil {
			t.Fatalf("AddMarkers failed: %v", err)
		}
	}
	return b
}

// order collects handler calls across subscribers.
type order struct{ calls []string }

func (o *order) add(s string) { o.calls = append(o.calls, s) }

// --- method name subscribers ---

type recorder struct {
	name  string
	order *order
	got   []*myEvent
}

func (r *recorder) OnEvent(e *myEvent) {
	r.got = append(r.got, e)
	if r.order != nil {
		r.order.add(r.name)
	}
}

type failing struct {
	err   error
	calls int
}

func (f *failing) OnEvent(*myEvent) error {
	f.calls++
	return f.err
}

type panicking struct{}

func (panicking) OnEvent(*myEvent) { panic("handler exploded") }

type twoHandlers struct{ calls []string }

func (s *twoHandlers) HandleEvent(*myEvent) { s.calls = append(s.calls, "HandleEvent") }
func (s *twoHandlers) OnEvent(*myEvent)     { s.calls = append(s.calls, "OnEvent") }

type multiType struct {
	my    int
	other int
}

func (s *multiType) OnEvent(*myEvent)      { s.my++ }
func (s *multiType) OnOther(*otherEvent)   { s.other++ }
func (s *multiType) Unrelated(*otherEvent) {}

type noHandlers struct{}

func (noHandlers) Something(*myEvent) {}

type twoParams struct{}

func (twoParams) OnEvent(*myEvent, *otherEvent) {}

type noParams struct{}

func (noParams) OnEvent() {}

type variadic struct{}

func (variadic) OnEvent(...*myEvent) {}

type badReturn struct{}

func (badReturn) OnEvent(*myEvent) int { return 0 }

type stringParam struct{}

func (stringParam) OnEvent(string) {}

type timeParam struct{}

func (timeParam) OnEvent(*time.Time) {}

type sliceParam struct{}

func (sliceParam) OnEvent([]*myEvent) {}

type interfaceParam struct{}

func (interfaceParam) OnEvent(events.Event) {}

type pointerOnly struct{ _ int }

func (*pointerOnly) OnEvent(*myEvent) {}

type notComparable struct{ items []int }

func (notComparable) OnEvent(*myEvent) {}

type halfValid struct{}

func (halfValid) OnEvent(*myEvent) {}
func (halfValid) OnOther(string)   {}

type embedded struct{ recorder }

type embeddedPtr struct{ *recorder }

type embeddedTagged struct {
	single
	Own func(*otherEvent) `evbus:""`
}

// --- annotation subscribers ---

type tagged struct {
	OnMy    func(*myEvent) error `evbus:"subscribe"`
	OnOther func(*otherEvent)    `evbus:""`
	Plain   func(*myEvent)
}

type single struct {
	On func(*myEvent) error `evbus:""`
}

type taggedUnexported struct {
	onMy func(*myEvent) `evbus:""`
}

type taggedNotFunc struct {
	Name string `evbus:""`
}

type taggedNil struct {
	OnMy func(*myEvent) `evbus:""`
}

type taggedMixedKeys struct {
	A func(*myEvent) `evbus:""`
	B func(*myEvent) `listen:""`
	C func(*myEvent) `json:"c"`
}
