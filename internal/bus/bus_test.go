package bus

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/brianly1003/evbus/internal/domain"
	"github.com/brianly1003/evbus/internal/testutil"
)

// --- Construction and markers ---

func TestNew_InvalidMode(t *testing.T) {
	_, err := New(Mode(0))
	testutil.AssertErrorIs(t, err, "New(0)", domain.ErrConfiguration)
}

func TestBus_AddMarkers(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		markers []Marker
		wantErr error
	}{
		{"method names", ModeMethodName, []Marker{MethodName("OnEvent"), MethodName("Handle")}, nil},
		{"tags", ModeAnnotation, []Marker{Tag("evbus"), Tag("listen")}, nil},
		{"empty batch", ModeMethodName, nil, domain.ErrNoMarkers},
		{"nil marker", ModeMethodName, []Marker{MethodName("OnEvent"), nil}, domain.ErrInvalidMarker},
		{"tag in method mode", ModeMethodName, []Marker{Tag("evbus")}, domain.ErrWrongMode},
		{"method in annotation mode", ModeAnnotation, []Marker{MethodName("OnEvent")}, domain.ErrWrongMode},
		{"empty method name", ModeMethodName, []Marker{MethodName("")}, domain.ErrInvalidMarker},
		{"unexported method name", ModeMethodName, []Marker{MethodName("onEvent")}, domain.ErrInvalidMarker},
		{"method name with space", ModeMethodName, []Marker{MethodName("On Event")}, domain.ErrInvalidMarker},
		{"empty tag", ModeAnnotation, []Marker{Tag("")}, domain.ErrInvalidMarker},
		{"tag with colon", ModeAnnotation, []Marker{Tag("ev:bus")}, domain.ErrInvalidMarker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBus(t, tt.mode)
			err := b.AddMarkers(tt.markers...)

			if tt.wantErr == nil {
				testutil.AssertNoError(t, err, "AddMarkers")
				testutil.AssertEqual(t, len(tt.markers), len(b.Markers()), "marker count")
				return
			}
			testutil.AssertErrorIs(t, err, "AddMarkers", domain.ErrConfiguration, tt.wantErr)
			testutil.AssertEqual(t, 0, len(b.Markers()), "marker count after rejected batch")
		})
	}
}

func TestBus_AddMarkers_Accumulates(t *testing.T) {
	b := newTestBus(t, ModeMethodName)

	testutil.AssertNoError(t, b.AddMethodNames("OnEvent"), "first batch")
	testutil.AssertNoError(t, b.AddMethodNames("OnOther", "OnEvent"), "second batch")
	testutil.AssertNoError(t, b.AddMarker(MethodName("HandleEvent")), "single marker")

	want := []Marker{MethodName("OnEvent"), MethodName("OnOther"), MethodName("HandleEvent")}
	if got := b.Markers(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected markers %v, got %v", want, got)
	}
}

func TestBus_AddTags_WrongMode(t *testing.T) {
	b := newTestBus(t, ModeMethodName)
	testutil.AssertErrorIs(t, b.AddTags("evbus"), "AddTags", domain.ErrWrongMode)
}

// --- Register ---

func TestBus_Register_Validation(t *testing.T) {
	var nilRecorder *recorder

	tests := []struct {
		name       string
		subscriber any
		wantErr    error
	}{
		{"nil", nil, domain.ErrNilSubscriber},
		{"nil pointer", nilRecorder, domain.ErrNilSubscriber},
		{"no handlers", noHandlers{}, domain.ErrNoHandlers},
		{"two params", twoParams{}, domain.ErrHandlerSignature},
		{"no params", noParams{}, domain.ErrHandlerSignature},
		{"variadic", variadic{}, domain.ErrHandlerSignature},
		{"non-error result", badReturn{}, domain.ErrHandlerSignature},
		{"string param", stringParam{}, domain.ErrDisallowedEventType},
		{"stdlib param", timeParam{}, domain.ErrDisallowedEventType},
		{"slice param", sliceParam{}, domain.ErrDisallowedEventType},
		{"interface param", interfaceParam{}, domain.ErrHandlerSignature},
		{"pointer receiver on value", pointerOnly{}, domain.ErrHandlerNotPublic},
		{"not comparable", notComparable{}, domain.ErrNotComparable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
			err := b.Register(tt.subscriber)

			testutil.AssertErrorIs(t, err, "Register", domain.ErrValidation, tt.wantErr)
			if tt.subscriber != nil && reflect.ValueOf(tt.subscriber).Comparable() {
				testutil.AssertFalse(t, b.IsRegistered(tt.subscriber), "registered after failure")
			}
		})
	}
}

func TestBus_Register_NoMarkers(t *testing.T) {
	b := newTestBus(t, ModeMethodName)
	err := b.Register(&recorder{})

	testutil.AssertErrorIs(t, err, "Register", domain.ErrValidation, domain.ErrConfiguration, domain.ErrMarkersRequired)
}

func TestBus_Register_Duplicate(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	sub := &recorder{}

	testutil.AssertNoError(t, b.Register(sub), "first Register")
	testutil.AssertErrorIs(t, b.Register(sub), "second Register", domain.ErrValidation, domain.ErrAlreadyRegistered)
	testutil.AssertEqual(t, 1, b.BindingCount(sub), "binding count")
}

func TestBus_Register_DistinctPointersAreDistinct(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))

	testutil.AssertNoError(t, b.Register(&recorder{}), "first")
	testutil.AssertNoError(t, b.Register(&recorder{}), "second")
	testutil.AssertEqual(t, 2, b.ListenerCount(reflect.TypeOf(&myEvent{})), "listener count")
}

func TestBus_Register_AllOrNothing(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"), MethodName("OnOther"))

	err := b.Register(halfValid{})

	testutil.AssertErrorIs(t, err, "Register", domain.ErrDisallowedEventType)
	testutil.AssertFalse(t, b.IsRegistered(halfValid{}), "registered")
	testutil.AssertEqual(t, 0, b.ListenerCount(reflect.TypeOf(&myEvent{})), "listener count")
}

func TestBus_Register_ErrorContext(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	err := b.Register(twoParams{})

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *domain.ValidationError, got %T", err)
	}
	testutil.AssertEqual(t, "bus.twoParams", verr.Subscriber, "subscriber")
	testutil.AssertEqual(t, "method_name", verr.Mode, "mode")
	testutil.AssertContains(t, err.Error(), "OnEvent", "error names the handler")
}

func TestBus_Register_MultipleTypes(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"), MethodName("OnOther"))
	sub := &multiType{}

	testutil.AssertNoError(t, b.Register(sub), "Register")
	testutil.AssertEqual(t, 2, b.BindingCount(sub), "binding count")

	_ = b.Post(&myEvent{})
	_ = b.Post(&otherEvent{})
	_ = b.Post(&otherEvent{})

	testutil.AssertEqual(t, 1, sub.my, "myEvent calls")
	testutil.AssertEqual(t, 2, sub.other, "otherEvent calls")
}

func TestBus_Register_PromotedMethod(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	sub := &embedded{}

	testutil.AssertNoError(t, b.Register(sub), "Register")
	testutil.AssertNoError(t, b.Post(&myEvent{ID: "a"}), "Post")
	testutil.AssertEqual(t, 1, len(sub.got), "deliveries")
}

func TestBus_Register_PromotedFromRegisteredSubscriber(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	inner := &recorder{name: "inner"}
	outer := &embeddedPtr{recorder: inner}

	testutil.AssertNoError(t, b.Register(inner), "Register inner")
	testutil.AssertNoError(t, b.Register(outer), "Register outer")
	testutil.AssertEqual(t, 1, b.BindingCount(inner), "inner bindings")
	testutil.AssertEqual(t, 1, b.BindingCount(outer), "outer bindings")

	// Both bindings run the same method on the same value.
	testutil.AssertNoError(t, b.Post(&myEvent{ID: "a"}), "Post")
	testutil.AssertEqual(t, 2, len(inner.got), "deliveries to the embedded value")

	testutil.AssertNoError(t, b.Unregister(inner), "Unregister inner")
	testutil.AssertNoError(t, b.Post(&myEvent{ID: "b"}), "Post after Unregister")
	testutil.AssertEqual(t, 3, len(inner.got), "outer still bound")
}

// --- Annotation mode ---

func TestBus_Annotation_Register(t *testing.T) {
	b := newTestBus(t, ModeAnnotation, Tag("evbus"))
	var my, other int
	sub := &tagged{
		OnMy:    func(*myEvent) error { my++; return nil },
		OnOther: func(*otherEvent) { other++ },
		Plain:   func(*myEvent) { t.Error("untagged field must not be called") },
	}

	testutil.AssertNoError(t, b.Register(sub), "Register")
	testutil.AssertEqual(t, 2, b.BindingCount(sub), "binding count")

	testutil.AssertNoError(t, b.Post(&myEvent{}), "Post myEvent")
	testutil.AssertNoError(t, b.Post(&otherEvent{}), "Post otherEvent")
	testutil.AssertEqual(t, 1, my, "OnMy calls")
	testutil.AssertEqual(t, 1, other, "OnOther calls")

	last, ok := b.LastPosted()
	testutil.AssertTrue(t, ok, "ledger has entries")
	testutil.AssertEqual(t, "OnOther", last.Handler, "handler name")
}

func TestBus_Annotation_SkipsEmbeddedFields(t *testing.T) {
	b := newTestBus(t, ModeAnnotation, Tag("evbus"))
	var own int
	sub := &embeddedTagged{
		single: single{On: func(*myEvent) error {
			t.Error("embedded field must not be bound")
			return nil
		}},
		Own: func(*otherEvent) { own++ },
	}

	testutil.AssertNoError(t, b.Register(sub), "Register")
	testutil.AssertEqual(t, 1, b.BindingCount(sub), "binding count")
	testutil.AssertNoError(t, b.Post(&myEvent{}), "Post myEvent")
	testutil.AssertNoError(t, b.Post(&otherEvent{}), "Post otherEvent")
	testutil.AssertEqual(t, 1, own, "own field calls")
}

func TestBus_Annotation_Validation(t *testing.T) {
	tests := []struct {
		name       string
		subscriber any
		wantErr    error
	}{
		{"unexported field", &taggedUnexported{}, domain.ErrHandlerNotPublic},
		{"not a func", &taggedNotFunc{}, domain.ErrHandlerSignature},
		{"nil func", &taggedNil{}, domain.ErrNilHandler},
		{"no tagged fields", &recorder{}, domain.ErrNoHandlers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBus(t, ModeAnnotation, Tag("evbus"))
			testutil.AssertErrorIs(t, b.Register(tt.subscriber), "Register", domain.ErrValidation, tt.wantErr)
		})
	}
}

func TestBus_Annotation_MultipleKeys(t *testing.T) {
	b := newTestBus(t, ModeAnnotation, Tag("evbus"), Tag("listen"))
	var calls []string
	sub := &taggedMixedKeys{
		A: func(*myEvent) { calls = append(calls, "A") },
		B: func(*myEvent) { calls = append(calls, "B") },
		C: func(*myEvent) { calls = append(calls, "C") },
	}

	testutil.AssertNoError(t, b.Register(sub), "Register")
	testutil.AssertNoError(t, b.Post(&myEvent{}), "Post")

	if !reflect.DeepEqual(calls, []string{"A", "B"}) {
		t.Errorf("expected [A B], got %v", calls)
	}
}

// --- Unregister ---

func TestBus_Unregister(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	sub := &recorder{}
	_ = b.Register(sub)

	testutil.AssertNoError(t, b.Unregister(sub), "Unregister")
	testutil.AssertFalse(t, b.IsRegistered(sub), "still registered")
	testutil.AssertEqual(t, 0, b.BindingCount(sub), "binding count")
	testutil.AssertEqual(t, 0, len(b.EventTypes()), "empty buckets are pruned")

	err := b.Post(&myEvent{})
	testutil.AssertErrorIs(t, err, "Post after Unregister", domain.ErrDispatch, domain.ErrNoListeners)
	testutil.AssertEqual(t, 0, len(sub.got), "deliveries after Unregister")
}

func TestBus_Unregister_NotRegistered(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	sub := &recorder{}

	testutil.AssertErrorIs(t, b.Unregister(sub), "never registered", domain.ErrValidation, domain.ErrNotRegistered)
	testutil.AssertErrorIs(t, b.Unregister(nil), "nil", domain.ErrNotRegistered)
	testutil.AssertErrorIs(t, b.Unregister(notComparable{}), "not comparable", domain.ErrNotRegistered)

	_ = b.Register(sub)
	_ = b.Unregister(sub)
	testutil.AssertErrorIs(t, b.Unregister(sub), "twice", domain.ErrNotRegistered)
}

func TestBus_Unregister_ThenRegisterAgain(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	sub := &recorder{}

	_ = b.Register(sub)
	_ = b.Unregister(sub)
	testutil.AssertNoError(t, b.Register(sub), "Register after Unregister")
	testutil.AssertNoError(t, b.Post(&myEvent{}), "Post")
	testutil.AssertEqual(t, 1, len(sub.got), "deliveries")
}

func TestBus_Unregister_KeepsOtherSubscribers(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	first, second := &recorder{}, &recorder{}
	_ = b.Register(first)
	_ = b.Register(second)

	_ = b.Unregister(first)
	testutil.AssertNoError(t, b.Post(&myEvent{}), "Post")

	testutil.AssertEqual(t, 0, len(first.got), "first deliveries")
	testutil.AssertEqual(t, 1, len(second.got), "second deliveries")
}

// --- Post ---

func TestBus_Post_RegistrationOrder(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	o := &order{}
	for _, name := range []string{"a", "b", "c"} {
		_ = b.Register(&recorder{name: name, order: o})
	}

	testutil.AssertNoError(t, b.Post(&myEvent{}), "Post")

	if !reflect.DeepEqual(o.calls, []string{"a", "b", "c"}) {
		t.Errorf("expected [a b c], got %v", o.calls)
	}
}

func TestBus_Post_TwoHandlersOneSubscriber(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"), MethodName("HandleEvent"))
	sub := &twoHandlers{}
	_ = b.Register(sub)

	testutil.AssertNoError(t, b.Post(&myEvent{}), "Post")

	testutil.AssertEqual(t, 2, len(sub.calls), "calls")
	testutil.AssertEqual(t, 2, len(b.AllPosted()), "ledger entries")
}

func TestBus_Post_Nil(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	var nilEvent *myEvent

	testutil.AssertErrorIs(t, b.Post(nil), "nil", domain.ErrValidation, domain.ErrNilEvent)
	testutil.AssertErrorIs(t, b.Post(nilEvent), "nil pointer", domain.ErrValidation, domain.ErrNilEvent)
}

func TestBus_Post_NoListeners(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))

	err := b.Post(&otherEvent{})

	testutil.AssertErrorIs(t, err, "Post", domain.ErrDispatch, domain.ErrNoListeners)
	testutil.AssertContains(t, err.Error(), "otherEvent", "error names the event type")
	testutil.AssertFalse(t, b.HasPosted(), "ledger written")
}

func TestBus_Post_ExactTypeOnly(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	sub := &recorder{}
	_ = b.Register(sub)

	err := b.Post(myEvent{})

	testutil.AssertErrorIs(t, err, "value instead of pointer", domain.ErrNoListeners)
	testutil.AssertEqual(t, 0, len(sub.got), "deliveries")
}

func TestBus_Post_FailureWithoutHook(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	first := &recorder{}
	bad := &failing{err: errBoom}
	last := &recorder{}
	_ = b.Register(first)
	_ = b.Register(bad)
	_ = b.Register(last)

	err := b.Post(&myEvent{})

	testutil.AssertErrorIs(t, err, "Post", domain.ErrDispatch, errBoom)
	testutil.AssertEqual(t, errBoom, domain.Cause(err), "cause")

	var herr *domain.HandlerError
	if !errors.As(err, &herr) {
		t.Fatalf("expected *domain.HandlerError in chain, got %v", err)
	}
	testutil.AssertEqual(t, "OnEvent", herr.Handler, "handler")
	testutil.AssertEqual(t, "*bus.failing", herr.Subscriber, "subscriber")

	testutil.AssertEqual(t, 1, len(first.got), "first deliveries")
	testutil.AssertEqual(t, 0, len(last.got), "deliveries after failure")
	testutil.AssertEqual(t, 1, len(b.AllPosted()), "ledger entries")
}

func TestBus_Post_FailureWithHook(t *testing.T) {
	hook := &testutil.HookRecorder{}
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	testutil.AssertNoError(t, b.SetFailureHook(hook), "SetFailureHook")

	first := &recorder{}
	bad := &failing{err: errBoom}
	last := &recorder{}
	_ = b.Register(first)
	_ = b.Register(bad)
	_ = b.Register(last)

	testutil.AssertNoError(t, b.Post(&myEvent{}), "Post")

	testutil.AssertEqual(t, 1, hook.Count(), "hook calls")
	testutil.AssertErrorIs(t, hook.Failures()[0], "hook failure", errBoom)
	testutil.AssertEqual(t, 1, len(first.got), "first deliveries")
	testutil.AssertEqual(t, 1, len(last.got), "last deliveries")

	entries := b.AllPosted()
	testutil.AssertEqual(t, 2, len(entries), "ledger entries")
	for _, e := range entries {
		if e.Subscriber == any(bad) {
			t.Error("failing subscriber has a ledger entry")
		}
	}
}

func TestBus_Post_Panic(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	_ = b.Register(panicking{})

	err := b.Post(&myEvent{})

	testutil.AssertErrorIs(t, err, "Post", domain.ErrDispatch, domain.ErrHandlerPanic)
	var perr *domain.PanicError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *domain.PanicError, got %v", err)
	}
	testutil.AssertEqual(t, "handler exploded", perr.Value, "panic value")
	testutil.AssertTrue(t, len(perr.Stack) > 0, "stack captured")
}

func TestBus_Post_HookPanicIsContained(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	_ = b.SetFailureHook(FailureHookFunc(func(error) { panic("hook exploded") }))
	_ = b.Register(&failing{err: errBoom})
	after := &recorder{}
	_ = b.Register(after)

	testutil.AssertNoError(t, b.Post(&myEvent{}), "Post")
	testutil.AssertEqual(t, 1, len(after.got), "deliveries after hook panic")
	testutil.AssertEqual(t, 1, len(b.AllPosted()), "ledger entries")
}

func TestBus_Post_ReentrantPost(t *testing.T) {
	b := newTestBus(t, ModeAnnotation, Tag("evbus"))
	sub := &tagged{
		OnMy: func(*myEvent) error {
			return b.Post(&otherEvent{N: 1})
		},
		OnOther: func(*otherEvent) {},
	}
	testutil.AssertNoError(t, b.Register(sub), "Register")

	testutil.AssertNoError(t, b.Post(&myEvent{}), "Post")

	entries := b.AllPosted()
	testutil.AssertEqual(t, 2, len(entries), "ledger entries")
	testutil.AssertEqual(t, "OnOther", entries[0].Handler, "nested delivery is recorded first")
	testutil.AssertEqual(t, "OnMy", entries[1].Handler, "outer delivery is recorded last")
}

func TestBus_Post_UsesBucketSnapshot(t *testing.T) {
	b := newTestBus(t, ModeAnnotation, Tag("evbus"))
	var secondCalls int
	second := &single{On: func(*myEvent) error { secondCalls++; return nil }}
	first := &single{On: func(*myEvent) error {
		_ = b.Unregister(second)
		return nil
	}}
	testutil.AssertNoError(t, b.Register(first), "Register first")
	testutil.AssertNoError(t, b.Register(second), "Register second")

	testutil.AssertNoError(t, b.Post(&myEvent{}), "first Post")
	testutil.AssertEqual(t, 1, secondCalls, "snapshot still delivers")

	testutil.AssertNoError(t, b.Post(&myEvent{}), "second Post")
	testutil.AssertEqual(t, 1, secondCalls, "unregistered before second post")
}

func TestBus_Post_Concurrent(t *testing.T) {
	b := newTestBus(t, ModeAnnotation, Tag("evbus"))
	var mu sync.Mutex
	calls := 0
	err := b.Register(&single{On: func(*myEvent) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}})
	testutil.AssertNoError(t, err, "Register")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = b.Post(&myEvent{})
				_ = b.HasPosted()
			}
		}()
	}
	wg.Wait()

	testutil.AssertEqual(t, 1000, calls, "handler calls")
	entries := b.AllPosted()
	testutil.AssertEqual(t, 1000, len(entries), "ledger entries")
	for i, e := range entries {
		if e.Seq != uint64(i+1) {
			t.Fatalf("entry %d has seq %d", i, e.Seq)
		}
	}
}

// --- Failure hook ---

func TestBus_SetFailureHook(t *testing.T) {
	b := newTestBus(t, ModeMethodName)
	var nilHook FailureHookFunc

	testutil.AssertErrorIs(t, b.SetFailureHook(nil), "nil", domain.ErrConfiguration, domain.ErrNilHook)
	testutil.AssertErrorIs(t, b.SetFailureHook(nilHook), "nil func", domain.ErrNilHook)
	testutil.AssertFalse(t, b.HasFailureHook(), "hook set after rejection")

	testutil.AssertNoError(t, b.SetFailureHook(&testutil.HookRecorder{}), "first set")
	testutil.AssertErrorIs(t, b.SetFailureHook(&testutil.HookRecorder{}), "second set",
		domain.ErrConfiguration, domain.ErrHookAlreadySet)
}

func TestBus_WithFailureHook(t *testing.T) {
	hook := &testutil.HookRecorder{}
	b, err := New(ModeMethodName, WithFailureHook(hook))
	testutil.AssertNoError(t, err, "New")

	testutil.AssertTrue(t, b.HasFailureHook(), "hook installed")
	testutil.AssertErrorIs(t, b.SetFailureHook(hook), "SetFailureHook", domain.ErrHookAlreadySet)
}

func TestBus_WithFailureHook_Nil(t *testing.T) {
	tests := []struct {
		name string
		hook FailureHook
	}{
		{"untyped nil", nil},
		{"nil func", FailureHookFunc(nil)},
		{"nil recorder", (*testutil.HookRecorder)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(ModeMethodName, WithFailureHook(tt.hook))
			testutil.AssertErrorIs(t, err, "New", domain.ErrConfiguration, domain.ErrNilHook)
			testutil.AssertTrue(t, b == nil, "no bus on error")
		})
	}
}

// --- Method name scenario ---

func TestBus_MethodNameScenario(t *testing.T) {
	b := newTestBus(t, ModeMethodName, MethodName("OnEvent"))
	s := &recorder{}
	testutil.AssertNoError(t, b.Register(s), "Register")

	a := &myEvent{ID: "A"}
	testutil.AssertNoError(t, b.Post(a), "Post A")

	last, ok := b.LastPosted()
	testutil.AssertTrue(t, ok, "ledger has an entry")
	testutil.AssertEqual(t, any(a), last.Event, "last event")
	testutil.AssertEqual(t, any(s), last.Subscriber, "last subscriber")

	testutil.AssertErrorIs(t, b.Post(&otherEvent{}), "Post other", domain.ErrDispatch)
}
