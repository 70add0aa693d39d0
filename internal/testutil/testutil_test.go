package testutil

import (
	"errors"
	"testing"
)

type ping struct{ n int }

// --- MockEventBus Tests ---

func TestNewMockEventBus(t *testing.T) {
	b := NewMockEventBus()

	if b.PostCount() != 0 {
		t.Errorf("expected 0 events, got %d", b.PostCount())
	}
	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", b.SubscriberCount())
	}
}

func TestMockEventBus_Post(t *testing.T) {
	b := NewMockEventBus()

	if err := b.Post(&ping{n: 1}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	posted := b.Posted()
	if len(posted) != 1 {
		t.Fatalf("expected 1 event, got %d", len(posted))
	}
	if p, ok := posted[0].(*ping); !ok || p.n != 1 {
		t.Errorf("expected *ping{1}, got %#v", posted[0])
	}
}

func TestMockEventBus_PostWithError(t *testing.T) {
	b := NewMockEventBus()
	expectedErr := errors.New("post failed")
	b.SetPostError(expectedErr)

	err := b.Post(&ping{})

	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
	// Event should not be recorded when error occurs
	if b.PostCount() != 0 {
		t.Errorf("expected 0 events after error, got %d", b.PostCount())
	}
}

func TestMockEventBus_PostFunc(t *testing.T) {
	b := NewMockEventBus()
	var seen any
	b.SetPostFunc(func(e any) error {
		seen = e
		return nil
	})

	evt := &ping{n: 7}
	_ = b.Post(evt)

	if seen != evt {
		t.Errorf("expected post func to see %v, got %v", evt, seen)
	}
}

func TestMockEventBus_RegisterUnregister(t *testing.T) {
	b := NewMockEventBus()
	sub := &ping{}

	_ = b.Register(sub)
	if b.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", b.SubscriberCount())
	}

	if err := b.Unregister(sub); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", b.SubscriberCount())
	}

	if err := b.Unregister(sub); err == nil {
		t.Error("expected error unregistering twice")
	}
}

// --- HookRecorder Tests ---

func TestHookRecorder(t *testing.T) {
	var h HookRecorder
	first := errors.New("first")

	h.HandleFailure(first)
	h.HandleFailure(errors.New("second"))

	if h.Count() != 2 {
		t.Fatalf("expected 2 failures, got %d", h.Count())
	}
	if h.Failures()[0] != first {
		t.Errorf("expected first failure to be kept in order")
	}
}

// --- Assertion helper Tests ---

func TestAssertHelpers(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), errAssert)

	AssertEqual(t, 1, 1, "equal")
	AssertTrue(t, true, "true")
	AssertFalse(t, false, "false")
	AssertNoError(t, nil, "no error")
	AssertError(t, wrapped, "error")
	AssertErrorIs(t, wrapped, "errors.Is", errAssert)
	AssertContains(t, "hello world", "world", "contains")
}

var errAssert = errors.New("assert")
