// Package testutil provides shared test utilities and mocks for evbus tests.
package testutil

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/brianly1003/evbus/internal/domain/ports"
)

// MockEventBus implements ports.EventBus for testing. It records what was
// posted and registered without dispatching anything.
type MockEventBus struct {
	mu          sync.Mutex
	posted      []any
	subscribers []any
	postErr     error
	postFunc    func(any) error
}

// NewMockEventBus creates a new mock event bus.
func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		posted:      make([]any, 0),
		subscribers: make([]any, 0),
	}
}

// Post records the event and returns any configured error.
func (m *MockEventBus) Post(event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.postFunc != nil {
		return m.postFunc(event)
	}
	if m.postErr != nil {
		return m.postErr
	}

	m.posted = append(m.posted, event)
	return nil
}

// Register records the subscriber.
func (m *MockEventBus) Register(subscriber any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, subscriber)
	return nil
}

// Unregister removes a recorded subscriber.
func (m *MockEventBus) Unregister(subscriber any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sub := range m.subscribers {
		if sub == subscriber {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			return nil
		}
	}
	return errors.New("not registered")
}

// SetPostError configures an error to return on Post.
func (m *MockEventBus) SetPostError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postErr = err
}

// SetPostFunc sets a custom function for Post behavior.
func (m *MockEventBus) SetPostFunc(fn func(any) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postFunc = fn
}

// Posted returns all recorded events.
func (m *MockEventBus) Posted() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]any, len(m.posted))
	copy(result, m.posted)
	return result
}

// PostCount returns the number of recorded events.
func (m *MockEventBus) PostCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posted)
}

// SubscriberCount returns the number of registered subscribers.
func (m *MockEventBus) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// Ensure MockEventBus implements ports.EventBus.
var _ ports.EventBus = (*MockEventBus)(nil)

// HookRecorder collects failures passed to a failure hook.
type HookRecorder struct {
	mu       sync.Mutex
	failures []error
}

// HandleFailure records err.
func (h *HookRecorder) HandleFailure(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = append(h.failures, err)
}

// Failures returns the recorded failures.
func (h *HookRecorder) Failures() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]error, len(h.failures))
	copy(result, h.failures)
	return result
}

// Count returns the number of recorded failures.
func (h *HookRecorder) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.failures)
}

// AssertEqual is a simple equality assertion helper.
func AssertEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// AssertTrue asserts that a condition is true.
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Errorf("%s: expected true, got false", msg)
	}
}

// AssertFalse asserts that a condition is false.
func AssertFalse(t *testing.T, condition bool, msg string) {
	t.Helper()
	if condition {
		t.Errorf("%s: expected false, got true", msg)
	}
}

// AssertNoError asserts that an error is nil.
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Errorf("%s: unexpected error: %v", msg, err)
	}
}

// AssertError asserts that an error is not nil.
func AssertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected error, got nil", msg)
	}
}

// AssertErrorIs asserts that errors.Is(err, target) holds for every target.
func AssertErrorIs(t *testing.T, err error, msg string, targets ...error) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected error, got nil", msg)
		return
	}
	for _, target := range targets {
		if !errors.Is(err, target) {
			t.Errorf("%s: expected %v to match %v", msg, err, target)
		}
	}
}

// AssertContains checks if a string contains a substring.
func AssertContains(t *testing.T, s, substr, msg string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("%s: string %q does not contain %q", msg, s, substr)
	}
}
