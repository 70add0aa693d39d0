// Package domain contains domain errors used throughout the application.
package domain

import (
	"errors"
	"fmt"
)

// Error categories. Errors returned by the bus match one of these through
// errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrDispatch      = errors.New("dispatch error")
)

// Sentinel errors for specific conditions. They are wrapped by the typed
// errors below and can be matched with errors.Is.
var (
	ErrWrongMode       = errors.New("marker does not belong to the active mode")
	ErrNoMarkers       = errors.New("marker collection is empty")
	ErrInvalidMarker   = errors.New("invalid marker")
	ErrNilHook         = errors.New("failure hook cannot be nil")
	ErrHookAlreadySet  = errors.New("failure hook is already set")
	ErrMarkersRequired = errors.New("no markers configured for the active mode")

	ErrNilSubscriber       = errors.New("subscriber cannot be nil")
	ErrNilEvent            = errors.New("event cannot be nil")
	ErrNilHandler          = errors.New("handler cannot be nil")
	ErrNotComparable       = errors.New("subscriber is not comparable")
	ErrAlreadyRegistered   = errors.New("subscriber is already registered")
	ErrNotRegistered       = errors.New("subscriber is not registered")
	ErrNoHandlers          = errors.New("no handler methods")
	ErrHandlerNotPublic    = errors.New("handler is not publicly invokable")
	ErrHandlerSignature    = errors.New("invalid handler signature")
	ErrDisallowedEventType = errors.New("event type from the standard library is not allowed")

	ErrNoListeners  = errors.New("no listeners for event type")
	ErrHandlerPanic = errors.New("handler panicked")
)

// ConfigurationError reports bad setup: a marker for the wrong mode, empty
// marker input, or a failure hook that is nil or already set.
type ConfigurationError struct {
	Op   string // Operation that failed
	Mode string // Active mode, if relevant
	Err  error  // Underlying sentinel
}

func (e *ConfigurationError) Error() string {
	if e.Mode != "" {
		return fmt.Sprintf("configuration error: %s (mode %s): %v", e.Op, e.Mode, e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(op, mode string, err error) *ConfigurationError {
	return &ConfigurationError{
		Op:   op,
		Mode: mode,
		Err:  err,
	}
}

// ValidationError represents a validation error on call-time input.
type ValidationError struct {
	Field      string
	Message    string
	Subscriber string // Subscriber type, if relevant
	Mode       string // Active mode, if relevant
	Err        error  // Underlying sentinel
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	if e.Subscriber != "" {
		msg += fmt.Sprintf(" (subscriber %s", e.Subscriber)
		if e.Mode != "" {
			msg += fmt.Sprintf(", mode %s", e.Mode)
		}
		msg += ")"
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// DispatchError reports a post that could not be delivered: either there
// were no listeners for the event type or a handler failed with no failure
// hook installed.
type DispatchError struct {
	EventType  string
	Subscriber string // Failing subscriber, empty for ErrNoListeners
	Err        error
}

func (e *DispatchError) Error() string {
	if e.Subscriber != "" {
		return fmt.Sprintf("dispatch error: %s to %s: %v", e.EventType, e.Subscriber, e.Err)
	}
	return fmt.Sprintf("dispatch error: %s: %v", e.EventType, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Is matches ErrDispatch.
func (e *DispatchError) Is(target error) bool {
	return target == ErrDispatch
}

// HandlerError wraps a failure raised by a single handler invocation.
type HandlerError struct {
	EventType  string
	Subscriber string
	Handler    string
	Err        error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s.%s failed on %s: %v", e.Subscriber, e.Handler, e.EventType, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a panic value recovered from a handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}

// Is matches ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}

// Cause returns the innermost error a handler produced, stripping the
// HandlerError and DispatchError wrappers added by the bus.
func Cause(err error) error {
	for {
		switch e := err.(type) {
		case *DispatchError:
			err = e.Err
		case *HandlerError:
			err = e.Err
		default:
			return err
		}
	}
}
