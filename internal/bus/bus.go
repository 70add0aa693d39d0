package bus

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/brianly1003/evbus/internal/domain"
	"github.com/brianly1003/evbus/internal/domain/ports"
)

// Ensure Bus implements ports.EventBus.
var _ ports.EventBus = (*Bus)(nil)

// Bus is a synchronous, in-process event bus that records every successful
// delivery in a queryable ledger.
//
// A single mutex guards the registry, the marker set, the failure hook and
// the ledger. Post releases it while handlers run, so a handler may post,
// register or unregister without deadlocking. Each Post dispatches to the
// bucket as it was when the post started.
type Bus struct {
	mu          sync.Mutex
	mode        Mode
	descriptors *descriptors
	registry    *registry
	ledger      *ledger
	hook        FailureHook

	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// New creates a bus that recognises handlers under mode.
func New(mode Mode, opts ...Option) (*Bus, error) {
	if !mode.Valid() {
		return nil, domain.NewConfigurationError("new", "", fmt.Errorf("unknown mode %s", mode))
	}

	cfg := defaultBusConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.hasHook && isNil(cfg.hook) {
		return nil, domain.NewConfigurationError("new", mode.String(), domain.ErrNilHook)
	}

	b := &Bus{
		mode:        mode,
		descriptors: newDescriptors(mode),
		registry:    newRegistry(),
		ledger:      &ledger{},
		hook:        cfg.hook,
		logger:      cfg.logger.With().Str("mode", mode.String()).Logger(),
		now:         cfg.now,
		newID:       cfg.newID,
	}
	return b, nil
}

// Mode returns the mode fixed at construction.
func (b *Bus) Mode() Mode {
	return b.mode
}

// Markers returns the configured markers in the order they were added.
func (b *Bus) Markers() []Marker {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.descriptors.list()
}

// AddMarker adds a single marker.
func (b *Bus) AddMarker(m Marker) error {
	return b.addMarkers("add_marker", []Marker{m})
}

// AddMarkers adds markers to the active mode's set. The whole batch is
// rejected if it is empty or if any marker is nil, invalid, or of the
// other mode. Duplicates are ignored.
func (b *Bus) AddMarkers(markers ...Marker) error {
	return b.addMarkers("add_markers", markers)
}

// AddTags is AddMarkers for struct tag keys.
func (b *Bus) AddTags(keys ...string) error {
	markers := make([]Marker, len(keys))
	for i, k := range keys {
		markers[i] = Tag(k)
	}
	return b.addMarkers("add_tags", markers)
}

// AddMethodNames is AddMarkers for method names.
func (b *Bus) AddMethodNames(names ...string) error {
	markers := make([]Marker, len(names))
	for i, n := range names {
		markers[i] = MethodName(n)
	}
	return b.addMarkers("add_method_names", markers)
}

func (b *Bus) addMarkers(op string, markers []Marker) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.descriptors.check(op, markers); err != nil {
		return err
	}
	b.descriptors.add(markers)

	b.logger.Debug().
		Int("added", len(markers)).
		Int("total", len(b.descriptors.markers)).
		Msg("Markers configured")
	return nil
}

// Register discovers and subscribes every handler of subscriber. Either all
// handlers are bound or none are.
func (b *Bus) Register(subscriber any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if isNil(subscriber) {
		return b.invalid("subscriber", subscriber, domain.ErrNilSubscriber, "cannot be nil")
	}
	if b.descriptors.empty() {
		return b.invalid("markers", subscriber,
			domain.NewConfigurationError("register", b.mode.String(), domain.ErrMarkersRequired),
			"add at least one marker before registering")
	}
	if err := b.checkComparable(subscriber); err != nil {
		return err
	}
	if b.registry.isRegistered(subscriber) {
		return b.invalid("subscriber", subscriber, domain.ErrAlreadyRegistered, "already registered")
	}

	handlers, err := discover(b.descriptors, subscriber)
	if err != nil {
		return b.invalid("handler", subscriber, err, err.Error())
	}
	if len(handlers) == 0 {
		return b.invalid("subscriber", subscriber, domain.ErrNoHandlers,
			fmt.Sprintf("no handler methods matching %v", b.descriptors.list()))
	}

	b.registry.insert(subscriber, handlers)

	b.logger.Debug().
		Str("subscriber", describe(subscriber)).
		Int("handlers", len(handlers)).
		Msg("Subscriber registered")
	return nil
}

// Unregister removes every binding owned by subscriber, including those
// added with Subscribe.
func (b *Bus) Unregister(subscriber any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if isNil(subscriber) || !reflect.ValueOf(subscriber).Comparable() || !b.registry.isRegistered(subscriber) {
		return b.invalid("subscriber", subscriber, domain.ErrNotRegistered, "not registered")
	}

	removed := b.registry.remove(subscriber)

	b.logger.Debug().
		Str("subscriber", describe(subscriber)).
		Int("handlers", removed).
		Msg("Subscriber unregistered")
	return nil
}

// Post delivers event synchronously to every handler bound to its exact
// dynamic type, in registration order. Successful deliveries are appended
// to the ledger.
//
// Without a failure hook the first handler failure stops dispatch and is
// returned as a *domain.DispatchError. With a hook, each failure is passed
// to the hook and dispatch continues.
func (b *Bus) Post(event any) error {
	if isNil(event) {
		return b.invalid("event", nil, domain.ErrNilEvent, "cannot be nil")
	}
	eventType := reflect.TypeOf(event)

	b.mu.Lock()
	bindings := b.registry.lookup(eventType)
	hook := b.hook
	b.mu.Unlock()

	if len(bindings) == 0 {
		return &domain.DispatchError{
			EventType: eventType.String(),
			Err:       domain.ErrNoListeners,
		}
	}

	dispatchID := b.newID()
	logger := b.logger.With().
		Str("dispatch_id", dispatchID).
		Str("event_type", eventType.String()).
		Logger()

	for _, bnd := range bindings {
		if err := bnd.handler.invoke(event); err != nil {
			failure := &domain.HandlerError{
				EventType:  eventType.String(),
				Subscriber: describe(bnd.subscriber),
				Handler:    bnd.handler.name,
				Err:        err,
			}

			if hook == nil {
				logger.Debug().Err(failure).Msg("Dispatch aborted")
				return &domain.DispatchError{
					EventType:  failure.EventType,
					Subscriber: failure.Subscriber,
					Err:        failure,
				}
			}

			logger.Debug().Err(failure).Msg("Handler failed, passing to failure hook")
			b.notify(hook, failure)
			continue
		}

		b.mu.Lock()
		b.ledger.append(PostedEvent{
			DispatchID: dispatchID,
			Event:      event,
			Subscriber: bnd.subscriber,
			Handler:    bnd.handler.name,
			PostedAt:   b.now(),
		})
		b.mu.Unlock()
	}

	logger.Trace().Int("listeners", len(bindings)).Msg("Event dispatched")
	return nil
}

// notify passes a failure to the hook. A panicking hook is logged and
// does not interrupt dispatch.
func (b *Bus) notify(hook FailureHook, failure error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Interface("panic", r).
				AnErr("failure", failure).
				Msg("Failure hook panicked")
		}
	}()
	hook.HandleFailure(failure)
}

// SetFailureHook installs the failure hook. It may be set once.
func (b *Bus) SetFailureHook(h FailureHook) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if isNil(h) {
		return domain.NewConfigurationError("set_failure_hook", b.mode.String(), domain.ErrNilHook)
	}
	if b.hook != nil {
		return domain.NewConfigurationError("set_failure_hook", b.mode.String(), domain.ErrHookAlreadySet)
	}
	b.hook = h
	return nil
}

// HasFailureHook reports whether a failure hook is installed.
func (b *Bus) HasFailureHook() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hook != nil
}

// IsRegistered reports whether subscriber currently owns any binding.
func (b *Bus) IsRegistered(subscriber any) bool {
	if isNil(subscriber) || !reflect.ValueOf(subscriber).Comparable() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registry.isRegistered(subscriber)
}

// BindingCount returns the number of bindings subscriber owns.
func (b *Bus) BindingCount(subscriber any) int {
	if isNil(subscriber) || !reflect.ValueOf(subscriber).Comparable() {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registry.bindingsOf(subscriber)
}

// ListenerCount returns the number of bindings for eventType.
func (b *Bus) ListenerCount(eventType reflect.Type) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registry.listeners(eventType)
}

// EventTypes returns the event types that currently have listeners, in no
// particular order.
func (b *Bus) EventTypes() []reflect.Type {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registry.eventTypes()
}

// AllPosted returns every ledger entry in delivery order. It never
// returns nil.
func (b *Bus) AllPosted() []PostedEvent {
	return b.AllPostedOfType(nil)
}

// Snapshot copies the whole ledger in one critical section, for callers
// that persist or report it. It never returns nil.
func (b *Bus) Snapshot() []PostedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.snapshot()
}

// AllPostedOfType returns the entries whose event has exactly eventType.
func (b *Bus) AllPostedOfType(eventType reflect.Type) []PostedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.all(eventType)
}

// FirstPosted returns the earliest entry.
func (b *Bus) FirstPosted() (PostedEvent, bool) {
	return b.FirstPostedOfType(nil)
}

// FirstPostedOfType returns the earliest entry of eventType.
func (b *Bus) FirstPostedOfType(eventType reflect.Type) (PostedEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.first(eventType)
}

// LastPosted returns the latest entry.
func (b *Bus) LastPosted() (PostedEvent, bool) {
	return b.LastPostedOfType(nil)
}

// LastPostedOfType returns the latest entry of eventType.
func (b *Bus) LastPostedOfType(eventType reflect.Type) (PostedEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.last(eventType)
}

// HasPosted reports whether the ledger has any entry.
func (b *Bus) HasPosted() bool {
	return b.HasPostedOfType(nil)
}

// HasPostedOfType reports whether the ledger has an entry of eventType.
func (b *Bus) HasPostedOfType(eventType reflect.Type) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.has(eventType)
}

// ClearPosted empties the ledger. Registrations are kept.
func (b *Bus) ClearPosted() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledger.clear()
}

func (b *Bus) checkComparable(subscriber any) error {
	if !reflect.ValueOf(subscriber).Comparable() {
		return b.invalid("subscriber", subscriber, domain.ErrNotComparable,
			"must be comparable; register a pointer instead")
	}
	return nil
}

func (b *Bus) invalid(field string, subscriber any, err error, message string) error {
	verr := domain.NewValidationError(field, message)
	verr.Mode = b.mode.String()
	verr.Err = err
	if !isNil(subscriber) {
		verr.Subscriber = describe(subscriber)
	}
	return verr
}

// isNil reports whether v is nil or a nil pointer, map, slice, func,
// channel or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func describe(subscriber any) string {
	return fmt.Sprintf("%T", subscriber)
}
