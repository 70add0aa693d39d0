package bus

import (
	"reflect"

	"github.com/brianly1003/evbus/internal/domain"
)

// Subscribe binds fn to events of type E on behalf of subscriber, without
// markers or discovery. It may be called several times for the same
// subscriber; Unregister removes every binding. A subscriber that owns
// Subscribe bindings cannot also be passed to Register.
//
//	err := bus.Subscribe(b, tracker, func(e *events.SessionStarted) error {
//		return tracker.Start(e.SessionID)
//	})
func Subscribe[E any](b *Bus, subscriber any, fn func(E) error) error {
	eventType := reflect.TypeFor[E]()
	h := handler{
		name:      "func(" + eventType.String() + ")",
		eventType: eventType,
	}
	if fn != nil {
		h.call = func(event any) error { return fn(event.(E)) }
	}
	return b.subscribe(subscriber, h)
}

func (b *Bus) subscribe(subscriber any, h handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if isNil(subscriber) {
		return b.invalid("subscriber", subscriber, domain.ErrNilSubscriber, "cannot be nil")
	}
	if h.call == nil {
		return b.invalid("handler", subscriber, domain.ErrNilHandler, "cannot be nil")
	}
	if err := b.checkComparable(subscriber); err != nil {
		return err
	}
	if err := checkEventType(h.eventType); err != nil {
		return b.invalid("handler", subscriber, err, err.Error())
	}

	b.registry.insert(subscriber, []handler{h})

	b.logger.Debug().
		Str("subscriber", describe(subscriber)).
		Str("event_type", h.eventType.String()).
		Msg("Handler subscribed")
	return nil
}

// AllPostedOf returns the ledger entries whose event has type E.
func AllPostedOf[E any](b *Bus) []PostedEvent {
	return b.AllPostedOfType(reflect.TypeFor[E]())
}

// FirstPostedOf returns the earliest entry of type E.
func FirstPostedOf[E any](b *Bus) (PostedEvent, bool) {
	return b.FirstPostedOfType(reflect.TypeFor[E]())
}

// LastPostedOf returns the latest entry of type E.
func LastPostedOf[E any](b *Bus) (PostedEvent, bool) {
	return b.LastPostedOfType(reflect.TypeFor[E]())
}

// HasPostedOf reports whether an event of type E was delivered.
func HasPostedOf[E any](b *Bus) bool {
	return b.HasPostedOfType(reflect.TypeFor[E]())
}

// EventOf returns the entry's event as E.
func EventOf[E any](p PostedEvent) (E, bool) {
	e, ok := p.Event.(E)
	return e, ok
}
