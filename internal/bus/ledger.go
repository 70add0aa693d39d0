package bus

import (
	"reflect"
	"time"
)

// PostedEvent records one successful delivery of an event to a handler.
// A post reaching three handlers produces three entries sharing a
// DispatchID.
type PostedEvent struct {
	Seq        uint64    `json:"seq"`
	DispatchID string    `json:"dispatch_id"`
	Event      any       `json:"event"`
	Subscriber any       `json:"-"`
	Handler    string    `json:"handler"`
	PostedAt   time.Time `json:"posted_at"`
}

// EventType returns the dynamic type of the delivered event.
func (p PostedEvent) EventType() reflect.Type {
	return reflect.TypeOf(p.Event)
}

// ledger is the append-only delivery log. Sequence numbers keep increasing
// across clear.
type ledger struct {
	entries []PostedEvent
	seq     uint64
}

func (l *ledger) append(e PostedEvent) PostedEvent {
	l.seq++
	e.Seq = l.seq
	l.entries = append(l.entries, e)
	return e
}

func matches(e PostedEvent, eventType reflect.Type) bool {
	return eventType == nil || reflect.TypeOf(e.Event) == eventType
}

// all returns the entries of eventType (every entry when nil) in delivery
// order. The result is never nil.
func (l *ledger) all(eventType reflect.Type) []PostedEvent {
	out := make([]PostedEvent, 0, len(l.entries))
	for _, e := range l.entries {
		if matches(e, eventType) {
			out = append(out, e)
		}
	}
	return out
}

func (l *ledger) snapshot() []PostedEvent {
	out := make([]PostedEvent, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *ledger) first(eventType reflect.Type) (PostedEvent, bool) {
	for _, e := range l.entries {
		if matches(e, eventType) {
			return e, true
		}
	}
	return PostedEvent{}, false
}

func (l *ledger) last(eventType reflect.Type) (PostedEvent, bool) {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if matches(l.entries[i], eventType) {
			return l.entries[i], true
		}
	}
	return PostedEvent{}, false
}

func (l *ledger) has(eventType reflect.Type) bool {
	_, ok := l.first(eventType)
	return ok
}

func (l *ledger) clear() {
	l.entries = nil
}
