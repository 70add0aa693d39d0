package bus

import (
	"reflect"
)

// binding ties one handler to the subscriber that owns it.
type binding struct {
	subscriber any
	handler    handler
}

// registry holds the event-type buckets and the registered identity set.
// A subscriber identity is in the set iff it owns at least one binding.
// Buckets are never empty; the last removal deletes the key.
type registry struct {
	buckets    map[reflect.Type][]*binding
	registered map[any]struct{}
}

func newRegistry() *registry {
	return &registry{
		buckets:    make(map[reflect.Type][]*binding),
		registered: make(map[any]struct{}),
	}
}

func (r *registry) isRegistered(subscriber any) bool {
	_, ok := r.registered[subscriber]
	return ok
}

// insert appends one binding per handler, preserving discovery order within
// each bucket.
func (r *registry) insert(subscriber any, handlers []handler) {
	for _, h := range handlers {
		r.buckets[h.eventType] = append(r.buckets[h.eventType], &binding{
			subscriber: subscriber,
			handler:    h,
		})
	}
	r.registered[subscriber] = struct{}{}
}

// remove drops every binding owned by subscriber and returns how many were
// removed.
func (r *registry) remove(subscriber any) int {
	removed := 0
	for eventType, bucket := range r.buckets {
		kept := bucket[:0:0]
		for _, b := range bucket {
			if b.subscriber == subscriber {
				removed++
				continue
			}
			kept = append(kept, b)
		}
		if len(kept) == 0 {
			delete(r.buckets, eventType)
		} else {
			r.buckets[eventType] = kept
		}
	}
	delete(r.registered, subscriber)
	return removed
}

// lookup returns a copy of the bucket for eventType so callers can iterate
// after the lock is released.
func (r *registry) lookup(eventType reflect.Type) []*binding {
	bucket := r.buckets[eventType]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]*binding, len(bucket))
	copy(out, bucket)
	return out
}

func (r *registry) bindingsOf(subscriber any) int {
	n := 0
	for _, bucket := range r.buckets {
		for _, b := range bucket {
			if b.subscriber == subscriber {
				n++
			}
		}
	}
	return n
}

func (r *registry) listeners(eventType reflect.Type) int {
	return len(r.buckets[eventType])
}

// eventTypes returns the types that currently have listeners.
func (r *registry) eventTypes() []reflect.Type {
	out := make([]reflect.Type, 0, len(r.buckets))
	for t := range r.buckets {
		out = append(out, t)
	}
	return out
}
