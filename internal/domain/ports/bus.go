package ports

// Publisher gives the implementer the ability to post events on a bus.
type Publisher interface {
	// Post delivers the event to every handler registered for its type.
	Post(event any) error
}

// Subscriber gives the implementer the ability to register and unregister
// objects that receive posted events.
type Subscriber interface {
	// Register subscribes all handlers of the given object.
	Register(subscriber any) error

	// Unregister removes all handlers of the given object.
	Unregister(subscriber any) error
}

// EventBus defines the contract for in-process event distribution.
// Consumers depend only on this capability set, so any implementation
// (the testable bus or an adapter around another library) can be
// substituted transparently.
type EventBus interface {
	Publisher
	Subscriber
}
