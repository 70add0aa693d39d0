// Package bus implements a synchronous, in-process event bus built for
// tests.
//
// Handlers are discovered on subscribers by reflection under one of two
// modes fixed at construction:
//
//   - ModeAnnotation: exported func-typed struct fields carrying a
//     configured struct tag key (see Tag).
//   - ModeMethodName: exported methods whose name equals a configured
//     MethodName.
//
// The two modes treat embedding differently. Method sets include methods
// promoted from embedded fields, so in ModeMethodName an outer struct binds
// the handlers of what it embeds, even when that value is registered on its
// own. ModeAnnotation scans only the subscriber's direct fields and never
// descends into embedded structs.
//
// A handler takes exactly one parameter, the event, and returns nothing or
// an error. Events are routed by their exact dynamic type: a handler for
// *FileChanged does not see FileChanged, and interfaces are never matched.
//
// Every successful delivery is appended to a ledger that tests can query:
//
//	b, _ := bus.New(bus.ModeMethodName)
//	_ = b.AddMethodNames("OnEvent")
//	_ = b.Register(tracker)
//	_ = b.Post(&events.SessionStarted{SessionID: "s1"})
//
//	last, ok := b.LastPosted()
//
// A handler fails when it returns an error or panics. Without a failure
// hook the first failure aborts the post; with one, failures go to the
// hook and the remaining handlers still run.
package bus
