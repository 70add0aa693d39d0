package bus

// FailureHook receives handler failures once installed. The error is a
// *domain.HandlerError; use errors.As or domain.Cause to inspect it.
type FailureHook interface {
	HandleFailure(err error)
}

// FailureHookFunc adapts a function to FailureHook.
type FailureHookFunc func(err error)

// HandleFailure calls f(err).
func (f FailureHookFunc) HandleFailure(err error) {
	f(err)
}
