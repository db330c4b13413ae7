package fsm

import "time"

// HandlerResult is returned by a Handler: either a Transition descriptor, or NotHandled
// (the zero value's Handled field) so the kernel falls through to the unhandled-event
// handler.
type HandlerResult[TS comparable, TD any] struct {
	Descriptor Transition[TS, TD]
	Handled    bool
}

// Handle wraps a descriptor as a handled result.
func Handle[TS comparable, TD any](d Transition[TS, TD]) HandlerResult[TS, TD] {
	return HandlerResult[TS, TD]{Descriptor: d, Handled: true}
}

// NotHandled is the sentinel "try the next handler" result.
func NotHandled[TS comparable, TD any]() HandlerResult[TS, TD] {
	return HandlerResult[TS, TD]{}
}

// Handler consumes an Event and returns either a Transition descriptor or NotHandled.
type Handler[TS comparable, TD any] func(Event[TD]) HandlerResult[TS, TD]

type stateEntry[TS comparable, TD any] struct {
	handler Handler[TS, TD]
}

type timeoutEntry struct {
	duration time.Duration
	has      bool
}

// Registry stores per-state handler functions, default per-state timeouts, and the
// unhandled-event fallback. Handlers and timeouts are kept in separate maps: a state can
// carry a default timeout recorded via SetStateTimeout before (or without) ever having a
// handler registered for it, without that making Has/Lookup falsely report the state as
// having a dispatchable handler.
type Registry[TS comparable, TD any] struct {
	states    map[TS]*stateEntry[TS, TD]
	timeouts  map[TS]timeoutEntry
	unhandled Handler[TS, TD]
}

// NewRegistry builds an empty Registry whose unhandled-event handler is
// onUnhandledDefault (the FSM passes its built-in "log warning and stay" fallback).
func NewRegistry[TS comparable, TD any](onUnhandledDefault func(Event[TD]) HandlerResult[TS, TD]) *Registry[TS, TD] {
	return &Registry[TS, TD]{
		states:    make(map[TS]*stateEntry[TS, TD]),
		timeouts:  make(map[TS]timeoutEntry),
		unhandled: onUnhandledDefault,
	}
}

// Register records handler for name. If name is unknown, it is stored directly. If name
// is already present, the new effective handler invokes the previously-registered handler
// first; only if that one returns NotHandled is the newly-registered handler tried. This
// means for `when(S, h1)` followed by `when(S, h2)`, h1 always runs first and h2 is
// consulted only as a fallback — the earliest registration wins precedence, later
// registrations only add coverage for what earlier ones left unhandled.
//
// defaultTimeout, if non-nil, becomes the state's default timeout — but only if no
// timeout has been recorded for this state yet. Later registrations never override a
// prior default timeout; this is deliberate, first-wins behavior.
func (r *Registry[TS, TD]) Register(name TS, handler Handler[TS, TD], defaultTimeout *time.Duration) {
	existing, ok := r.states[name]
	if !ok {
		r.states[name] = &stateEntry[TS, TD]{handler: handler}
	} else {
		previous := existing.handler
		existing.handler = func(ev Event[TD]) HandlerResult[TS, TD] {
			if res := previous(ev); res.Handled {
				return res
			}
			return handler(ev)
		}
	}

	if defaultTimeout != nil {
		if t, ok := r.timeouts[name]; !ok || !t.has {
			r.timeouts[name] = timeoutEntry{duration: *defaultTimeout, has: true}
		}
	}
}

// SetUnhandled replaces the current unhandled-event handler with handler, composed as
// "handler, falling back to whatever the previous unhandled handler was" — so repeated
// calls layer rather than clobber.
func (r *Registry[TS, TD]) SetUnhandled(handler Handler[TS, TD]) {
	previous := r.unhandled
	r.unhandled = func(ev Event[TD]) HandlerResult[TS, TD] {
		if res := handler(ev); res.Handled {
			return res
		}
		return previous(ev)
	}
}

// SetStateTimeout stores (or overwrites) a per-state default timeout. Safe to call from
// inside a handler, since Registry is only ever touched from the kernel's serialized
// execution context. This records a timeout only — it does not register a handler, so it
// never makes Has/Lookup report a state as having a dispatchable handler.
func (r *Registry[TS, TD]) SetStateTimeout(name TS, timeout time.Duration) {
	r.timeouts[name] = timeoutEntry{duration: timeout, has: true}
}

// Lookup returns the effective handler for name, or false if name has no handler
// registered.
func (r *Registry[TS, TD]) Lookup(name TS) (Handler[TS, TD], bool) {
	entry, ok := r.states[name]
	if !ok || entry.handler == nil {
		return nil, false
	}
	return entry.handler, true
}

// Has reports whether name has a registered handler. The current state name must always
// satisfy this — a name known only to SetStateTimeout does not count.
func (r *Registry[TS, TD]) Has(name TS) bool {
	entry, ok := r.states[name]
	return ok && entry.handler != nil
}

// DefaultTimeout returns the registered default timeout for name, if any.
func (r *Registry[TS, TD]) DefaultTimeout(name TS) (time.Duration, bool) {
	t, ok := r.timeouts[name]
	if !ok || !t.has {
		return 0, false
	}
	return t.duration, true
}

// Unhandled invokes the current unhandled-event handler.
func (r *Registry[TS, TD]) Unhandled(ev Event[TD]) HandlerResult[TS, TD] {
	return r.unhandled(ev)
}
