package fsm

import "time"

// FSM is the receive-loop kernel: it classifies each incoming message, runs the correct
// per-state handler, and applies the resulting Transition descriptor. It is generic over
// Ref (the host's opaque actor reference type), TS (state name), and TD (state data).
type FSM[Ref comparable, TS comparable, TD any] struct {
	self      Ref
	scheduler Scheduler
	mailbox   Mailbox[Ref]
	logger    Logger
	stop      func(Ref)

	registry *Registry[TS, TD]
	timers   *TimerTable[Ref]
	subs     *Subscriptions[Ref, TS]

	debugEvent bool

	started      bool
	startState   TS
	startData    TD
	startTimeout *time.Duration

	initialized bool
	current     Transition[TS, TD]
	terminated  bool

	currentGeneration  uint64
	stateTimeoutCancel CancelFunc

	inTransition bool
	nextState    Transition[TS, TD]

	onTransitionHooks []func(from, to TS)
	finalizer         func(StopEvent[TS, TD])

	dataEqual func(a, b TD) bool
}

// New constructs an FSM bound to the host capabilities supplied by ctx at actor-start
// time: self ref, scheduler, mailbox, and watch/unwatch are actor-lifetime resources and
// are captured once here, the way a real actor captures its own identity and
// capabilities on creation. The sender ref of each individual message is supplied
// separately to ProcessMessage, since it varies per dispatch.
//
// dataEqual is stored on the FSM but the kernel never calls it: self-loop detection and
// the transition debug trace compare state names only, and Transition.Equal takes its own
// comparator. Pass a trivial `func(a, b TD) bool { return false }` if TD has no
// meaningful equality.
func New[Ref comparable, TS comparable, TD any](
	ctx ActorContext[Ref],
	dataEqual func(a, b TD) bool,
) *FSM[Ref, TS, TD] {
	self := ctx.Self()
	f := &FSM[Ref, TS, TD]{
		self:      self,
		scheduler: ctx.Scheduler(),
		mailbox:   ctx.Mailbox(),
		logger:    ctx.Logger(),
		stop:      ctx.Stop,
		dataEqual: dataEqual,
	}
	f.registry = NewRegistry[TS, TD](defaultUnhandled[Ref, TS, TD](f))
	f.timers = NewTimerTable[Ref](self, f.scheduler, f.mailbox)
	f.subs = NewSubscriptions[Ref, TS](self, ctx.Watcher(), f.mailbox)
	f.finalizer = func(StopEvent[TS, TD]) {}
	return f
}

func defaultUnhandled[Ref comparable, TS comparable, TD any](f *FSM[Ref, TS, TD]) Handler[TS, TD] {
	return func(ev Event[TD]) HandlerResult[TS, TD] {
		f.logger.Warnw("unhandled event", "state", f.current.StateName, "event", ev.Payload)
		return Handle(Stay(f.current.StateName, ev.StateData))
	}
}

// SetDebugEvent toggles per-message debug traces.
func (f *FSM[Ref, TS, TD]) SetDebugEvent(enabled bool) {
	f.debugEvent = enabled
}

// When registers handler for name, chaining it behind any existing handler for the same
// name (the earlier handler is tried first; this one only sees what it leaves
// NotHandled), and records defaultTimeout as the state's default timeout if none has been
// recorded yet.
func (f *FSM[Ref, TS, TD]) When(name TS, handler Handler[TS, TD], defaultTimeout ...time.Duration) {
	var timeout *time.Duration
	if len(defaultTimeout) > 0 {
		timeout = &defaultTimeout[0]
	}
	f.registry.Register(name, handler, timeout)
}

// WhenUnhandled replaces the unhandled-event handler, composed in front of the built-in
// "log warning and stay" fallback.
func (f *FSM[Ref, TS, TD]) WhenUnhandled(handler Handler[TS, TD]) {
	f.registry.SetUnhandled(handler)
}

// SetStateTimeout stores (or overwrites) a per-state default timeout. Safe to call from
// inside a handler.
func (f *FSM[Ref, TS, TD]) SetStateTimeout(name TS, timeout time.Duration) {
	f.registry.SetStateTimeout(name, timeout)
}

// StartWith records the initial state and data, confirmed by Initialize.
func (f *FSM[Ref, TS, TD]) StartWith(name TS, data TD, timeout ...time.Duration) {
	f.startState = name
	f.startData = data
	f.started = true
	if len(timeout) > 0 {
		f.startTimeout = &timeout[0]
	}
}

// Initialize commits StartWith and arms the first state-entry timeout. It must be called
// exactly once, after StartWith and all When registrations.
func (f *FSM[Ref, TS, TD]) Initialize() error {
	if f.initialized {
		return ErrAlreadyInitialized
	}
	if !f.started {
		return ErrNotInitialized
	}
	if !f.registry.Has(f.startState) {
		return &ErrUnknownTargetState{State: f.startState}
	}
	f.initialized = true
	f.current = Goto(f.startState, f.startData)
	f.currentGeneration++
	f.armTimeout(f.effectiveTimeout(f.startState, f.startTimeout))
	return nil
}

// StateName returns the current state's name.
func (f *FSM[Ref, TS, TD]) StateName() TS { return f.current.StateName }

// StateData returns the current state's data.
func (f *FSM[Ref, TS, TD]) StateData() TD { return f.current.StateData }

// NextStateData returns the state data of the pending transition. Valid only while a
// transition hook is running; otherwise returns ErrAccessViolation.
func (f *FSM[Ref, TS, TD]) NextStateData() (TD, error) {
	var zero TD
	if !f.inTransition {
		return zero, &ErrAccessViolation{Operation: "NextStateData"}
	}
	return f.nextState.StateData, nil
}

// OnTransition registers hook to run synchronously on every real state change, before
// observers are gossiped to.
func (f *FSM[Ref, TS, TD]) OnTransition(hook func(from, to TS)) {
	f.onTransitionHooks = append(f.onTransitionHooks, hook)
}

// OnTermination sets the finalizer invoked exactly once during the termination sequence.
func (f *FSM[Ref, TS, TD]) OnTermination(finalizer func(StopEvent[TS, TD])) {
	f.finalizer = finalizer
}

// SetTimer starts (or restarts) a named timer delivering message after delay, repeating
// if repeat is true.
func (f *FSM[Ref, TS, TD]) SetTimer(name string, message any, delay time.Duration, repeat bool) {
	if f.debugEvent {
		f.logger.Debugw("timer set", "name", name, "delay", delay, "repeat", repeat)
	}
	f.timers.Set(name, message, delay, repeat)
}

// CancelTimer cancels the named timer. Idempotent.
func (f *FSM[Ref, TS, TD]) CancelTimer(name string) {
	if f.debugEvent {
		f.logger.Debugw("timer cancelled", "name", name)
	}
	f.timers.Cancel(name)
}

// IsTimerActive reports whether name currently has a live entry.
func (f *FSM[Ref, TS, TD]) IsTimerActive(name string) bool {
	return f.timers.IsActive(name)
}

// SubscriberCount reports the number of current transition observers (debug/tests).
func (f *FSM[Ref, TS, TD]) SubscriberCount() int {
	return f.subs.Len()
}

// Transform wraps handler so its result is post-processed by wrap before being returned
// to the kernel.
func Transform[TS comparable, TD any](handler Handler[TS, TD], wrap func(Transition[TS, TD]) Transition[TS, TD]) Handler[TS, TD] {
	return func(ev Event[TD]) HandlerResult[TS, TD] {
		res := handler(ev)
		if !res.Handled {
			return res
		}
		return Handle(wrap(res.Descriptor))
	}
}

func (f *FSM[Ref, TS, TD]) effectiveTimeout(name TS, override *time.Duration) (time.Duration, bool) {
	if override != nil {
		if *override == Infinite {
			return 0, false
		}
		return *override, true
	}
	if d, ok := f.registry.DefaultTimeout(name); ok {
		if d == Infinite {
			return 0, false
		}
		return d, true
	}
	return 0, false
}

func (f *FSM[Ref, TS, TD]) armTimeout(d time.Duration, ok bool) {
	if f.stateTimeoutCancel != nil {
		f.stateTimeoutCancel()
		f.stateTimeoutCancel = nil
	}
	if !ok {
		return
	}
	generation := f.currentGeneration
	f.stateTimeoutCancel = f.scheduler.ScheduleOnce(d, func() {
		f.mailbox.Tell(f.self, StateTimeoutMarker{Generation: generation})
	})
}
