package fsm

import (
	"fmt"
	"time"
)

// ProcessMessage is the single entry point the host's mailbox dispatcher calls for every
// message delivered to this actor, in strict FIFO order. sender is the sender ref of the
// in-flight message. It classifies the message (timer firing, state timeout, subscription
// control, or user event). It returns ErrNotInitialized before Initialize has run and nil
// otherwise; handlers return no error, and a panic raised by handler code propagates to
// the host unchanged — this package takes no special action on it.
func (f *FSM[Ref, TS, TD]) ProcessMessage(msg any, sender Ref) error {
	if !f.initialized {
		return ErrNotInitialized
	}
	if f.terminated {
		return nil
	}

	switch m := msg.(type) {
	case StateTimeoutMarker:
		if m.Generation != f.currentGeneration {
			return nil // stale, drop silently
		}
		return f.dispatchUserEvent(StateTimeout{}, "state timeout", sender)

	case TimerRecord:
		if !f.timers.Admit(m) {
			if f.debugEvent {
				f.logger.Debugw("timer firing dropped (stale)", "name", m.Name, "generation", m.Generation)
			}
			return nil
		}
		if f.debugEvent {
			f.logger.Debugw("timer fired", "name", m.Name)
		}
		f.cancelStateTimeout()
		f.currentGeneration++
		return f.dispatchUserEvent(m.Payload, fmt.Sprintf("timer '%s'", m.Name), sender)

	case SubscribeTransitionCallback[Ref]:
		f.subs.Subscribe(m.Observer, f.current.StateName)
		return nil
	case Listen[Ref]:
		f.subs.Subscribe(m.Observer, f.current.StateName)
		return nil

	case UnsubscribeTransitionCallback[Ref]:
		f.subs.Unsubscribe(m.Observer)
		return nil
	case Deafen[Ref]:
		f.subs.Unsubscribe(m.Observer)
		return nil

	case ObserverTerminated[Ref]:
		f.subs.RemoveTerminated(m.Observer)
		return nil

	default:
		f.cancelStateTimeout()
		f.currentGeneration++
		return f.dispatchUserEvent(msg, fmt.Sprintf("%v", sender), sender)
	}
}

func (f *FSM[Ref, TS, TD]) cancelStateTimeout() {
	if f.stateTimeoutCancel != nil {
		f.stateTimeoutCancel()
		f.stateTimeoutCancel = nil
	}
}

// dispatchUserEvent constructs the Event, looks up the handler for the current state,
// falls through to the unhandled handler if needed, then applies the resulting
// descriptor.
func (f *FSM[Ref, TS, TD]) dispatchUserEvent(payload any, source string, sender Ref) error {
	if f.debugEvent {
		f.logger.Debugw("processing event", "event", payload, "source", source, "state", f.current.StateName)
	}

	ev := Event[TD]{Payload: payload, StateData: f.current.StateData, Source: source}

	handler, ok := f.registry.Lookup(f.current.StateName)
	var res HandlerResult[TS, TD]
	if ok {
		res = handler(ev)
	}
	if !ok || !res.Handled {
		res = f.registry.Unhandled(ev)
	}

	return f.apply(res.Descriptor, sender)
}

// apply delivers replies, then either runs the termination branch or the transition
// branch. sender is who the accumulated replies go to: the sender ref of the message
// that produced the descriptor.
func (f *FSM[Ref, TS, TD]) apply(descriptor Transition[TS, TD], sender Ref) error {
	if reason, stopping := descriptor.StopReason(); stopping {
		f.deliverReplies(descriptor.Replies(), sender)
		f.runTermination(reason, descriptor.StateName, descriptor.StateData)
		f.stop(f.self)
		return nil
	}
	return f.makeTransition(descriptor, sender)
}

// makeTransition implements spec.md §4.4.3's transition branch.
func (f *FSM[Ref, TS, TD]) makeTransition(descriptor Transition[TS, TD], sender Ref) error {
	if !f.registry.Has(descriptor.StateName) {
		synthetic := StopWithReason(f.current.StateName, f.current.StateData,
			Failure(&ErrUnknownTargetState{State: descriptor.StateName}))
		return f.apply(synthetic, sender)
	}

	f.deliverReplies(descriptor.Replies(), sender)

	from := f.current.StateName
	to := descriptor.StateName
	if from != to {
		f.inTransition = true
		f.nextState = descriptor
		for _, hook := range f.onTransitionHooks {
			hook(from, to)
		}
		f.inTransition = false

		if f.debugEvent {
			f.logger.Debugw("transition", "from", from, "to", to)
		}
		f.subs.Gossip(from, to)
	} else if f.debugEvent {
		f.logger.Debugw("transition", "from", from, "to", to, "self", true)
	}

	f.current = Goto(descriptor.StateName, descriptor.StateData)

	timeout, ok := descriptor.TimeoutOverride()
	var effective time.Duration
	var haveTimeout bool
	if ok {
		effective, haveTimeout = f.effectiveTimeout(descriptor.StateName, &timeout)
	} else {
		effective, haveTimeout = f.effectiveTimeout(descriptor.StateName, nil)
	}
	f.armTimeout(effective, haveTimeout)
	return nil
}

// deliverReplies sends each reply to sender, in the order the handler called .Replying
// (spec.md §9's resolution of the reversed-vs-appended ambiguity), before any transition
// event this descriptor produces is gossiped (spec.md invariant 6).
func (f *FSM[Ref, TS, TD]) deliverReplies(replies []any, sender Ref) {
	for _, reply := range replies {
		f.mailbox.Tell(sender, reply)
	}
}

// runTermination implements spec.md §4.4.5. It runs at most once.
func (f *FSM[Ref, TS, TD]) runTermination(reason Reason, state TS, data TD) {
	if f.terminated {
		return
	}
	f.terminated = true

	f.logTermination(reason)
	f.timers.CancelAll()
	f.cancelStateTimeout()
	f.current = Goto(state, data).WithStopReason(reason)

	f.finalizer(StopEvent[TS, TD]{Reason: reason, TerminatedState: state, StateData: data})
}

func (f *FSM[Ref, TS, TD]) logTermination(reason Reason) {
	if reason.Kind != ReasonFailure {
		return
	}
	if reason.Cause == nil {
		f.logger.Errorw("fsm terminated", "reason", reason.Kind.String())
		return
	}
	fields := []any{"reason", reason.Kind.String(), "cause", reason.Cause.Error()}
	if tracer, ok := reason.Cause.(interface{ StackTrace() string }); ok {
		fields = append(fields, "stack", tracer.StackTrace())
	}
	f.logger.Errorw("fsm terminated", fields...)
}

// PostStop is the host's post-stop safety net (spec.md §4.4.5): it runs the termination
// sequence with ReasonShutdown if nothing else has terminated the FSM yet.
func (f *FSM[Ref, TS, TD]) PostStop() {
	f.runTermination(Shutdown(), f.current.StateName, f.current.StateData)
}
