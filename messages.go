package fsm

// TimerRecord is the bookkeeping message a scheduled timer task posts back into the FSM's
// own mailbox when it fires. It carries the timer's name, payload, and the generation it
// was created with — never the payload alone — so the kernel can run the admission check
// before honoring it.
type TimerRecord struct {
	Name       string
	Payload    any
	Generation uint64
}

// StateTimeoutMarker is the internal sentinel message for a state-entry timeout firing.
type StateTimeoutMarker struct {
	Generation uint64
}

// SubscribeTransitionCallback requests that Observer be added to the transition listener
// set.
type SubscribeTransitionCallback[Ref any] struct{ Observer Ref }

// UnsubscribeTransitionCallback requests that Observer be removed from the listener set.
type UnsubscribeTransitionCallback[Ref any] struct{ Observer Ref }

// Listen is the alternate-channel equivalent of SubscribeTransitionCallback: a parallel
// Listen/Deafen admission channel whose semantics are identical.
type Listen[Ref any] struct{ Observer Ref }

// Deafen is the alternate-channel equivalent of UnsubscribeTransitionCallback.
type Deafen[Ref any] struct{ Observer Ref }

// ObserverTerminated is delivered by the host's lifecycle-watch facility when a watched
// observer dies; the kernel removes it from the listener set without unwatching (it's
// already gone).
type ObserverTerminated[Ref any] struct{ Observer Ref }

// CurrentState is sent once to a newly subscribed observer as a baseline, before any
// Transition it subsequently witnesses.
type CurrentState[Ref any, TS any] struct {
	Self  Ref
	State TS
}

// TransitionNotice is gossiped to every observer on a real transition (source != target).
// Named distinctly from the Transition descriptor type to avoid confusion between "the
// value a handler returns" and "the event an observer receives".
type TransitionNotice[Ref any, TS any] struct {
	Self Ref
	From TS
	To   TS
}
