package fsm

import "time"

// Transition is the fluent, immutable value a handler returns to instruct the kernel
// what to do next: goto/stay/stop, with optional new data, a per-transition timeout
// override, accumulated replies, and a stop reason. Every builder method returns a fresh
// value; the kernel treats a Transition as immutable once returned from a handler.
type Transition[TS comparable, TD any] struct {
	StateName       TS
	StateData       TD
	timeoutSet      bool
	timeoutOverride time.Duration
	stopReasonSet   bool
	stopReason      Reason
	replies         []any
}

// Goto produces a descriptor targeting name, carrying data as its state data.
func Goto[TS comparable, TD any](name TS, data TD) Transition[TS, TD] {
	return Transition[TS, TD]{StateName: name, StateData: data}
}

// Stay is Goto(currentStateName, currentData) — a self-loop unless later mutated.
func Stay[TS comparable, TD any](currentName TS, currentData TD) Transition[TS, TD] {
	return Goto(currentName, currentData)
}

// Stop marks currentName/currentData as terminating with ReasonNormal.
func Stop[TS comparable, TD any](currentName TS, currentData TD) Transition[TS, TD] {
	return Stay(currentName, currentData).WithStopReason(Normal())
}

// StopWithReason marks currentName/currentData as terminating with the given reason.
func StopWithReason[TS comparable, TD any](currentName TS, currentData TD, reason Reason) Transition[TS, TD] {
	return Stay(currentName, currentData).WithStopReason(reason)
}

// Using replaces the state data, returning a fresh descriptor.
func (t Transition[TS, TD]) Using(data TD) Transition[TS, TD] {
	t.StateData = data
	return t
}

// ForMax sets a per-transition timeout override. Passing Infinite cancels any timeout
// (stored as "none") rather than arming one.
func (t Transition[TS, TD]) ForMax(d time.Duration) Transition[TS, TD] {
	if d == Infinite {
		t.timeoutSet = false
		t.timeoutOverride = 0
		return t
	}
	t.timeoutSet = true
	t.timeoutOverride = d
	return t
}

// TimeoutOverride returns the configured per-transition timeout and whether one is set.
func (t Transition[TS, TD]) TimeoutOverride() (time.Duration, bool) {
	return t.timeoutOverride, t.timeoutSet
}

// Replying appends value to the accumulated reply list, preserving call order: the first
// Replying call is the first value delivered to the sender.
func (t Transition[TS, TD]) Replying(value any) Transition[TS, TD] {
	next := make([]any, len(t.replies)+1)
	copy(next, t.replies)
	next[len(t.replies)] = value
	t.replies = next
	return t
}

// Replies returns the accumulated reply list in delivery order.
func (t Transition[TS, TD]) Replies() []any {
	return t.replies
}

// WithStopReason marks the descriptor as terminating with reason.
func (t Transition[TS, TD]) WithStopReason(reason Reason) Transition[TS, TD] {
	t.stopReasonSet = true
	t.stopReason = reason
	return t
}

// StopReason returns the configured stop reason and whether the descriptor terminates.
func (t Transition[TS, TD]) StopReason() (Reason, bool) {
	return t.stopReason, t.stopReasonSet
}

// IsStop reports whether this descriptor carries a stop reason.
func (t Transition[TS, TD]) IsStop() bool {
	return t.stopReasonSet
}

// Equal reports structural equality across all five fields. dataEqual compares TD values
// (TD is not itself constrained to be comparable, since arbitrary state-data types are
// allowed).
func (t Transition[TS, TD]) Equal(other Transition[TS, TD], dataEqual func(a, b TD) bool) bool {
	if t.StateName != other.StateName {
		return false
	}
	if !dataEqual(t.StateData, other.StateData) {
		return false
	}
	if t.timeoutSet != other.timeoutSet || (t.timeoutSet && t.timeoutOverride != other.timeoutOverride) {
		return false
	}
	if t.stopReasonSet != other.stopReasonSet {
		return false
	}
	if t.stopReasonSet && (t.stopReason.Kind != other.stopReason.Kind || t.stopReason.Cause != other.stopReason.Cause) {
		return false
	}
	if len(t.replies) != len(other.replies) {
		return false
	}
	for i := range t.replies {
		if t.replies[i] != other.replies[i] {
			return false
		}
	}
	return true
}
