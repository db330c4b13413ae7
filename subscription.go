package fsm

// Subscriptions maintains the set of transition observers and gossips CurrentState/
// Transition events to them, preserving causal delivery order per observer: CurrentState
// first, then the contiguous sequence of Transitions it witnesses.
//
// Confined to the kernel's serialized execution context, like TimerTable; no locking is
// required.
type Subscriptions[Ref comparable, TS any] struct {
	self      Ref
	watcher   Watcher[Ref]
	mailbox   Mailbox[Ref]
	observers map[Ref]struct{}
}

// NewSubscriptions constructs an empty observer set for self.
func NewSubscriptions[Ref comparable, TS any](self Ref, watcher Watcher[Ref], mailbox Mailbox[Ref]) *Subscriptions[Ref, TS] {
	return &Subscriptions[Ref, TS]{
		self:      self,
		watcher:   watcher,
		mailbox:   mailbox,
		observers: make(map[Ref]struct{}),
	}
}

// Subscribe watches observer, adds it to the set, and immediately sends it a CurrentState
// baseline. Sending the baseline synchronously, inside the same serialized receive that
// admitted the subscribe message, is what guarantees a new subscriber never observes a
// Transition before its CurrentState.
func (s *Subscriptions[Ref, TS]) Subscribe(observer Ref, currentState TS) {
	s.watcher.Watch(observer)
	s.observers[observer] = struct{}{}
	s.mailbox.Tell(observer, CurrentState[Ref, TS]{Self: s.self, State: currentState})
}

// Unsubscribe unwatches observer and removes it from the set.
func (s *Subscriptions[Ref, TS]) Unsubscribe(observer Ref) {
	s.watcher.Unwatch(observer)
	delete(s.observers, observer)
}

// RemoveTerminated removes observer from the set without unwatching — it is already gone.
// On receipt of ObserverTerminated(ref), the subscriber is removed silently.
func (s *Subscriptions[Ref, TS]) RemoveTerminated(observer Ref) {
	delete(s.observers, observer)
}

// Gossip sends TransitionNotice(self, from, to) to every current observer. The kernel
// only calls this on a real transition (source != target); self-loops never gossip.
func (s *Subscriptions[Ref, TS]) Gossip(from, to TS) {
	for observer := range s.observers {
		s.mailbox.Tell(observer, TransitionNotice[Ref, TS]{Self: s.self, From: from, To: to})
	}
}

// Len reports the number of current observers, chiefly for tests and debug logging.
func (s *Subscriptions[Ref, TS]) Len() int {
	return len(s.observers)
}
