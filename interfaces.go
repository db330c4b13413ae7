package fsm

import "time"

// CancelFunc cancels a scheduled task. Calling it more than once, or after the task has
// already fired, is a safe no-op.
type CancelFunc func()

// Scheduler is the abstract capability the kernel uses to arm timers and state-entry
// timeouts. The host's scheduler runs tasks on its own goroutine(s); tasks must only post
// messages back into the FSM's mailbox (via ActorContext.Self), never touch FSM state
// directly.
type Scheduler interface {
	// ScheduleOnce runs task once after delay and returns a func to cancel it.
	ScheduleOnce(delay time.Duration, task func()) CancelFunc
	// ScheduleRepeating runs task every interval, first after initial, and returns a func
	// to cancel it.
	ScheduleRepeating(initial, interval time.Duration, task func()) CancelFunc
}

// Mailbox is the narrow send-only capability the kernel needs to deliver gossip,
// replies, and re-post timer/state-timeout records to itself and to observers.
type Mailbox[Ref any] interface {
	// Tell delivers msg to target's mailbox, fire-and-forget.
	Tell(target Ref, msg any)
}

// Watcher lets the kernel register interest in an observer's termination, so the
// subscription set can prune references to dead observers.
type Watcher[Ref any] interface {
	Watch(target Ref)
	Unwatch(target Ref)
}

// Logger is the structured-logging capability the kernel uses for debug-event traces and
// termination-failure logging. Implementations are expected to wrap something like
// *zap.SugaredLogger; see internal/host.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

// ActorContext supplies the identity and capabilities the kernel needs from its host:
// self ref, the sender ref of the in-flight message, a scheduler, a watch/unwatch
// facility, a stop primitive, and a logger. Ref is the host's opaque actor reference type
// (comparable, used as a map key by the subscription set).
type ActorContext[Ref comparable] interface {
	Self() Ref
	Sender() Ref
	Scheduler() Scheduler
	Mailbox() Mailbox[Ref]
	Watcher() Watcher[Ref]
	Stop(ref Ref)
	Logger() Logger
}
