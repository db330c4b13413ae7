package host

import "github.com/actorkit/fsm"

// Context binds a single actor's Ref to the shared System/Scheduler/Logger, producing the
// narrow single-argument Tell/Watch/Unwatch/Stop capabilities fsm.ActorContext expects.
// One Context is constructed per spawned actor; it carries no per-message state, so the
// same value is reused across every ProcessMessage call for that actor (sender is threaded
// as a ProcessMessage argument, not stored here — see fsm.FSM.ProcessMessage).
type Context struct {
	self      Ref
	system    *System
	scheduler *Scheduler
	logger    *ZapLogger
}

// NewContext builds a Context for self, backed by system/scheduler/logger.
func NewContext(self Ref, system *System, scheduler *Scheduler, logger *ZapLogger) *Context {
	return &Context{self: self, system: system, scheduler: scheduler, logger: logger}
}

func (c *Context) Self() Ref { return c.self }

// Sender always returns the zero Ref here: the kernel reads sender_ref per-message from
// ProcessMessage's own sender argument, not from ActorContext, so this is never consulted
// by fsm.FSM. It exists only to satisfy the interface.
func (c *Context) Sender() Ref { return Ref{} }

func (c *Context) Scheduler() fsm.Scheduler { return c.scheduler }

func (c *Context) Mailbox() fsm.Mailbox[Ref] { return mailboxAdapter{system: c.system} }

func (c *Context) Watcher() fsm.Watcher[Ref] { return watcherAdapter{self: c.self, system: c.system} }

func (c *Context) Stop(ref Ref) { c.system.Stop(ref) }

func (c *Context) Logger() fsm.Logger { return c.logger }

type mailboxAdapter struct{ system *System }

func (m mailboxAdapter) Tell(target Ref, msg any) { m.system.Tell(target, msg) }

type watcherAdapter struct {
	self   Ref
	system *System
}

func (w watcherAdapter) Watch(target Ref)   { w.system.Watch(w.self, target) }
func (w watcherAdapter) Unwatch(target Ref) { w.system.Unwatch(w.self, target) }
