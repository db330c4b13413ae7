// Package host is a minimal reference implementation of the ActorContext/Scheduler
// capabilities the fsm package consumes from its host (spec.md §1). It is explicitly NOT
// part of the reusable core — spec.md's Non-goals exclude the actor runtime itself
// (mailbox, dispatcher, supervision) — and exists only so this repository's own tests and
// demo binary can exercise the kernel end to end.
//
// The mailbox/dispatch shape is grounded on the teacher's own events-channel event loop
// (librescoot/librefsm's Machine.eventLoop) and on carbynestack-ephemeral's
// pkg/discovery/fsm.Run select-loop over a ping channel and a timer channel.
package host

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/actorkit/fsm"
)

// Ref is an opaque actor reference, comparable so it can key the fsm package's
// subscription set.
type Ref struct {
	id   uuid.UUID
	name string
}

// NewRef allocates a fresh Ref. name is a human-readable label used only for logging.
func NewRef(name string) Ref {
	return Ref{id: uuid.New(), name: name}
}

// String renders the ref for debug logs and as the default "source" label on
// kernel-dispatched events.
func (r Ref) String() string {
	if r.name != "" {
		return r.name
	}
	return r.id.String()
}

// envelope pairs a message with the ref it was sent from, preserved across the inbox
// channel so ProcessMessage always sees the true sender_ref (spec.md §1).
type envelope struct {
	msg  any
	from Ref
}

// Actor is anything that can accept a dispatched message and a termination notice.
// *fsm.FSM[Ref, TS, TD] satisfies the message half via ProcessMessage; an actor that also
// has a PostStop method gets it called on its serving goroutine once System.Stop closes
// its mailbox.
type Actor interface {
	ProcessMessage(msg any, sender Ref) error
}

// mailbox is a single actor's FIFO inbox, served by exactly one goroutine — the
// concurrency model spec.md §5 requires ("every handler invocation ... happens on the
// FSM's serialized execution context").
type mailbox struct {
	ref    Ref
	actor  Actor
	inbox  chan envelope
	done   chan struct{}
	logger *zap.SugaredLogger
}

// System is a tiny local registry of mailboxes, giving watch/unwatch, stop, and strict
// per-actor FIFO delivery — enough to exercise the fsm package's ObserverTerminated path
// and the host's post-stop safety net (spec.md §4.4.5).
type System struct {
	mu        sync.Mutex
	mailboxes map[Ref]*mailbox
	watchers  map[Ref]map[Ref]struct{} // watched -> set of watchers
	logger    *zap.SugaredLogger
}

// NewSystem constructs an empty actor registry logging through logger.
func NewSystem(logger *zap.SugaredLogger) *System {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &System{
		mailboxes: make(map[Ref]*mailbox),
		watchers:  make(map[Ref]map[Ref]struct{}),
		logger:    logger,
	}
}

// Spawn registers actor under ref with a buffered inbox and starts its serving goroutine.
func (s *System) Spawn(ref Ref, actor Actor, bufferSize int) {
	m := &mailbox{
		ref:    ref,
		actor:  actor,
		inbox:  make(chan envelope, bufferSize),
		done:   make(chan struct{}),
		logger: s.logger,
	}
	s.mu.Lock()
	s.mailboxes[ref] = m
	s.mu.Unlock()

	go s.serve(m)
}

func (s *System) serve(m *mailbox) {
	for {
		select {
		case env := <-m.inbox:
			if err := m.actor.ProcessMessage(env.msg, env.from); err != nil {
				m.logger.Errorw("actor handler error", "actor", m.ref.String(), "error", err)
			}
		case <-m.done:
			if ps, ok := m.actor.(interface{ PostStop() }); ok {
				ps.PostStop()
			}
			return
		}
	}
}

// Tell delivers msg to target's mailbox, fire-and-forget, satisfying fsm.Mailbox[Ref].
func (s *System) Tell(target Ref, msg any) {
	s.TellFrom(target, Ref{}, msg)
}

// TellFrom delivers msg to target's mailbox as if sent by from.
func (s *System) TellFrom(target Ref, from Ref, msg any) {
	s.mu.Lock()
	m, ok := s.mailboxes[target]
	s.mu.Unlock()
	if !ok {
		s.logger.Warnw("tell to unknown actor dropped", "target", target.String())
		return
	}
	select {
	case m.inbox <- envelope{msg: msg, from: from}:
	default:
		s.logger.Warnw("mailbox full, message dropped", "target", target.String())
	}
}

// Watch registers watcher's interest in target's termination, satisfying
// fsm.Watcher[Ref].
func (s *System) Watch(watcher Ref, target Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.watchers[target]
	if !ok {
		set = make(map[Ref]struct{})
		s.watchers[target] = set
	}
	set[watcher] = struct{}{}
}

// Unwatch removes watcher's interest in target.
func (s *System) Unwatch(watcher Ref, target Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.watchers[target]; ok {
		delete(set, watcher)
	}
}

// Stop tears down target's mailbox and notifies every watcher with an
// fsm.ObserverTerminated{Observer: target} message.
func (s *System) Stop(target Ref) {
	s.mu.Lock()
	m, ok := s.mailboxes[target]
	watchers := s.watchers[target]
	delete(s.mailboxes, target)
	delete(s.watchers, target)
	s.mu.Unlock()

	if ok {
		close(m.done)
	}
	for watcher := range watchers {
		s.Tell(watcher, fsm.ObserverTerminated[Ref]{Observer: target})
	}
}
