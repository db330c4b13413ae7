package fsm

import "time"

// timer is the bookkeeping record for one named timer: its message, whether it repeats,
// the generation it was created under, and the cancel token for its scheduled task.
type timer struct {
	message    any
	repeat     bool
	generation uint64
	cancel     CancelFunc
}

// TimerTable is the named-timer subsystem: SetTimer/CancelTimer/IsTimerActive, with a
// monotonic generation counter per FSM instance that defeats the classic "timer fired
// just as it was cancelled" race.
//
// A TimerTable is confined to the kernel's serialized execution context; the scheduler's
// own goroutine only ever touches the CancelFunc it was handed and posts a TimerRecord
// back into the mailbox — it never reaches into the table directly.
type TimerTable[Ref comparable] struct {
	self      Ref
	scheduler Scheduler
	mailbox   Mailbox[Ref]
	entries   map[string]*timer
	nextGen   uint64
}

// NewTimerTable constructs an empty table bound to self's mailbox and scheduler.
func NewTimerTable[Ref comparable](self Ref, scheduler Scheduler, mailbox Mailbox[Ref]) *TimerTable[Ref] {
	return &TimerTable[Ref]{
		self:      self,
		scheduler: scheduler,
		mailbox:   mailbox,
		entries:   make(map[string]*timer),
	}
}

// Set starts (or restarts) a named timer. If one already exists under name it is
// cancelled first. A fresh generation is allocated unconditionally, so even a timer
// restarted with identical parameters invalidates any in-flight firing of its
// predecessor.
func (t *TimerTable[Ref]) Set(name string, message any, delay time.Duration, repeat bool) {
	t.Cancel(name)

	t.nextGen++
	generation := t.nextGen

	var cancel CancelFunc
	post := func() {
		t.mailbox.Tell(t.self, TimerRecord{Name: name, Payload: message, Generation: generation})
	}
	if repeat {
		cancel = t.scheduler.ScheduleRepeating(delay, delay, post)
	} else {
		cancel = t.scheduler.ScheduleOnce(delay, post)
	}

	t.entries[name] = &timer{
		message:    message,
		repeat:     repeat,
		generation: generation,
		cancel:     cancel,
	}
}

// Cancel cancels the token and removes the entry for name. Idempotent.
func (t *TimerTable[Ref]) Cancel(name string) {
	entry, ok := t.entries[name]
	if !ok {
		return
	}
	entry.cancel()
	delete(t.entries, name)
}

// CancelAll cancels every timer in the table and clears it — used by the termination
// sequence.
func (t *TimerTable[Ref]) CancelAll() {
	for name := range t.entries {
		t.Cancel(name)
	}
}

// IsActive reports whether name currently has a live entry. For a one-shot timer whose
// firing has been enqueued but not yet processed by the kernel, the entry is still
// present — it is only removed at processing time.
func (t *TimerTable[Ref]) IsActive(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// Admit implements the race-defeat rule: a firing is honored only if an entry still
// exists under record.Name AND its generation matches record.Generation. On a one-shot
// admission, the entry is removed before the caller dispatches the payload as a user
// message.
func (t *TimerTable[Ref]) Admit(record TimerRecord) bool {
	entry, ok := t.entries[record.Name]
	if !ok || entry.generation != record.Generation {
		return false
	}
	if !entry.repeat {
		delete(t.entries, record.Name)
	}
	return true
}
