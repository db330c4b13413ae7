package fsm

import "time"

// fakeScheduler lets tests fire scheduled tasks deterministically instead of waiting on
// real timers, mirroring the librescoot-librefsm test suite's plain-testing-package style
// with a controllable clock substituted for time.Sleep-based assertions.
type fakeScheduler struct {
	onceTasks []func()
	repeating []func()
}

func (s *fakeScheduler) ScheduleOnce(delay time.Duration, task func()) CancelFunc {
	idx := len(s.onceTasks)
	s.onceTasks = append(s.onceTasks, task)
	return func() { s.onceTasks[idx] = nil }
}

func (s *fakeScheduler) ScheduleRepeating(initial, interval time.Duration, task func()) CancelFunc {
	idx := len(s.repeating)
	s.repeating = append(s.repeating, task)
	return func() { s.repeating[idx] = nil }
}

// fireAllOnce invokes every still-armed one-shot task once, then clears them. Slots are
// cleared in place rather than dropped, so a CancelFunc handed out earlier stays a safe
// no-op after its task has fired.
func (s *fakeScheduler) fireAllOnce() {
	for i, t := range s.onceTasks {
		if t != nil {
			s.onceTasks[i] = nil
			t()
		}
	}
}

// fireRepeating invokes every still-armed repeating task once, without clearing it.
func (s *fakeScheduler) fireRepeating() {
	for _, t := range s.repeating {
		if t != nil {
			t()
		}
	}
}

// fakeMailbox[Ref] records every Tell call in order, for assertions.
type fakeMailbox[Ref comparable] struct {
	sent []sentMessage[Ref]
}

type sentMessage[Ref comparable] struct {
	target Ref
	msg    any
}

func (m *fakeMailbox[Ref]) Tell(target Ref, msg any) {
	m.sent = append(m.sent, sentMessage[Ref]{target: target, msg: msg})
}

// fakeWatcher[Ref] records Watch/Unwatch calls.
type fakeWatcher[Ref comparable] struct {
	watched map[Ref]bool
}

func newFakeWatcher[Ref comparable]() *fakeWatcher[Ref] {
	return &fakeWatcher[Ref]{watched: make(map[Ref]bool)}
}

func (w *fakeWatcher[Ref]) Watch(target Ref)   { w.watched[target] = true }
func (w *fakeWatcher[Ref]) Unwatch(target Ref) { delete(w.watched, target) }

// fakeLogger discards everything; kernel tests assert on mailbox/state, not on log output.
type fakeLogger struct{}

func (fakeLogger) Debugw(string, ...any) {}
func (fakeLogger) Infow(string, ...any)  {}
func (fakeLogger) Warnw(string, ...any)  {}
func (fakeLogger) Errorw(string, ...any) {}

// fakeContext[Ref] implements ActorContext[Ref] over the fakes above.
type fakeContext[Ref comparable] struct {
	self      Ref
	scheduler *fakeScheduler
	mailbox   *fakeMailbox[Ref]
	watcher   *fakeWatcher[Ref]
	stopped   []Ref
}

func newFakeContext[Ref comparable](self Ref) *fakeContext[Ref] {
	return &fakeContext[Ref]{
		self:      self,
		scheduler: &fakeScheduler{},
		mailbox:   &fakeMailbox[Ref]{},
		watcher:   newFakeWatcher[Ref](),
	}
}

func (c *fakeContext[Ref]) Self() Ref             { return c.self }
func (c *fakeContext[Ref]) Sender() Ref           { var zero Ref; return zero }
func (c *fakeContext[Ref]) Scheduler() Scheduler  { return c.scheduler }
func (c *fakeContext[Ref]) Mailbox() Mailbox[Ref] { return c.mailbox }
func (c *fakeContext[Ref]) Watcher() Watcher[Ref] { return c.watcher }
func (c *fakeContext[Ref]) Stop(ref Ref)          { c.stopped = append(c.stopped, ref) }
func (c *fakeContext[Ref]) Logger() Logger        { return fakeLogger{} }
