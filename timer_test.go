package fsm

import (
	"testing"
	"time"
)

func TestTimerTableSetAndAdmit(t *testing.T) {
	sched := &fakeScheduler{}
	mbox := &fakeMailbox[string]{}
	table := NewTimerTable[string]("self", sched, mbox)

	table.Set("t", "tick", 10*time.Millisecond, false)
	sched.fireAllOnce()

	if len(mbox.sent) != 1 {
		t.Fatalf("expected exactly one posted TimerRecord, got %d", len(mbox.sent))
	}
	record, ok := mbox.sent[0].msg.(TimerRecord)
	if !ok {
		t.Fatalf("expected a TimerRecord, got %T", mbox.sent[0].msg)
	}
	if !table.Admit(record) {
		t.Fatalf("expected the first firing to be admitted")
	}
	if table.IsActive("t") {
		t.Fatalf("expected a one-shot timer to be cleared after admission")
	}
}

func TestTimerTableRaceDefeat(t *testing.T) {
	// Reproduces spec scenario S2: a timer is cancelled the instant its first firing is
	// processed, even though the scheduler may have already queued a second firing.
	sched := &fakeScheduler{}
	mbox := &fakeMailbox[string]{}
	table := NewTimerTable[string]("self", sched, mbox)

	table.Set("t", "tick", 10*time.Millisecond, true)
	sched.fireRepeating() // first in-flight firing
	sched.fireRepeating() // second in-flight firing queued before cancellation

	first := mbox.sent[0].msg.(TimerRecord)
	second := mbox.sent[1].msg.(TimerRecord)

	if !table.Admit(first) {
		t.Fatalf("expected the first firing to be admitted")
	}
	table.Cancel("t")

	if table.Admit(second) {
		t.Fatalf("expected the second firing to be rejected once the timer was cancelled")
	}
}

func TestTimerTableRestartInvalidatesPriorGeneration(t *testing.T) {
	sched := &fakeScheduler{}
	mbox := &fakeMailbox[string]{}
	table := NewTimerTable[string]("self", sched, mbox)

	table.Set("t", "tick", 10*time.Millisecond, false)
	sched.fireAllOnce()
	stale := mbox.sent[0].msg.(TimerRecord)

	// Restart with identical parameters before the stale firing is admitted.
	table.Set("t", "tick", 10*time.Millisecond, false)

	if table.Admit(stale) {
		t.Fatalf("expected the stale generation to be rejected even with identical parameters")
	}
}

func TestTimerTableCancelAllClearsEverything(t *testing.T) {
	sched := &fakeScheduler{}
	mbox := &fakeMailbox[string]{}
	table := NewTimerTable[string]("self", sched, mbox)

	table.Set("a", "x", time.Millisecond, false)
	table.Set("b", "y", time.Millisecond, true)
	table.CancelAll()

	if table.IsActive("a") || table.IsActive("b") {
		t.Fatalf("expected CancelAll to clear every entry")
	}
}

func TestTimerTableAdmitUnknownName(t *testing.T) {
	sched := &fakeScheduler{}
	mbox := &fakeMailbox[string]{}
	table := NewTimerTable[string]("self", sched, mbox)

	if table.Admit(TimerRecord{Name: "never-set", Generation: 0}) {
		t.Fatalf("expected a record for an unknown timer name to be rejected")
	}
}
