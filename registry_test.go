package fsm

import (
	"testing"
	"time"
)

type regState string

const (
	regIdle   regState = "Idle"
	regActive regState = "Active"
)

func TestRegistryLookupUnknown(t *testing.T) {
	r := NewRegistry[regState, int](func(ev Event[int]) HandlerResult[regState, int] {
		return Handle(Stay(regIdle, ev.StateData))
	})

	if _, ok := r.Lookup(regIdle); ok {
		t.Fatalf("expected no handler registered yet")
	}
	if r.Has(regIdle) {
		t.Fatalf("expected Has to report false before Register")
	}
}

func TestRegistryChaining(t *testing.T) {
	r := NewRegistry[regState, int](func(ev Event[int]) HandlerResult[regState, int] {
		return Handle(Stay(regIdle, ev.StateData))
	})

	var firstCalled, secondCalled bool
	r.Register(regIdle, func(ev Event[int]) HandlerResult[regState, int] {
		firstCalled = true
		return Handle(Goto(regActive, ev.StateData))
	}, nil)
	r.Register(regIdle, func(ev Event[int]) HandlerResult[regState, int] {
		secondCalled = true
		return NotHandled[regState, int]()
	}, nil)

	handler, ok := r.Lookup(regIdle)
	if !ok {
		t.Fatalf("expected handler registered")
	}
	res := handler(Event[int]{Payload: "go", StateData: 0})
	if !firstCalled {
		t.Fatalf("expected the first-registered handler to run first")
	}
	if secondCalled {
		t.Fatalf("expected the second handler to be skipped once the first one handled it")
	}
	if !res.Handled || res.Descriptor.StateName != regActive {
		t.Fatalf("expected a handled Goto(Active), got %+v", res)
	}
}

func TestRegistryChainFallsThroughOnNotHandled(t *testing.T) {
	r := NewRegistry[regState, int](func(ev Event[int]) HandlerResult[regState, int] {
		return Handle(Stay(regIdle, ev.StateData))
	})

	r.Register(regIdle, func(ev Event[int]) HandlerResult[regState, int] {
		return NotHandled[regState, int]()
	}, nil)
	r.Register(regIdle, func(ev Event[int]) HandlerResult[regState, int] {
		return Handle(Goto(regActive, ev.StateData))
	}, nil)

	handler, _ := r.Lookup(regIdle)
	res := handler(Event[int]{StateData: 0})
	if !res.Handled || res.Descriptor.StateName != regActive {
		t.Fatalf("expected the fallback to the later-registered handler, got %+v", res)
	}
}

func TestRegistryDefaultTimeoutFirstWins(t *testing.T) {
	r := NewRegistry[regState, int](func(ev Event[int]) HandlerResult[regState, int] {
		return Handle(Stay(regIdle, ev.StateData))
	})

	first := 10 * time.Millisecond
	second := 20 * time.Millisecond
	r.Register(regIdle, func(ev Event[int]) HandlerResult[regState, int] { return NotHandled[regState, int]() }, &first)
	r.Register(regIdle, func(ev Event[int]) HandlerResult[regState, int] { return NotHandled[regState, int]() }, &second)

	d, ok := r.DefaultTimeout(regIdle)
	if !ok || d != first {
		t.Fatalf("expected first-registered timeout %v to win, got %v (ok=%v)", first, d, ok)
	}
}

func TestRegistrySetStateTimeoutOverwrites(t *testing.T) {
	r := NewRegistry[regState, int](func(ev Event[int]) HandlerResult[regState, int] {
		return Handle(Stay(regIdle, ev.StateData))
	})
	r.SetStateTimeout(regIdle, 5*time.Millisecond)
	r.SetStateTimeout(regIdle, 15*time.Millisecond)

	d, ok := r.DefaultTimeout(regIdle)
	if !ok || d != 15*time.Millisecond {
		t.Fatalf("expected SetStateTimeout to overwrite, got %v", d)
	}
}

func TestRegistrySetStateTimeoutDoesNotRegisterHandler(t *testing.T) {
	r := NewRegistry[regState, int](func(ev Event[int]) HandlerResult[regState, int] {
		return Handle(Stay(regIdle, ev.StateData))
	})
	r.SetStateTimeout(regActive, 5*time.Millisecond)

	if r.Has(regActive) {
		t.Fatalf("expected SetStateTimeout alone not to register a handler for the state")
	}
	if _, ok := r.Lookup(regActive); ok {
		t.Fatalf("expected Lookup to report no handler for a timeout-only state")
	}
}

func TestRegistryUnhandledComposition(t *testing.T) {
	var calls []string
	r := NewRegistry[regState, int](func(ev Event[int]) HandlerResult[regState, int] {
		calls = append(calls, "default")
		return Handle(Stay(regIdle, ev.StateData))
	})
	r.SetUnhandled(func(ev Event[int]) HandlerResult[regState, int] {
		calls = append(calls, "custom")
		return NotHandled[regState, int]()
	})

	res := r.Unhandled(Event[int]{StateData: 1})
	if len(calls) != 2 || calls[0] != "custom" || calls[1] != "default" {
		t.Fatalf("expected custom handler to run before the built-in default, got %v", calls)
	}
	if !res.Handled {
		t.Fatalf("expected the built-in default to ultimately handle the event")
	}
}
