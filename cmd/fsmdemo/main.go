// Command fsmdemo wires the fsm kernel to the internal/host reference runtime and runs the
// ping/pong scenario end to end: Idle -> Active on "go", incrementing a counter on every
// "tick", stopping on "stop". It demonstrates the whole stack — config-driven timeouts, a
// hot-reloaded debug toggle, zap logging, an observer watching transition gossip, the
// debug HTTP/SSE surface, an external CloudEvents sink, and cron-driven housekeeping — the
// way a teacher's own cmd/ example wires its framework together end to end.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/actorkit/fsm"
	"github.com/actorkit/fsm/internal/config"
	"github.com/actorkit/fsm/internal/debugserver"
	"github.com/actorkit/fsm/internal/host"
	"github.com/actorkit/fsm/internal/transport/cloudevents"
)

type pingState string

const (
	stateIdle   pingState = "Idle"
	stateActive pingState = "Active"
)

func main() {
	topologyPath := flag.String("topology", "", "optional TOML file of per-state default timeouts")
	runtimePath := flag.String("runtime", "", "optional YAML file hot-reloading the debug_event toggle")
	listenAddr := flag.String("listen", ":8089", "debug server listen address")
	cloudeventsTarget := flag.String("cloudevents-target", "", "optional HTTP sink URL for external CloudEvents gossip")
	housekeepingCron := flag.String("housekeeping-cron", "@every 30s", "robfig/cron spec for periodic state-snapshot logging")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	timeouts := map[string]time.Duration{}
	if *topologyPath != "" {
		topo, err := config.LoadTopology(*topologyPath)
		if err != nil {
			sugar.Fatalw("load topology", "error", err)
		}
		timeouts, err = topo.Timeouts()
		if err != nil {
			sugar.Fatalw("resolve topology timeouts", "error", err)
		}
	}

	system := host.NewSystem(sugar)
	scheduler := host.NewScheduler()
	zapLogger := host.NewZapLogger(sugar)

	self := host.NewRef("pingpong")
	observer := host.NewRef("observer")

	ctx := host.NewContext(self, system, scheduler, zapLogger)
	machine := fsm.New[host.Ref, pingState, int](ctx, func(a, b int) bool { return a == b })

	var idleTimeout *time.Duration
	if d, ok := timeouts[string(stateIdle)]; ok {
		idleTimeout = &d
	}

	machine.When(stateIdle, func(ev fsm.Event[int]) fsm.HandlerResult[pingState, int] {
		if ev.Payload == "go" {
			return fsm.Handle(fsm.Goto(stateActive, 1))
		}
		return fsm.NotHandled[pingState, int]()
	}, derefOr(idleTimeout, fsm.Infinite))

	machine.When(stateActive, func(ev fsm.Event[int]) fsm.HandlerResult[pingState, int] {
		switch ev.Payload {
		case "tick":
			return fsm.Handle(fsm.Stay(stateActive, ev.StateData).Using(ev.StateData + 1))
		case "stop":
			return fsm.Handle(fsm.Stop(stateActive, ev.StateData))
		}
		return fsm.NotHandled[pingState, int]()
	})

	debug := debugserver.New(inspectableAdapter{machine: machine})

	machine.OnTransition(func(from, to pingState) {
		sugar.Infow("transition observed locally", "from", from, "to", to)
		debug.Publish(from, to)
	})
	machine.OnTermination(func(ev fsm.StopEvent[pingState, int]) {
		sugar.Infow("terminated", "reason", ev.Reason.String(), "state", ev.TerminatedState, "data", ev.StateData)
	})

	if *cloudeventsTarget != "" {
		sink, err := cloudevents.NewSink(*cloudeventsTarget, self.String())
		if err != nil {
			sugar.Fatalw("cloudevents sink", "error", err)
		}
		gossip := cloudevents.NewGossipObserver[pingState](sink, self.String())
		machine.OnTransition(gossip.Hook)
	}

	if *runtimePath != "" {
		rw, err := config.NewRuntimeWatcher(*runtimePath)
		if err != nil {
			sugar.Fatalw("runtime config", "error", err)
		}
		defer rw.Close()
		rw.OnLoad(func(r *config.Runtime) {
			sugar.Infow("runtime config reloaded", "debug_event", r.DebugEvent)
			machine.SetDebugEvent(r.DebugEvent)
		})
	}

	cancelHousekeeping, err := host.CronRepeating(*housekeepingCron, func() {
		sugar.Infow("housekeeping snapshot", "state", machine.StateName(), "subscribers", machine.SubscriberCount())
	})
	if err != nil {
		sugar.Fatalw("housekeeping cron", "error", err)
	}
	defer cancelHousekeeping()

	machine.StartWith(stateIdle, 0)
	if err := machine.Initialize(); err != nil {
		sugar.Fatalw("initialize", "error", err)
	}

	system.Spawn(self, machine, 16)

	go func() {
		sugar.Infow("debug server listening", "addr", *listenAddr)
		if err := http.ListenAndServe(*listenAddr, debug); err != nil && err != http.ErrServerClosed {
			sugar.Errorw("debug server", "error", err)
		}
	}()

	system.Spawn(observer, observerActor{logger: sugar}, 16)
	system.Tell(self, fsm.SubscribeTransitionCallback[host.Ref]{Observer: observer})

	system.Tell(self, "go")
	system.Tell(self, "tick")
	system.Tell(self, "tick")
	system.Tell(self, "stop")

	time.Sleep(200 * time.Millisecond)
}

func derefOr(d *time.Duration, fallback time.Duration) time.Duration {
	if d == nil {
		return fallback
	}
	return *d
}

type observerActor struct {
	logger *zap.SugaredLogger
}

func (o observerActor) ProcessMessage(msg any, sender host.Ref) error {
	switch m := msg.(type) {
	case fsm.CurrentState[host.Ref, pingState]:
		o.logger.Infow("observer: current state", "self", m.Self.String(), "state", m.State)
	case fsm.TransitionNotice[host.Ref, pingState]:
		o.logger.Infow("observer: transition", "self", m.Self.String(), "from", m.From, "to", m.To)
	}
	return nil
}

type inspectableAdapter struct {
	machine *fsm.FSM[host.Ref, pingState, int]
}

func (a inspectableAdapter) StateNameAny() any          { return a.machine.StateName() }
func (a inspectableAdapter) SubscriberCount() int       { return a.machine.SubscriberCount() }
func (a inspectableAdapter) SetDebugEvent(enabled bool) { a.machine.SetDebugEvent(enabled) }
