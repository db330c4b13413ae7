// Package cloudevents encodes transition gossip (fsm.CurrentState / fsm.TransitionNotice)
// as CloudEvents and delivers them to configured HTTP sinks, giving external observers
// (dashboards, audit pipelines) a wire format for the subscription protocol in addition to
// in-process mailbox delivery. Grounded on modular's httpserver/reload.go
// emitConfigReloadedEvent, the pack's canonical example of building and emitting a
// cloudevents.Event.
package cloudevents

import (
	"context"
	"fmt"
	"time"

	cloudeventssdk "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// Sink posts transition gossip to a configured HTTP target as CloudEvents over HTTP,
// using the SDK's client rather than a hand-rolled HTTP POST.
type Sink struct {
	client cloudeventssdk.Client
	target string
	source string
}

// NewSink builds a Sink that POSTs events to target, tagging them with source (typically
// the emitting actor's name).
func NewSink(target, source string) (*Sink, error) {
	client, err := cloudeventssdk.NewClientHTTP()
	if err != nil {
		return nil, fmt.Errorf("cloudevents: new client: %w", err)
	}
	return &Sink{client: client, target: target, source: source}, nil
}

// EmitCurrentState sends the CurrentState baseline event a newly subscribed observer
// would otherwise only see over the in-process mailbox.
func (s *Sink) EmitCurrentState(ctx context.Context, selfRef string, state any) error {
	return s.emit(ctx, "fsm.current_state", map[string]any{
		"self":  selfRef,
		"state": state,
	})
}

// EmitTransition sends a fsm.TransitionNotice-equivalent event for a real transition.
func (s *Sink) EmitTransition(ctx context.Context, selfRef string, from, to any) error {
	return s.emit(ctx, "fsm.transition", map[string]any{
		"self": selfRef,
		"from": from,
		"to":   to,
	})
}

func (s *Sink) emit(ctx context.Context, eventType string, data any) error {
	event := cloudeventssdk.NewEvent()
	event.SetType(eventType)
	event.SetSource(s.source)
	event.SetID(uuid.NewString())
	event.SetTime(time.Now())

	if err := event.SetData(cloudeventssdk.ApplicationJSON, data); err != nil {
		return fmt.Errorf("cloudevents: set data: %w", err)
	}

	ctx = cloudeventssdk.ContextWithTarget(ctx, s.target)
	if result := s.client.Send(ctx, event); cloudeventssdk.IsUndelivered(result) {
		return fmt.Errorf("cloudevents: send: %w", result)
	}
	return nil
}

// GossipObserver adapts a Sink to a lightweight fsm.OnTransition hook, letting a host
// mirror in-process transition gossip out to external CloudEvents consumers without
// changing the core package's subscription semantics. It emits transitions only; it does
// not send a CurrentState baseline (Sink.EmitCurrentState is called by nothing here).
type GossipObserver[TS any] struct {
	sink    *Sink
	selfRef string
}

// NewGossipObserver binds sink to selfRef for use as an fsm.FSM.OnTransition hook.
func NewGossipObserver[TS any](sink *Sink, selfRef string) *GossipObserver[TS] {
	return &GossipObserver[TS]{sink: sink, selfRef: selfRef}
}

// Hook is suitable for fsm.FSM.OnTransition: it fires on every real transition.
func (g *GossipObserver[TS]) Hook(from, to TS) {
	// Best effort: external gossip is an add-on channel, never load-bearing for kernel
	// correctness, so a delivery failure is swallowed rather than surfaced to the
	// transition hook (which has no error return, per fsm.FSM.OnTransition's signature).
	_ = g.sink.EmitTransition(context.Background(), g.selfRef, from, to)
}
