// Package debugserver exposes a small chi-routed HTTP introspection surface over a running
// fsm instance: the current state, a server-sent-events stream of transition gossip, and a
// toggle for debug_event tracing. Grounded on GoCodeAlone-modular's chimux module, the
// pack's canonical wrapper around go-chi/chi for routed HTTP services.
package debugserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Inspectable is the narrow read surface debugserver needs from a running
// fsm.FSM[Ref, TS, TD], expressed in terms of any so the server stays generic over the
// host's concrete Ref/TS/TD types without importing them.
type Inspectable interface {
	StateNameAny() any
	SubscriberCount() int
	SetDebugEvent(enabled bool)
}

// Server is a chi-routed HTTP server exposing state introspection for one FSM instance.
type Server struct {
	router  chi.Router
	machine Inspectable

	mu          sync.Mutex
	subscribers map[chan transitionEvent]struct{}
}

type transitionEvent struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// New builds a Server wrapping machine.
func New(machine Inspectable) *Server {
	s := &Server{
		machine:     machine,
		subscribers: make(map[chan transitionEvent]struct{}),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Get("/state", s.handleState)
	r.Get("/transitions", s.handleTransitions)
	r.Post("/debug", s.handleDebugToggle)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler, so a Server can be mounted directly or wrapped with
// http.ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Publish fans a transition out to every currently connected /transitions SSE client. The
// host calls this from an fsm.FSM.OnTransition hook.
func (s *Server) Publish(from, to any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- transitionEvent{From: from, To: to}:
		default:
			// slow subscriber, drop rather than block the transition hook
		}
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"state":       s.machine.StateNameAny(),
		"subscribers": s.machine.SubscriberCount(),
	})
}

func (s *Server) handleTransitions(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan transitionEvent, 16)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subscribers, ch)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	for {
		select {
		case ev := <-ch:
			payload, _ := json.Marshal(ev)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleDebugToggle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	s.machine.SetDebugEvent(body.Enabled)
	w.WriteHeader(http.StatusNoContent)
}
