// Package config provides the ambient configuration layer around the fsm package: static
// per-state timeout topology loaded from TOML, and a hot-reloaded runtime debug/listener
// config loaded from YAML and watched with fsnotify — grounded on modular's
// config_validation.go, which loads the same pair of formats (BurntSushi/toml,
// gopkg.in/yaml.v3) for its own config sources.
package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golobby/cast"
)

// StateTopology is one state's entry in a TOML topology file: its default timeout and an
// optional free-form metadata bag. DefaultTimeout accepts Go duration syntax ("30s") or
// a bare number of seconds ("30", coerced through golobby/cast).
type StateTopology struct {
	Name           string         `toml:"name"`
	DefaultTimeout string         `toml:"default_timeout"`
	Metadata       map[string]any `toml:"metadata"`
}

// Topology is the parsed root of a topology.toml file: the ordered set of state
// timeout defaults fed into fsm's Registry via When's defaultTimeout argument.
type Topology struct {
	States []StateTopology `toml:"states"`
}

// LoadTopology parses path as TOML into a Topology.
func LoadTopology(path string) (*Topology, error) {
	var t Topology
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("config: load topology %s: %w", path, err)
	}
	return &t, nil
}

// Timeouts resolves every state's DefaultTimeout string into a time.Duration, using
// golobby/cast's permissive string coercion so both Go duration syntax ("30s") and bare
// seconds ("30") parse. A state with an empty DefaultTimeout is omitted (spec.md's "no
// default timeout" case).
func (t *Topology) Timeouts() (map[string]time.Duration, error) {
	out := make(map[string]time.Duration, len(t.States))
	for _, st := range t.States {
		if st.DefaultTimeout == "" {
			continue
		}
		if d, err := time.ParseDuration(st.DefaultTimeout); err == nil {
			out[st.Name] = d
			continue
		}
		converted, err := cast.FromType(st.DefaultTimeout, reflect.TypeOf(float64(0)))
		if err != nil {
			return nil, fmt.Errorf("config: state %q default_timeout %q: %w", st.Name, st.DefaultTimeout, err)
		}
		out[st.Name] = time.Duration(converted.(float64) * float64(time.Second))
	}
	return out, nil
}
