package config

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Runtime is the small set of knobs an operator can change without restarting the host:
// whether debug_event tracing is on, and a debug server listen address (reloaded here,
// but cmd/fsmdemo takes its listen address from its -listen flag and never reads this
// field). It is loaded
// from YAML and kept current by watching the file with fsnotify — mirroring the
// live-reload config tier modular's config_validation.go documents via its `dynamic`
// struct tag, implemented here directly against fsnotify rather than a generic feeder bus.
type Runtime struct {
	DebugEvent      bool   `yaml:"debug_event"`
	DebugServerAddr string `yaml:"debug_server_addr"`
}

// RuntimeWatcher holds the most recently loaded Runtime and reloads it whenever the
// backing file changes.
type RuntimeWatcher struct {
	path    string
	current atomic.Pointer[Runtime]
	onLoad  []func(*Runtime)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// NewRuntimeWatcher loads path once and starts watching it for writes/creates.
func NewRuntimeWatcher(path string) (*RuntimeWatcher, error) {
	rw := &RuntimeWatcher{path: path}
	if err := rw.reload(); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: runtime watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	rw.watcher = w

	go rw.loop()
	return rw, nil
}

// OnLoad registers a callback invoked synchronously every time the runtime config is
// reloaded. Since the initial load inside NewRuntimeWatcher happens before any callback
// can be registered, OnLoad also invokes fn once immediately with the already-loaded
// config.
func (rw *RuntimeWatcher) OnLoad(fn func(*Runtime)) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.onLoad = append(rw.onLoad, fn)
	if cur := rw.current.Load(); cur != nil {
		fn(cur)
	}
}

// Current returns the most recently loaded Runtime.
func (rw *RuntimeWatcher) Current() *Runtime {
	return rw.current.Load()
}

// Close stops watching the file.
func (rw *RuntimeWatcher) Close() error {
	if rw.watcher == nil {
		return nil
	}
	return rw.watcher.Close()
}

func (rw *RuntimeWatcher) loop() {
	for {
		select {
		case ev, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := rw.reload(); err != nil {
				continue
			}
		case _, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (rw *RuntimeWatcher) reload() error {
	data, err := os.ReadFile(rw.path)
	if err != nil {
		return fmt.Errorf("config: read runtime %s: %w", rw.path, err)
	}
	var r Runtime
	if err := yaml.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("config: parse runtime %s: %w", rw.path, err)
	}
	rw.current.Store(&r)

	rw.mu.Lock()
	callbacks := append([]func(*Runtime){}, rw.onLoad...)
	rw.mu.Unlock()
	for _, cb := range callbacks {
		cb(&r)
	}
	return nil
}
