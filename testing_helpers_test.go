// testing_helpers_test.go: fake modules, openers and recording plugins
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const fakeExt = ".fake"

// fakeHandle serves symbols from a map.
type fakeHandle struct {
	symbols map[string]Symbol
}

func (h *fakeHandle) Lookup(name string) (Symbol, error) {
	sym, ok := h.symbols[name]
	if !ok {
		return nil, fmt.Errorf("symbol %s not found", name)
	}
	return sym, nil
}

// fakeOpener opens files by base name from an in-memory module table.
type fakeOpener struct {
	mu       sync.Mutex
	modules  map[string]map[string]Symbol
	failures map[string]error
	panics   map[string]any
	opened   []string
	resolver *ModuleResolver
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{
		modules:  make(map[string]map[string]Symbol),
		failures: make(map[string]error),
		panics:   make(map[string]any),
	}
}

func (o *fakeOpener) withModule(file string, symbols map[string]Symbol) *fakeOpener {
	o.modules[file] = symbols
	return o
}

func (o *fakeOpener) withFailure(file string, err error) *fakeOpener {
	o.failures[file] = err
	return o
}

func (o *fakeOpener) withPanic(file string, value any) *fakeOpener {
	o.panics[file] = value
	return o
}

func (o *fakeOpener) Kind() ModuleKind { return "fake" }

func (o *fakeOpener) UseResolver(resolver *ModuleResolver) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resolver = resolver
}

func (o *fakeOpener) Open(path string) (ModuleHandle, error) {
	base := filepath.Base(path)

	o.mu.Lock()
	o.opened = append(o.opened, base)
	o.mu.Unlock()

	if value, ok := o.panics[base]; ok {
		panic(value)
	}
	if err, ok := o.failures[base]; ok {
		return nil, err
	}
	symbols, ok := o.modules[base]
	if !ok {
		symbols = map[string]Symbol{}
	}
	return &fakeHandle{symbols: symbols}, nil
}

func (o *fakeOpener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}

func (o *fakeOpener) Resolver() *ModuleResolver {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.resolver
}

// writeFiles creates empty files (and parent directories) under root.
func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, nil, 0o600))
	}
}

// recorder collects lifecycle calls across plugins in call order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// recordingPlugin records every lifecycle call and panics on request.
type recordingPlugin struct {
	name    string
	rec     *recorder
	panicOn map[LifecycleEvent]bool
	onCall  func(LifecycleEvent)
}

func (p *recordingPlugin) handle(event LifecycleEvent) {
	p.rec.add(p.name + "." + string(event))
	if p.onCall != nil {
		p.onCall(event)
	}
	if p.panicOn[event] {
		panic(fmt.Sprintf("%s failed in %s", p.name, event))
	}
}

func (p *recordingPlugin) Initialize() { p.handle(EventInitialize) }
func (p *recordingPlugin) Update()     { p.handle(EventUpdate) }

// drawingPlugin adds Draw.
type drawingPlugin struct {
	recordingPlugin
}

func (p *drawingPlugin) Draw() { p.handle(EventDraw) }

// notAPlugin has no lifecycle methods.
type notAPlugin struct{}

// duckPlugin satisfies GamePlugin structurally but is never declared as one.
type duckPlugin struct{ BasePlugin }

func recordingExport(name string, rec *recorder, panicOn ...LifecycleEvent) Export {
	return ExportPlugin(name, func() GamePlugin {
		return newRecordingPlugin(name, rec, panicOn...)
	})
}

func drawingExport(name string, rec *recorder, panicOn ...LifecycleEvent) Export {
	return ExportPlugin(name, func() GamePlugin {
		return &drawingPlugin{recordingPlugin: *newRecordingPlugin(name, rec, panicOn...)}
	})
}

func newRecordingPlugin(name string, rec *recorder, panicOn ...LifecycleEvent) *recordingPlugin {
	p := &recordingPlugin{name: name, rec: rec, panicOn: make(map[LifecycleEvent]bool)}
	for _, e := range panicOn {
		p.panicOn[e] = true
	}
	return p
}

// newTestSystem creates a PluginSystem over a temporary plugins directory
// served by opener for fakeExt files. The system is shut down on cleanup.
func newTestSystem(t *testing.T, opener *fakeOpener, logger Logger, opts ...Option) (*PluginSystem, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "Plugins")
	config := Config{PluginsDir: dir}
	options := append([]Option{WithOpener(fakeExt, opener)}, opts...)

	ps, err := NewPluginSystem(config, logger, options...)
	require.NoError(t, err)
	t.Cleanup(ps.Shutdown)
	return ps, dir
}
